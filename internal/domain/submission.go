package domain

// Submission references a post created on the platform.
type Submission struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SubmitRequest creates a new link post in a channel.
type SubmitRequest struct {
	Channel string
	Title   string
	Link    string
	FlairID string
	NSFW    bool
}

// CrosspostRequest re-publishes an existing submission into another channel.
type CrosspostRequest struct {
	Channel    string
	SourceLink string
	FlairID    string
	NSFW       bool
}
