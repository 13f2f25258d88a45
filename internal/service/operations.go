package service

import (
	"fmt"

	"crossposter/internal/domain"
)

// Operation identifies a publishing strategy.
type Operation string

const (
	OpCrosspost Operation = "crosspost"
	OpSubmit    Operation = "submit"
)

// SelectOperations returns the strategies applicable to task in preference order.
// A cross-post is preferred over a direct submission.
func SelectOperations(task *domain.Task) ([]Operation, error) {
	var ops []Operation
	if task.CrosspostSourceLink != "" {
		ops = append(ops, OpCrosspost)
	}
	if task.Link != "" {
		ops = append(ops, OpSubmit)
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: neither crosspost source nor direct link found", domain.ErrInvalidTask)
	}
	return ops, nil
}
