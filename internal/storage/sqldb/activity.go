package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"crossposter/internal/domain"
)

type activityRow struct {
	Name         string `db:"name"`
	Rev          int64  `db:"rev"`
	LastPostedAt string `db:"last_posted_at"`
}

type ActivityStore struct {
	db *sqlx.DB
}

func NewActivityStore(db *sqlx.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// Get returns the activity record for a channel, or nil when the channel was never posted to.
func (s *ActivityStore) Get(ctx context.Context, name string) (*domain.ChannelActivity, error) {
	var row activityRow
	query := s.db.Rebind(`SELECT name, rev, last_posted_at FROM channel_activity WHERE name = ?`)
	err := s.db.GetContext(ctx, &row, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select channel activity %s: %w", name, err)
	}

	lastPosted, err := time.Parse(time.RFC3339Nano, row.LastPostedAt)
	if err != nil {
		return nil, fmt.Errorf("decode channel activity %s: %w", name, err)
	}

	return &domain.ChannelActivity{
		Name:         row.Name,
		Revision:     row.Rev,
		LastPostedAt: lastPosted,
	}, nil
}

// Upsert records a successful publish to the channel, creating the record on first use.
func (s *ActivityStore) Upsert(ctx context.Context, name string, postedAt time.Time) error {
	ts := postedAt.UTC().Format(time.RFC3339Nano)

	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		rev, found, err := currentRev(ctx, tx, `SELECT rev FROM channel_activity WHERE name = ?`, name)
		if err != nil {
			return err
		}

		if !found {
			_, err := tx.ExecContext(ctx,
				tx.Rebind(`INSERT INTO channel_activity (name, rev, last_posted_at) VALUES (?, ?, ?)`),
				name, 1, ts,
			)
			if isUniqueViolation(err) {
				return fmt.Errorf("%s: %w", name, domain.ErrConflict)
			}
			return err
		}

		res, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE channel_activity SET rev = ?, last_posted_at = ? WHERE name = ? AND rev = ?`),
			rev+1, ts, name, rev,
		)
		if err != nil {
			return err
		}
		return expectOneRow(res, name)
	})
	if err != nil {
		return fmt.Errorf("upsert channel activity %s: %w", name, err)
	}
	return nil
}
