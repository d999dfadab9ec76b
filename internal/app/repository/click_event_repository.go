package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shrinker-io/shrinker/internal/app/model"
)

// ClickEventRepository is the recording and reporting side of click events.
// It runs on pgx directly: the record path is a hot transactional write and
// the analytics path is raw aggregation, neither benefits from the ORM.
type ClickEventRepository interface {
	// Record persists the event and bumps the owning link's visit_count by
	// one inside a single transaction. Either both writes land or neither.
	Record(ctx context.Context, event *model.ClickEvent) error
	TotalClicks(ctx context.Context, linkID int64) (int64, error)
	ClicksByDay(ctx context.Context, linkID int64, since time.Time) ([]model.DailyClicks, error)
	// DeleteOlderThan prunes events outside the retention window and returns
	// the number of rows removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type clickEventRepository struct {
	pool *pgxpool.Pool
}

// NewClickEventRepository returns a pgx-backed ClickEventRepository.
func NewClickEventRepository(pool *pgxpool.Pool) ClickEventRepository {
	return &clickEventRepository{pool: pool}
}

func (r *clickEventRepository) Record(ctx context.Context, event *model.ClickEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin click tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO click_events (id, link_id, ip, user_agent, "timestamp") VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.LinkID, event.IP, event.UserAgent, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert click event: %w", err)
	}

	// Increment expressed in SQL so concurrent clicks on the same link
	// cannot lose updates.
	tag, err := tx.Exec(ctx,
		`UPDATE links SET visit_count = visit_count + 1 WHERE id = $1`,
		event.LinkID,
	)
	if err != nil {
		return fmt.Errorf("increment visit count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("increment visit count: %w", ErrLinkNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit click tx: %w", err)
	}
	return nil
}

func (r *clickEventRepository) TotalClicks(ctx context.Context, linkID int64) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM click_events WHERE link_id = $1`,
		linkID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count clicks: %w", err)
	}
	return total, nil
}

func (r *clickEventRepository) ClicksByDay(ctx context.Context, linkID int64, since time.Time) ([]model.DailyClicks, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT to_char(date_trunc('day', "timestamp"), 'YYYY-MM-DD') AS day, count(*)
		   FROM click_events
		  WHERE link_id = $1 AND "timestamp" >= $2
		  GROUP BY day
		  ORDER BY day`,
		linkID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("query clicks by day: %w", err)
	}
	defer rows.Close()

	var buckets []model.DailyClicks
	for rows.Next() {
		var b model.DailyClicks
		if err := rows.Scan(&b.Date, &b.Count); err != nil {
			return nil, fmt.Errorf("scan clicks by day: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clicks by day: %w", err)
	}
	return buckets, nil
}

func (r *clickEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM click_events WHERE "timestamp" < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("prune click events: %w", err)
	}
	return tag.RowsAffected(), nil
}
