package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
)

// fanoutConcurrency caps parallel inserts during fan-out so a large roster
// cannot exhaust the pool.
const fanoutConcurrency = 8

// RepositoryPort defines data access methods for notification feeds.
type RepositoryPort interface {
	Insert(ctx context.Context, n *Notification) error
	FanOut(ctx context.Context, userIDs []string, kind, title, body string) error
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]Notification, int, error)
	MarkRead(ctx context.Context, id, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert writes one feed row.
func (r *Repository) Insert(ctx context.Context, n *Notification) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, kind, title, body, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, NOW())`,
		n.ID, n.UserID, n.Kind, n.Title, n.Body)
	return err
}

// FanOut writes one feed row per recipient, in parallel. Any single failure
// aborts the remaining inserts; already written rows stay.
func (r *Repository) FanOut(ctx context.Context, userIDs []string, kind, title, body string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutConcurrency)
	for _, userID := range userIDs {
		g.Go(func() error {
			return r.Insert(ctx, &Notification{
				ID:     uuid.NewString(),
				UserID: userID,
				Kind:   kind,
				Title:  title,
				Body:   body,
			})
		})
	}
	return g.Wait()
}

const notificationColumns = `id, user_id, kind, title, body, read, created_at`

// ListForUser returns the user's feed newest first.
func (r *Repository) ListForUser(ctx context.Context, userID string, limit, offset int) ([]Notification, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// MarkRead flags a notification read. The user filter stops reads of someone
// else's feed.
func (r *Repository) MarkRead(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UnreadCount counts unread rows in the user's feed.
func (r *Repository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID).Scan(&n)
	return n, err
}
