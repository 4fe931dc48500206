package notifications

import "context"

// Service handles notification feed logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Feed returns the user's notifications newest first.
func (s *Service) Feed(ctx context.Context, userID string, limit, offset int) ([]Notification, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListForUser(ctx, userID, limit, offset)
}

// MarkRead flags one of the user's notifications read.
func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// UnreadCount counts the user's unread notifications.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// FanOut writes one feed row per recipient. The asynq worker calls this from
// the notify:fanout task handler.
func (s *Service) FanOut(ctx context.Context, userIDs []string, kind, title, body string) error {
	if len(userIDs) == 0 {
		return nil
	}
	return s.repo.FanOut(ctx, userIDs, kind, title, body)
}
