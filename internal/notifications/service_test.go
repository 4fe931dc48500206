package notifications

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
	_ "github.com/ravikarmakar/gaming-hub-sub004/testing"
)

type mockFeedRepo struct {
	mu   sync.Mutex
	rows []Notification
}

func (m *mockFeedRepo) Insert(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *n)
	return nil
}

func (m *mockFeedRepo) FanOut(ctx context.Context, userIDs []string, kind, title, body string) error {
	for _, id := range userIDs {
		if err := m.Insert(ctx, &Notification{ID: id + "-n", UserID: id, Kind: kind, Title: title, Body: body}); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockFeedRepo) ListForUser(_ context.Context, userID string, limit, offset int) ([]Notification, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Notification
	for _, n := range m.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *mockFeedRepo) MarkRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].UserID == userID {
			m.rows[i].Read = true
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *mockFeedRepo) UnreadCount(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, row := range m.rows {
		if row.UserID == userID && !row.Read {
			n++
		}
	}
	return n, nil
}

func TestFanOutWritesEveryRecipient(t *testing.T) {
	repo := &mockFeedRepo{}
	svc := NewService(repo)

	require.NoError(t, svc.FanOut(context.Background(), []string{"u1", "u2", "u3"}, "registration.approved", "Approved", "Your team is in."))
	require.NoError(t, svc.FanOut(context.Background(), nil, "noop", "", ""))

	var recipients []string
	for _, n := range repo.rows {
		recipients = append(recipients, n.UserID)
	}
	sort.Strings(recipients)
	assert.Equal(t, []string{"u1", "u2", "u3"}, recipients)
}

func TestFeedAndUnread(t *testing.T) {
	repo := &mockFeedRepo{}
	svc := NewService(repo)
	require.NoError(t, svc.FanOut(context.Background(), []string{"u1"}, "k", "Title", "Body"))
	require.NoError(t, svc.FanOut(context.Background(), []string{"u2"}, "k", "Title", "Body"))

	feed, total, err := svc.Feed(context.Background(), "u1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, feed, 1)
	assert.False(t, feed[0].Read)

	n, err := svc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Reading another user's row is not found, not forbidden-with-leak.
	err = svc.MarkRead(context.Background(), feed[0].ID, "u2")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, svc.MarkRead(context.Background(), feed[0].ID, "u1"))
	n, err = svc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
