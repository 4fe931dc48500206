package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
)

// Enqueuer submits verification e-mails to the background queue.
type Enqueuer interface {
	EnqueueVerificationEmail(ctx context.Context, to, code string) error
}

// Service wraps authentication business rules. It implements both
// access.PrincipalSource and access.CodeSender.
type Service struct {
	repo    Repository
	queue   Enqueuer
	codeTTL time.Duration
}

// NewService constructs a new Service.
func NewService(repo Repository, queue Enqueuer, codeTTL time.Duration) *Service {
	if codeTTL <= 0 {
		codeTTL = 15 * time.Minute
	}
	return &Service{repo: repo, queue: queue, codeTTL: codeTTL}
}

// Register creates a new unverified account and dispatches the first
// verification code.
func (s *Service) Register(ctx context.Context, email, username, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	user := &User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Username:     strings.TrimSpace(username),
		PasswordHash: string(hash),
		Verified:     false,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.SendVerificationCode(ctx, user.ID); err != nil {
		// Account exists; the verification gate re-dispatches on first visit.
		return user, nil
	}
	return user, nil
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Principal builds the immutable per-request principal snapshot for a session
// user.
func (s *Service) Principal(ctx context.Context, userID string) (*access.Principal, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrNotFound
	}
	assignments, err := s.repo.ListAssignments(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := &access.Principal{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Verified: user.Verified,
		Roles:    assignments,
	}
	if user.OrgID != nil {
		p.OrgID = *user.OrgID
	}
	if user.TeamID != nil {
		p.TeamID = *user.TeamID
	}
	if user.CodeExpiresAt != nil {
		p.CodeExpiresAt = *user.CodeExpiresAt
	}
	return p, nil
}

// SendVerificationCode issues a fresh 6-digit code, stores its hash with the
// configured validity window and enqueues the e-mail.
func (s *Service) SendVerificationCode(ctx context.Context, userID string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Verified {
		return nil
	}
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("auth: generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash code: %w", err)
	}
	if err := s.repo.SetVerificationCode(ctx, userID, string(hash), time.Now().Add(s.codeTTL)); err != nil {
		return err
	}
	if s.queue == nil {
		return nil
	}
	return s.queue.EnqueueVerificationEmail(ctx, user.Email, code)
}

// VerifyEmail checks the supplied code and marks the account verified.
func (s *Service) VerifyEmail(ctx context.Context, userID, code string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Verified {
		return nil
	}
	if user.CodeHash == nil || user.CodeExpiresAt == nil {
		return shared.ErrCodeExpired
	}
	if time.Now().After(*user.CodeExpiresAt) {
		return shared.ErrCodeExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.CodeHash), []byte(code)); err != nil {
		return shared.ErrCodeMismatch
	}
	return s.repo.MarkVerified(ctx, userID)
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
