package users

import (
	"context"
)

// Service handles profile business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get returns one profile.
func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	return s.repo.Get(ctx, id)
}

// List returns profiles with the total count for pagination.
func (s *Service) List(ctx context.Context, req ListProfilesRequest) ([]Profile, int, error) {
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	return s.repo.List(ctx, req)
}

// Update applies a partial profile update.
func (s *Service) Update(ctx context.Context, id string, req UpdateProfileRequest) (*Profile, error) {
	updates := make(map[string]any)
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.GameTag != nil {
		updates["game_tag"] = *req.GameTag
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}
