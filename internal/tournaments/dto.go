package tournaments

import "time"

// CreateTournamentRequest carries a new tournament submission.
type CreateTournamentRequest struct {
	Name        string     `json:"name" validate:"required,min=3,max=128"`
	Game        string     `json:"game" validate:"required,min=2,max=64"`
	Format      *string    `json:"format,omitempty" validate:"omitempty,max=64"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	PrizePool   *string    `json:"prize_pool,omitempty" validate:"omitempty,max=64"`
	MaxTeams    int        `json:"max_teams" validate:"required,gte=2,lte=1024"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}

// UpdateTournamentRequest carries partial tournament updates.
type UpdateTournamentRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=3,max=128"`
	Format      *string    `json:"format,omitempty" validate:"omitempty,max=64"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	PrizePool   *string    `json:"prize_pool,omitempty" validate:"omitempty,max=64"`
	MaxTeams    *int       `json:"max_teams,omitempty" validate:"omitempty,gte=2,lte=1024"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}

// UpdateStatusRequest moves a tournament along its lifecycle.
type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

// RegisterRequest enters a team into a tournament.
type RegisterRequest struct {
	TeamID string `json:"team_id" validate:"omitempty,uuid4"`
}

// DecideRequest approves or rejects a pending registration.
type DecideRequest struct {
	Approve bool    `json:"approve"`
	Reason  *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// ListTournamentsRequest filters the public tournament listing.
type ListTournamentsRequest struct {
	Search string
	Game   string
	OrgID  string
	Status Status
	Limit  int
	Offset int
}
