package tournaments

import "time"

// Status labels a tournament's lifecycle stage. It is a display and gating
// label only; bracket progression is out of scope.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusPublished        Status = "published"
	StatusRegistrationOpen Status = "registration_open"
	StatusCompleted        Status = "completed"
	StatusCancelled        Status = "cancelled"
)

// validTransitions is the closed transition table. Completed and cancelled
// are terminal.
var validTransitions = map[Status][]Status{
	StatusDraft:            {StatusPublished, StatusCancelled},
	StatusPublished:        {StatusRegistrationOpen, StatusCancelled},
	StatusRegistrationOpen: {StatusPublished, StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known status label.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusRegistrationOpen, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Tournament is an event run by an organization.
type Tournament struct {
	ID          string     `json:"id"`
	OrgID       string     `json:"org_id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Game        string     `json:"game"`
	Format      *string    `json:"format,omitempty"`
	Description *string    `json:"description,omitempty"`
	PrizePool   *string    `json:"prize_pool,omitempty"`
	MaxTeams    int        `json:"max_teams"`
	Status      Status     `json:"status"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RegistrationStatus labels a team's entry in a tournament.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationApproved  RegistrationStatus = "approved"
	RegistrationRejected  RegistrationStatus = "rejected"
	RegistrationWithdrawn RegistrationStatus = "withdrawn"
)

// Registration is a team's entry in a tournament.
type Registration struct {
	ID           string             `json:"id"`
	TournamentID string             `json:"tournament_id"`
	TeamID       string             `json:"team_id"`
	Status       RegistrationStatus `json:"status"`
	RequestedBy  string             `json:"requested_by"`
	DecidedBy    *string            `json:"decided_by,omitempty"`
	Reason       *string            `json:"reason,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}
