package teams

import "time"

// Team is a competitive roster that registers for tournaments.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Tag       *string   `json:"tag,omitempty"`
	Game      string    `json:"game"`
	LogoURL   *string   `json:"logo_url,omitempty"`
	Region    *string   `json:"region,omitempty"`
	OwnerID   string    `json:"owner_id"`
	MaxRoster int       `json:"max_roster"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RosterMember is a user holding a team-scoped role on the team.
type RosterMember struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
