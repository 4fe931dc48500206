package teams

// CreateTeamRequest carries a new team submission.
type CreateTeamRequest struct {
	Name      string  `json:"name" validate:"required,min=3,max=64"`
	Tag       *string `json:"tag,omitempty" validate:"omitempty,min=2,max=6"`
	Game      string  `json:"game" validate:"required,min=2,max=64"`
	LogoURL   *string `json:"logo_url,omitempty" validate:"omitempty,url"`
	Region    *string `json:"region,omitempty" validate:"omitempty,max=32"`
	MaxRoster int     `json:"max_roster" validate:"omitempty,gte=1,lte=20"`
}

// UpdateTeamRequest carries partial team updates.
type UpdateTeamRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=3,max=64"`
	Tag     *string `json:"tag,omitempty" validate:"omitempty,min=2,max=6"`
	LogoURL *string `json:"logo_url,omitempty" validate:"omitempty,url"`
	Region  *string `json:"region,omitempty" validate:"omitempty,max=32"`
}

// AddRosterRequest grants a team-scoped role to a user.
type AddRosterRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
	Role   string `json:"role" validate:"required"`
}

// TransferOwnershipRequest hands the team to another roster member.
type TransferOwnershipRequest struct {
	NewOwnerID string `json:"new_owner_id" validate:"required,uuid4"`
}

// ListTeamsRequest filters the public team listing.
type ListTeamsRequest struct {
	Search string
	Game   string
	Region string
	Limit  int
	Offset int
}
