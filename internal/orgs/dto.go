package orgs

// CreateOrgRequest carries a new organization submission.
type CreateOrgRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=64"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	LogoURL     *string `json:"logo_url,omitempty" validate:"omitempty,url"`
	Region      *string `json:"region,omitempty" validate:"omitempty,max=32"`
}

// UpdateOrgRequest carries partial organization updates.
type UpdateOrgRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=3,max=64"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	LogoURL     *string `json:"logo_url,omitempty" validate:"omitempty,url"`
	Region      *string `json:"region,omitempty" validate:"omitempty,max=32"`
}

// AddMemberRequest grants an org-scoped role to a user.
type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
	Role   string `json:"role" validate:"required"`
}

// ListOrgsRequest filters the public organization listing.
type ListOrgsRequest struct {
	Search string
	Region string
	Limit  int
	Offset int
}
