package users

// ListProfilesRequest filters the profile listing.
type ListProfilesRequest struct {
	Search   string `json:"search"`
	IsActive *bool  `json:"is_active,omitempty"`
	Limit    int    `json:"limit" validate:"gte=0,lte=100"`
	Offset   int    `json:"offset" validate:"gte=0"`
}

// UpdateProfileRequest carries partial profile updates.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=64"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Country     *string `json:"country,omitempty" validate:"omitempty,len=2"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	GameTag     *string `json:"game_tag,omitempty" validate:"omitempty,max=32"`
}
