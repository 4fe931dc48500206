package users

import "time"

// Profile represents a player profile as shown on the platform.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Bio         *string   `json:"bio,omitempty"`
	Country     *string   `json:"country,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	GameTag     *string   `json:"game_tag,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
