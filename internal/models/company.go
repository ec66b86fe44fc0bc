package models

import "time"

// Company représente un tenant : une société qui expose son widget de support
// via son tagline (slug unique dans les URLs).
type Company struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Tagline       string    `json:"tagline"`
	Description   string    `json:"description"`
	BannerColor   string    `json:"banner_color"`
	Industry      string    `json:"industry"`
	SupportEmail  string    `json:"support_email"`
	ReturnPolicy  string    `json:"return_policy"`
	AdminUsername string    `json:"-"`
	AdminPassword string    `json:"-"` // hash argon2id, jamais exposé
	CreatedAt     time.Time `json:"created_at"`
}
