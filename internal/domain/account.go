package domain

import "time"

// Account es la cuenta de identidad (credenciales), separada del
// Profile de dominio. El Profile se crea de forma diferida en la
// reconciliacion, no aqui.
type Account struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	FullName         string     `json:"full_name,omitempty"`
	AvatarURL        string     `json:"avatar_url,omitempty"`
	ResetCodeHash    string     `json:"-"`
	ResetCodeExpires *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
}
