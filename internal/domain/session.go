package domain

import "time"

// Session es el paquete de credenciales emitido por el proveedor de
// identidad. Subject identifica la cuenta; los claims acompanantes son
// pistas de identidad para construir el Profile por defecto.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`

	Subject   string  `json:"subject"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Expired indica si el access token ya vencio.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
