package domain

import "time"

// Preferences agrupa las preferencias de la app del usuario.
type Preferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	Sound         bool   `json:"sound"`
	Vibration     bool   `json:"vibration"`
}

// Profile es el registro de usuario de dominio en la tabla users.
// El ID coincide con el subject de la cuenta de identidad.
type Profile struct {
	ID          string       `json:"id"`
	Email       string       `json:"email"`
	FullName    *string      `json:"full_name,omitempty"`
	AvatarURL   *string      `json:"avatar_url,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
	TimeZone    *string      `json:"time_zone,omitempty"`
	LastLogin   *time.Time   `json:"last_login,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ProfileUpdate describe una actualizacion parcial del Profile.
// Los campos nil no se tocan.
type ProfileUpdate struct {
	Email       *string      `json:"email,omitempty"`
	FullName    *string      `json:"full_name,omitempty"`
	AvatarURL   *string      `json:"avatar_url,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
	TimeZone    *string      `json:"time_zone,omitempty"`
	LastLogin   *time.Time   `json:"last_login,omitempty"`
}

// IsEmpty indica si la actualizacion no contiene ningun campo.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Email == nil && u.FullName == nil && u.AvatarURL == nil &&
		u.Preferences == nil && u.TimeZone == nil && u.LastLogin == nil
}
