package identity

import (
	"context"

	"deepwork-api/internal/domain"
)

// Eventos de cambio de autenticacion emitidos por el Provider.
const (
	EventSignedIn       = "signed_in"
	EventSignedOut      = "signed_out"
	EventTokenRefreshed = "token_refreshed"
)

// Change notifica un cambio de sesion. Session es nil cuando la sesion
// termino.
type Change struct {
	Event   string
	Session *domain.Session
}

// Provider es la capacidad de identidad que consume el nucleo de auth:
// cinco operaciones y una suscripcion a cambios de estado.
type Provider interface {
	SignUp(ctx context.Context, email, password, fullName string) error
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
	GetSession(ctx context.Context) (*domain.Session, error)
	// Subscribe registra un callback para cambios de sesion y devuelve
	// la funcion para cancelar la suscripcion.
	Subscribe(fn func(Change)) func()
}
