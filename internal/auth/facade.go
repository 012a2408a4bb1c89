package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"deepwork-api/internal/domain"
	"deepwork-api/internal/identity"
	"deepwork-api/internal/repository"
)

// AuthError es la forma uniforme de fallo del facade. Message conserva
// el mensaje del proveedor cuando existe; si no, el texto por defecto
// de la operacion.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

func newAuthError(op, fallback string, err error) *AuthError {
	msg := fallback
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &AuthError{Op: op, Message: msg, Err: err}
}

// Facade envuelve las operaciones del proveedor de identidad en un
// contrato uniforme. Cada llamada devuelve solo el exito o fracaso de
// la solicitud; las transiciones de estado fluyen por el canal de
// notificaciones de cambio, nunca por el retorno de estas funciones.
// Ninguna operacion reintenta; la politica de reintento es del llamador.
type Facade struct {
	provider identity.Provider
	profiles repository.ProfileRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewFacade(logger *zap.Logger, provider identity.Provider, profiles repository.ProfileRepository) *Facade {
	return &Facade{
		provider: provider,
		profiles: profiles,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (f *Facade) SignUp(ctx context.Context, email, password, fullName string) error {
	if err := f.provider.SignUp(ctx, email, password, fullName); err != nil {
		return newAuthError("sign_up", "Error signing up", err)
	}
	return nil
}

func (f *Facade) SignIn(ctx context.Context, email, password string) error {
	if err := f.provider.SignIn(ctx, email, password); err != nil {
		return newAuthError("sign_in", "Error signing in", err)
	}
	return nil
}

func (f *Facade) SignOut(ctx context.Context) error {
	if err := f.provider.SignOut(ctx); err != nil {
		return newAuthError("sign_out", "Error signing out", err)
	}
	return nil
}

// ResetPassword dispara la notificacion de reset fuera de banda. El
// proveedor responde exito aunque el email no este registrado, para no
// permitir enumerar cuentas.
func (f *Facade) ResetPassword(ctx context.Context, email string) error {
	if err := f.provider.ResetPassword(ctx, email); err != nil {
		return newAuthError("reset_password", "Error resetting password", err)
	}
	return nil
}

// UpdateProfile aplica una actualizacion parcial al Profile del
// subject. Si la fila no existe toma el camino de creacion de la
// reconciliacion, mezclando la actualizacion sobre los valores por
// defecto (los campos provistos ganan). La actualizacion en sitio es
// una unica sentencia: en fallo no queda aplicada a medias.
func (f *Facade) UpdateProfile(ctx context.Context, subjectID string, upd domain.ProfileUpdate) (domain.Profile, error) {
	const op = "update_profile"
	const fallback = "Error updating user profile"

	rows, err := f.profiles.GetAllByID(ctx, subjectID)
	if err != nil {
		return domain.Profile{}, newAuthError(op, fallback, err)
	}

	if len(rows) == 0 {
		sess, err := f.provider.GetSession(ctx)
		if err != nil {
			return domain.Profile{}, newAuthError(op, fallback, err)
		}
		if sess == nil || sess.Subject != subjectID {
			return domain.Profile{}, newAuthError(op, fallback, errors.New("cannot find auth account data"))
		}

		now := f.now()
		profile := domain.Profile{
			ID:        subjectID,
			Email:     sess.Email,
			FullName:  sess.FullName,
			AvatarURL: sess.AvatarURL,
			LastLogin: &now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		applyUpdate(&profile, upd)

		if err := f.profiles.Insert(ctx, profile); err != nil {
			return domain.Profile{}, newAuthError(op, fallback, err)
		}
		return profile, nil
	}

	updated, err := f.profiles.Update(ctx, subjectID, upd, f.now())
	if err != nil {
		return domain.Profile{}, newAuthError(op, fallback, err)
	}
	return updated, nil
}

func applyUpdate(p *domain.Profile, upd domain.ProfileUpdate) {
	if upd.Email != nil {
		p.Email = *upd.Email
	}
	if upd.FullName != nil {
		p.FullName = upd.FullName
	}
	if upd.AvatarURL != nil {
		p.AvatarURL = upd.AvatarURL
	}
	if upd.Preferences != nil {
		p.Preferences = upd.Preferences
	}
	if upd.TimeZone != nil {
		p.TimeZone = upd.TimeZone
	}
	if upd.LastLogin != nil {
		p.LastLogin = upd.LastLogin
	}
}
