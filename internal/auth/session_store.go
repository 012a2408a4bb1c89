package auth

import (
	"context"

	"go.uber.org/zap"

	"deepwork-api/internal/domain"
	"deepwork-api/internal/identity"
)

// SessionStore expone la sesion actual del proveedor de identidad y
// las notificaciones de cambio.
type SessionStore struct {
	provider identity.Provider
	logger   *zap.Logger
	onError  func(error)
}

func NewSessionStore(logger *zap.Logger, provider identity.Provider, onError func(error)) *SessionStore {
	return &SessionStore{
		provider: provider,
		logger:   logger,
		onError:  onError,
	}
}

// Restore recupera la sesion persistida si existe. Nunca devuelve
// error: un fallo de transporte se registra en el canal de errores y
// se resuelve como nil.
func (s *SessionStore) Restore(ctx context.Context) *domain.Session {
	sess, err := s.provider.GetSession(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("restore session failed", zap.Error(err))
		}
		if s.onError != nil {
			s.onError(err)
		}
		return nil
	}
	return sess
}

// Subscribe registra fn para cambios de sesion y devuelve la funcion
// de cancelacion. El handle debe invocarse al desmontar el consumidor.
func (s *SessionStore) Subscribe(fn func(identity.Change)) func() {
	return s.provider.Subscribe(fn)
}
