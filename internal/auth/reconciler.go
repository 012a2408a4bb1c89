package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"deepwork-api/internal/domain"
	"deepwork-api/internal/repository"
)

// Resultados de una resolucion de perfil.
const (
	ResolutionFound    = "found"
	ResolutionCreated  = "created"
	ResolutionFallback = "fallback"
)

// ReconcileMetrics recibe contadores de la reconciliacion. Todas las
// implementaciones deben tolerar llamadas concurrentes.
type ReconcileMetrics interface {
	RecordResolution(outcome string)
	RecordAnomaly()
}

// Reconciler garantiza que exista una fila de Profile para el subject
// de una sesion y la devuelve. Nunca propaga errores: cualquier fallo
// degrada a un Profile minimo construido con los claims de la sesion.
type Reconciler struct {
	profiles repository.ProfileRepository
	logger   *zap.Logger
	metrics  ReconcileMetrics
	onError  func(error)
	now      func() time.Time
}

func NewReconciler(logger *zap.Logger, profiles repository.ProfileRepository, metrics ReconcileMetrics, onError func(error)) *Reconciler {
	return &Reconciler{
		profiles: profiles,
		logger:   logger,
		metrics:  metrics,
		onError:  onError,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Resolve aplica el patron upsert-por-lectura: consulta por id, crea la
// fila si no existe y devuelve la existente si ya esta. Es idempotente
// por subject; tras el primer insert las llamadas siguientes toman el
// camino de fila encontrada.
func (r *Reconciler) Resolve(ctx context.Context, sess *domain.Session) domain.Profile {
	rows, err := r.profiles.GetAllByID(ctx, sess.Subject)
	if err != nil {
		return r.degrade(sess, err)
	}

	switch {
	case len(rows) == 0:
		profile := r.synthesize(sess)
		if err := r.profiles.Insert(ctx, profile); err != nil {
			return r.degrade(sess, err)
		}
		r.record(ResolutionCreated)
		return profile

	case len(rows) > 1:
		// Anomalia de datos: no deberia ocurrir con la PK de la tabla.
		// Se toma la primera fila y se deja constancia, sin corregir.
		if r.logger != nil {
			r.logger.Warn("profile rows anomaly",
				zap.String("subject", sess.Subject),
				zap.Int("rows", len(rows)),
			)
		}
		if r.metrics != nil {
			r.metrics.RecordAnomaly()
		}
		r.record(ResolutionFound)
		return rows[0]

	default:
		r.record(ResolutionFound)
		return rows[0]
	}
}

// synthesize construye el Profile por defecto a partir de los claims de
// la sesion: email de la sesion, nombre y avatar de los metadatos del
// proveedor si existen, last_login ahora.
func (r *Reconciler) synthesize(sess *domain.Session) domain.Profile {
	now := r.now()
	return domain.Profile{
		ID:        sess.Subject,
		Email:     sess.Email,
		FullName:  sess.FullName,
		AvatarURL: sess.AvatarURL,
		LastLogin: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// degrade devuelve el Profile minimo con solo los claims propios de la
// sesion, para que el llamador nunca reciba nil habiendo sesion.
func (r *Reconciler) degrade(sess *domain.Session, err error) domain.Profile {
	if r.logger != nil {
		r.logger.Warn("profile resolution degraded",
			zap.String("subject", sess.Subject),
			zap.Error(err),
		)
	}
	if r.onError != nil {
		r.onError(err)
	}
	r.record(ResolutionFallback)
	now := r.now()
	return domain.Profile{
		ID:        sess.Subject,
		Email:     sess.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *Reconciler) record(outcome string) {
	if r.metrics != nil {
		r.metrics.RecordResolution(outcome)
	}
}
