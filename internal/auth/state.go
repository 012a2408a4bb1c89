package auth

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"deepwork-api/internal/domain"
	"deepwork-api/internal/identity"
)

// Phase es la fase del ciclo de vida de autenticacion.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseResolving
	PhaseAuthenticated
	PhaseAnonymous
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseResolving:
		return "resolving"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// State es la superficie de estado que consumen las pantallas: sesion,
// perfil resuelto, bandera de carga y ultimo error. Los consumidores
// solo leen; el unico escritor es el Manager.
type State struct {
	Phase   Phase
	Session *domain.Session
	Profile *domain.Profile
	Loading bool
	Err     string
}

// Manager compone SessionStore, Reconciler y Facade en el contenedor de
// estado unico. Cada notificacion de cambio se procesa hasta completar
// (incluida la ida al Reconciler) antes de observar la siguiente; si el
// proveedor emite eventos solapados gana la ultima escritura sobre el
// mismo slot de perfil.
type Manager struct {
	logger     *zap.Logger
	store      *SessionStore
	reconciler *Reconciler
	facade     *Facade

	mu     sync.Mutex
	state  State
	subs   []stateSubscriber
	nextID int
	unsub  func()
}

type stateSubscriber struct {
	id int
	fn func(State)
}

func NewManager(logger *zap.Logger, store *SessionStore, reconciler *Reconciler, facade *Facade) *Manager {
	return &Manager{
		logger:     logger,
		store:      store,
		reconciler: reconciler,
		facade:     facade,
		state: State{
			Phase:   PhaseInitializing,
			Loading: true,
		},
	}
}

// Start restaura la sesion persistida, resuelve el perfil si hay
// sesion y deja al Manager suscrito a los cambios del proveedor. La
// suscripcion queda viva hasta Close.
func (m *Manager) Start(ctx context.Context) {
	m.unsub = m.store.Subscribe(func(ch identity.Change) {
		m.handleChange(ctx, ch)
	})

	sess := m.store.Restore(ctx)
	if sess == nil {
		m.setState(func(st *State) {
			st.Phase = PhaseAnonymous
			st.Session = nil
			st.Profile = nil
			st.Loading = false
		})
		return
	}

	m.setState(func(st *State) {
		st.Phase = PhaseResolving
		st.Session = sess
	})
	profile := m.reconciler.Resolve(ctx, sess)
	m.setState(func(st *State) {
		st.Phase = PhaseAuthenticated
		st.Profile = &profile
		st.Loading = false
	})
}

// Close cancela la suscripcion al proveedor. Sin Close un consumidor
// desmontado seguiria recibiendo notificaciones.
func (m *Manager) Close() {
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
}

func (m *Manager) handleChange(ctx context.Context, ch identity.Change) {
	if ch.Session == nil {
		m.setState(func(st *State) {
			st.Phase = PhaseAnonymous
			st.Session = nil
			st.Profile = nil
			st.Loading = false
		})
		return
	}

	m.setState(func(st *State) {
		st.Phase = PhaseResolving
		st.Session = ch.Session
	})
	profile := m.reconciler.Resolve(ctx, ch.Session)
	m.setState(func(st *State) {
		st.Phase = PhaseAuthenticated
		st.Profile = &profile
		st.Loading = false
	})
}

// SignUp solicita el alta. No fija estado Ready: esa transicion llega
// solo por la notificacion de cambio del proveedor.
func (m *Manager) SignUp(ctx context.Context, email, password, fullName string) error {
	m.beginOp()
	err := m.facade.SignUp(ctx, email, password, fullName)
	m.endOp(err)
	return err
}

// SignIn solicita la autenticacion. Igual que SignUp, el estado Ready
// llega por la notificacion de cambio.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	m.beginOp()
	err := m.facade.SignIn(ctx, email, password)
	m.endOp(err)
	return err
}

// SignOut invalida la sesion; el perfil se limpia cuando el proveedor
// emite la sesion nula.
func (m *Manager) SignOut(ctx context.Context) error {
	m.beginOp()
	err := m.facade.SignOut(ctx)
	m.endOp(err)
	return err
}

func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	m.beginOp()
	err := m.facade.ResetPassword(ctx, email)
	m.endOp(err)
	return err
}

// UpdateProfile aplica una actualizacion parcial al perfil del usuario
// autenticado y, en exito, reemplaza el slot de perfil del estado.
func (m *Manager) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (domain.Profile, error) {
	m.beginOp()

	m.mu.Lock()
	sess := m.state.Session
	m.mu.Unlock()
	if sess == nil {
		err := &AuthError{Op: "update_profile", Message: "No user logged in"}
		m.endOp(err)
		return domain.Profile{}, err
	}

	profile, err := m.facade.UpdateProfile(ctx, sess.Subject, upd)
	if err != nil {
		m.endOp(err)
		return domain.Profile{}, err
	}

	m.setState(func(st *State) {
		st.Profile = &profile
		st.Loading = false
	})
	return profile, nil
}

// Snapshot devuelve una copia del estado actual.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registra un observador del estado; devuelve la funcion de
// cancelacion.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, stateSubscriber{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subs {
			if sub.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				break
			}
		}
	}
}

// RecordError es el canal de errores compartido con SessionStore y
// Reconciler: deja el mensaje en el estado sin interrumpir la fase.
func (m *Manager) RecordError(err error) {
	if err == nil {
		return
	}
	m.setState(func(st *State) {
		st.Err = err.Error()
	})
}

func (m *Manager) beginOp() {
	m.setState(func(st *State) {
		st.Loading = true
		st.Err = ""
	})
}

func (m *Manager) endOp(err error) {
	m.setState(func(st *State) {
		st.Loading = false
		if err != nil {
			st.Err = err.Error()
		}
	})
}

func (m *Manager) setState(mutate func(*State)) {
	m.mu.Lock()
	mutate(&m.state)
	snapshot := m.state
	subs := make([]stateSubscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}
