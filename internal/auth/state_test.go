package auth

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"deepwork-api/internal/domain"
	"deepwork-api/internal/identity"
)

func newTestManager(provider identity.Provider, repo *mockProfileRepo) *Manager {
	logger := zap.NewNop()
	var manager *Manager
	onError := func(err error) {
		if manager != nil {
			manager.RecordError(err)
		}
	}
	store := NewSessionStore(logger, provider, onError)
	rec := NewReconciler(logger, repo, nil, onError)
	facade := NewFacade(logger, provider, repo)
	manager = NewManager(logger, store, rec, facade)
	return manager
}

func TestManagerStartAnonymous(t *testing.T) {
	provider := &mockProvider{}
	manager := newTestManager(provider, newMockProfileRepo())
	defer manager.Close()

	manager.Start(context.Background())

	st := manager.Snapshot()
	if st.Phase != PhaseAnonymous {
		t.Fatalf("expected anonymous, got %s", st.Phase)
	}
	if st.Loading {
		t.Fatal("expected loading cleared")
	}
	if st.Session != nil || st.Profile != nil {
		t.Fatal("expected no session or profile")
	}
}

func TestManagerStartWithPersistedSession(t *testing.T) {
	provider := &mockProvider{session: &domain.Session{Subject: "u1", Email: "a@b.com"}}
	repo := newMockProfileRepo()
	manager := newTestManager(provider, repo)
	defer manager.Close()

	manager.Start(context.Background())

	st := manager.Snapshot()
	if st.Phase != PhaseAuthenticated {
		t.Fatalf("expected authenticated, got %s", st.Phase)
	}
	if st.Profile == nil || st.Profile.ID != "u1" || st.Profile.Email != "a@b.com" {
		t.Fatalf("expected reconciled profile, got %+v", st.Profile)
	}
	if repo.inserted != 1 {
		t.Fatalf("expected profile row inserted, got %d", repo.inserted)
	}
}

func TestManagerSignInTransitionsViaChangeNotification(t *testing.T) {
	provider := &mockProvider{}
	repo := newMockProfileRepo()
	manager := newTestManager(provider, repo)
	defer manager.Close()

	manager.Start(context.Background())

	if err := manager.SignIn(context.Background(), "a@b.com", "secret123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := manager.Snapshot()
	if st.Phase != PhaseAuthenticated {
		t.Fatalf("expected authenticated after change notification, got %s", st.Phase)
	}
	if st.Profile == nil || st.Profile.ID != "u1" {
		t.Fatalf("expected profile for u1, got %+v", st.Profile)
	}
	if st.Loading {
		t.Fatal("expected loading cleared after sign in")
	}
}

func TestManagerSignInWithoutNotificationStaysPending(t *testing.T) {
	// Un proveedor que confirma la llamada pero aun no emite el cambio:
	// el Manager no debe fijar Ready por su cuenta.
	provider := &silentProvider{}
	manager := newTestManager(provider, newMockProfileRepo())
	defer manager.Close()

	manager.Start(context.Background())

	if err := manager.SignIn(context.Background(), "a@b.com", "secret123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := manager.Snapshot()
	if st.Phase == PhaseAuthenticated {
		t.Fatal("sign in must not transition to authenticated without a change notification")
	}
}

type silentProvider struct{ mockProvider }

func (s *silentProvider) SignIn(_ context.Context, _, _ string) error { return nil }

func TestManagerSignOutClearsProfile(t *testing.T) {
	provider := &mockProvider{session: &domain.Session{Subject: "u1", Email: "a@b.com"}}
	manager := newTestManager(provider, newMockProfileRepo())
	defer manager.Close()

	manager.Start(context.Background())
	if manager.Snapshot().Phase != PhaseAuthenticated {
		t.Fatal("precondition: expected authenticated")
	}

	if err := manager.SignOut(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := manager.Snapshot()
	if st.Phase != PhaseAnonymous {
		t.Fatalf("expected anonymous after sign out, got %s", st.Phase)
	}
	if st.Profile != nil || st.Session != nil {
		t.Fatal("expected profile and session cleared")
	}
}

func TestManagerCapturesAuthError(t *testing.T) {
	provider := &mockProvider{signInErr: errors.New("invalid credentials")}
	manager := newTestManager(provider, newMockProfileRepo())
	defer manager.Close()

	manager.Start(context.Background())

	err := manager.SignIn(context.Background(), "a@b.com", "wrong")
	if err == nil {
		t.Fatal("expected error returned to caller")
	}

	st := manager.Snapshot()
	if st.Err != "invalid credentials" {
		t.Fatalf("expected error captured in state, got %q", st.Err)
	}
	if st.Phase != PhaseAnonymous {
		t.Fatalf("expected phase unchanged, got %s", st.Phase)
	}
	if st.Loading {
		t.Fatal("expected loading cleared after failed op")
	}
}

func TestManagerUpdateProfileReplacesSlot(t *testing.T) {
	provider := &mockProvider{session: &domain.Session{Subject: "u1", Email: "a@b.com"}}
	repo := newMockProfileRepo()
	manager := newTestManager(provider, repo)
	defer manager.Close()

	manager.Start(context.Background())

	name := "Nuevo Nombre"
	if _, err := manager.UpdateProfile(context.Background(), domain.ProfileUpdate{FullName: &name}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := manager.Snapshot()
	if st.Profile == nil || st.Profile.FullName == nil || *st.Profile.FullName != name {
		t.Fatalf("expected profile slot replaced, got %+v", st.Profile)
	}
}

func TestManagerUpdateProfileWithoutSession(t *testing.T) {
	provider := &mockProvider{}
	manager := newTestManager(provider, newMockProfileRepo())
	defer manager.Close()

	manager.Start(context.Background())

	_, err := manager.UpdateProfile(context.Background(), domain.ProfileUpdate{})
	if err == nil {
		t.Fatal("expected error without session")
	}
	if manager.Snapshot().Err != "No user logged in" {
		t.Fatalf("expected error captured, got %q", manager.Snapshot().Err)
	}
}

func TestManagerSubscribeAndUnsubscribe(t *testing.T) {
	provider := &mockProvider{}
	manager := newTestManager(provider, newMockProfileRepo())
	defer manager.Close()

	var notified int
	unsub := manager.Subscribe(func(State) { notified++ })

	manager.Start(context.Background())
	if notified == 0 {
		t.Fatal("expected notifications during start")
	}

	seen := notified
	unsub()
	_ = manager.SignIn(context.Background(), "a@b.com", "secret123")
	if notified != seen {
		t.Fatal("expected no notifications after unsubscribe")
	}
}
