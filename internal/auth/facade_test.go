package auth

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"deepwork-api/internal/domain"
	"deepwork-api/internal/identity"
)

type mockProvider struct {
	session      *domain.Session
	signUpErr    error
	signInErr    error
	signOutErr   error
	resetErr     error
	getErr       error
	subs         []func(identity.Change)
	resetCalls   []string
	signOutCalls int
}

func (m *mockProvider) SignUp(_ context.Context, email, _, fullName string) error {
	if m.signUpErr != nil {
		return m.signUpErr
	}
	name := fullName
	m.session = &domain.Session{Subject: "u1", Email: email, FullName: &name}
	m.emit(identity.Change{Event: identity.EventSignedIn, Session: m.session})
	return nil
}

func (m *mockProvider) SignIn(_ context.Context, email, _ string) error {
	if m.signInErr != nil {
		return m.signInErr
	}
	m.session = &domain.Session{Subject: "u1", Email: email}
	m.emit(identity.Change{Event: identity.EventSignedIn, Session: m.session})
	return nil
}

func (m *mockProvider) SignOut(_ context.Context) error {
	m.signOutCalls++
	if m.signOutErr != nil {
		return m.signOutErr
	}
	m.session = nil
	m.emit(identity.Change{Event: identity.EventSignedOut, Session: nil})
	return nil
}

func (m *mockProvider) ResetPassword(_ context.Context, email string) error {
	m.resetCalls = append(m.resetCalls, email)
	return m.resetErr
}

func (m *mockProvider) GetSession(_ context.Context) (*domain.Session, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.session, nil
}

func (m *mockProvider) Subscribe(fn func(identity.Change)) func() {
	m.subs = append(m.subs, fn)
	return func() { m.subs = nil }
}

func (m *mockProvider) emit(ch identity.Change) {
	for _, fn := range m.subs {
		fn(ch)
	}
}

func TestFacadeSignInWrapsProviderError(t *testing.T) {
	provider := &mockProvider{signInErr: errors.New("invalid credentials")}
	facade := NewFacade(zap.NewNop(), provider, newMockProfileRepo())

	err := facade.SignIn(context.Background(), "a@b.com", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T", err)
	}
	if authErr.Message != "invalid credentials" {
		t.Fatalf("expected provider message preserved, got %q", authErr.Message)
	}
	if authErr.Op != "sign_in" {
		t.Fatalf("unexpected op %q", authErr.Op)
	}
}

func TestFacadeResetPasswordUnregisteredSucceeds(t *testing.T) {
	provider := &mockProvider{}
	facade := NewFacade(zap.NewNop(), provider, newMockProfileRepo())

	if err := facade.ResetPassword(context.Background(), "unregistered@example.com"); err != nil {
		t.Fatalf("expected success for unregistered email, got %v", err)
	}
	if len(provider.resetCalls) != 1 {
		t.Fatalf("expected reset requested once, got %d", len(provider.resetCalls))
	}
}

func TestFacadeUpdateProfileCreatesMergedRow(t *testing.T) {
	name := "From Claims"
	provider := &mockProvider{
		session: &domain.Session{Subject: "u1", Email: "a@b.com", FullName: &name},
	}
	repo := newMockProfileRepo()
	facade := NewFacade(zap.NewNop(), provider, repo)

	tz := "America/Bogota"
	updatedName := "From Update"
	profile, err := facade.UpdateProfile(context.Background(), "u1", domain.ProfileUpdate{
		FullName: &updatedName,
		TimeZone: &tz,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.ID != "u1" || profile.Email != "a@b.com" {
		t.Fatalf("expected synthesized defaults, got %+v", profile)
	}
	if profile.FullName == nil || *profile.FullName != "From Update" {
		t.Fatal("expected supplied full name to win over synthesized default")
	}
	if profile.TimeZone == nil || *profile.TimeZone != tz {
		t.Fatal("expected supplied time zone applied")
	}
	if profile.LastLogin == nil {
		t.Fatal("expected synthesized last_login default")
	}
	if repo.inserted != 1 {
		t.Fatalf("expected insert, got %d", repo.inserted)
	}
}

func TestFacadeUpdateProfileUpdatesExistingRow(t *testing.T) {
	provider := &mockProvider{session: &domain.Session{Subject: "u1", Email: "a@b.com"}}
	repo := newMockProfileRepo()
	rec := NewReconciler(zap.NewNop(), repo, nil, nil)
	rec.Resolve(context.Background(), &domain.Session{Subject: "u1", Email: "a@b.com"})

	facade := NewFacade(zap.NewNop(), provider, repo)
	theme := domain.Preferences{Theme: "dark", Notifications: true}
	profile, err := facade.UpdateProfile(context.Background(), "u1", domain.ProfileUpdate{Preferences: &theme})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Preferences == nil || profile.Preferences.Theme != "dark" {
		t.Fatalf("expected preferences updated, got %+v", profile.Preferences)
	}
	if repo.inserted != 1 || repo.updated != 1 {
		t.Fatalf("expected one insert and one update, got %d/%d", repo.inserted, repo.updated)
	}
}

func TestFacadeUpdateProfileNoSessionFails(t *testing.T) {
	provider := &mockProvider{}
	facade := NewFacade(zap.NewNop(), provider, newMockProfileRepo())

	_, err := facade.UpdateProfile(context.Background(), "u1", domain.ProfileUpdate{})
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}
