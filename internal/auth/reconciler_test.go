package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"deepwork-api/internal/domain"
)

type mockProfileRepo struct {
	mu       sync.Mutex
	rows     map[string][]domain.Profile
	failGet  error
	failIns  error
	inserted int
	updated  int
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{rows: make(map[string][]domain.Profile)}
}

func (m *mockProfileRepo) GetAllByID(_ context.Context, id string) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	rows := m.rows[id]
	out := make([]domain.Profile, len(rows))
	copy(out, rows)
	return out, nil
}

func (m *mockProfileRepo) Insert(_ context.Context, profile domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIns != nil {
		return m.failIns
	}
	m.inserted++
	m.rows[profile.ID] = append(m.rows[profile.ID], profile)
	return nil
}

func (m *mockProfileRepo) Update(_ context.Context, id string, upd domain.ProfileUpdate, updatedAt time.Time) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[id]
	if len(rows) == 0 {
		return domain.Profile{}, pgx.ErrNoRows
	}
	p := rows[0]
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
	p.UpdatedAt = updatedAt
	m.rows[id][0] = p
	m.updated++
	return p, nil
}

func (m *mockProfileRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[id]
	if len(rows) == 0 {
		return pgx.ErrNoRows
	}
	m.rows[id][0].LastLogin = &at
	return nil
}

type recordedMetrics struct {
	mu          sync.Mutex
	resolutions map[string]int
	anomalies   int
}

func newRecordedMetrics() *recordedMetrics {
	return &recordedMetrics{resolutions: make(map[string]int)}
}

func (m *recordedMetrics) RecordResolution(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions[outcome]++
}

func (m *recordedMetrics) RecordAnomaly() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.anomalies++
}

func testSession() *domain.Session {
	name := "Ada Lovelace"
	return &domain.Session{
		Subject:  "u1",
		Email:    "a@b.com",
		FullName: &name,
	}
}

func TestReconcilerCreatesMissingProfile(t *testing.T) {
	repo := newMockProfileRepo()
	rec := NewReconciler(zap.NewNop(), repo, nil, nil)

	profile := rec.Resolve(context.Background(), testSession())

	if profile.ID != "u1" {
		t.Fatalf("expected id u1, got %q", profile.ID)
	}
	if profile.Email != "a@b.com" {
		t.Fatalf("expected email a@b.com, got %q", profile.Email)
	}
	if profile.FullName == nil || *profile.FullName != "Ada Lovelace" {
		t.Fatalf("expected full name from claims, got %v", profile.FullName)
	}
	if profile.LastLogin == nil {
		t.Fatal("expected last_login set on creation")
	}
	if profile.TimeZone != nil || profile.Preferences != nil {
		t.Fatal("expected time_zone and preferences unset on creation")
	}
	if repo.inserted != 1 {
		t.Fatalf("expected 1 insert, got %d", repo.inserted)
	}
}

func TestReconcilerIdempotent(t *testing.T) {
	repo := newMockProfileRepo()
	rec := NewReconciler(zap.NewNop(), repo, nil, nil)

	first := rec.Resolve(context.Background(), testSession())
	second := rec.Resolve(context.Background(), testSession())

	if repo.inserted != 1 {
		t.Fatalf("expected a single insert across two calls, got %d", repo.inserted)
	}
	if len(repo.rows["u1"]) != 1 {
		t.Fatalf("expected a single row, got %d", len(repo.rows["u1"]))
	}
	if first.ID != second.ID || !first.CreatedAt.Equal(second.CreatedAt) {
		t.Fatal("expected second call to return the row created by the first")
	}
}

func TestReconcilerQueryFailureDegrades(t *testing.T) {
	repo := newMockProfileRepo()
	repo.failGet = errors.New("network down")

	var reported error
	rec := NewReconciler(zap.NewNop(), repo, nil, func(err error) { reported = err })

	profile := rec.Resolve(context.Background(), testSession())

	if profile.ID != "u1" || profile.Email != "a@b.com" {
		t.Fatalf("expected fallback profile from session claims, got %+v", profile)
	}
	if profile.FullName != nil || profile.AvatarURL != nil || profile.Preferences != nil ||
		profile.TimeZone != nil || profile.LastLogin != nil {
		t.Fatal("expected all optional fields nil on fallback")
	}
	if reported == nil {
		t.Fatal("expected error reported on shared channel")
	}
}

func TestReconcilerInsertFailureDegrades(t *testing.T) {
	repo := newMockProfileRepo()
	repo.failIns = errors.New("insert rejected")
	rec := NewReconciler(zap.NewNop(), repo, nil, nil)

	profile := rec.Resolve(context.Background(), testSession())

	if profile.ID != "u1" || profile.Email != "a@b.com" {
		t.Fatalf("expected fallback profile, got %+v", profile)
	}
}

func TestReconcilerAnomalyTakesFirstRow(t *testing.T) {
	repo := newMockProfileRepo()
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.rows["u1"] = []domain.Profile{
		{ID: "u1", Email: "first@b.com", CreatedAt: older},
		{ID: "u1", Email: "second@b.com", CreatedAt: older.Add(time.Hour)},
	}
	metrics := newRecordedMetrics()
	rec := NewReconciler(zap.NewNop(), repo, metrics, nil)

	profile := rec.Resolve(context.Background(), testSession())

	if profile.Email != "first@b.com" {
		t.Fatalf("expected first row, got %q", profile.Email)
	}
	if metrics.anomalies != 1 {
		t.Fatalf("expected anomaly recorded, got %d", metrics.anomalies)
	}
	if len(repo.rows["u1"]) != 2 {
		t.Fatal("expected anomaly left uncorrected")
	}
}
