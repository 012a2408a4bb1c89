package identity

import (
	"testing"
	"time"

	"deepwork-api/internal/domain"
)

func testAccount() domain.Account {
	return domain.Account{
		ID:        "11111111-1111-1111-1111-111111111111",
		Email:     "a@b.com",
		FullName:  "Ada Lovelace",
		CreatedAt: time.Now().UTC(),
	}
}

func TestTokenServiceIssueAndParse(t *testing.T) {
	svc := NewTokenService("secret", time.Minute, time.Hour)

	sess, err := svc.IssueSession(testAccount())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Subject != "11111111-1111-1111-1111-111111111111" {
		t.Fatalf("unexpected subject %q", sess.Subject)
	}
	if sess.FullName == nil || *sess.FullName != "Ada Lovelace" {
		t.Fatal("expected full name claim on session")
	}

	claims, err := svc.ParseAccessToken(sess.AccessToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != sess.Subject || claims.Email != "a@b.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.TokenType != "access" {
		t.Fatalf("unexpected token type %q", claims.TokenType)
	}
}

func TestTokenServiceRejectsRefreshAsAccess(t *testing.T) {
	svc := NewTokenService("secret", time.Minute, time.Hour)
	sess, err := svc.IssueSession(testAccount())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ParseAccessToken(sess.RefreshToken); err == nil {
		t.Fatal("expected refresh token rejected as access token")
	}
}

func TestTokenServiceRefreshRotation(t *testing.T) {
	svc := NewTokenService("secret", time.Minute, time.Hour)
	sess, err := svc.IssueSession(testAccount())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refreshed, err := svc.RefreshSession(sess.RefreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refreshed.Subject != sess.Subject {
		t.Fatal("expected same subject after refresh")
	}

	// El jti consumido queda revocado.
	if _, err := svc.RefreshSession(sess.RefreshToken); err == nil {
		t.Fatal("expected second refresh with same token to fail")
	}
}

func TestTokenServiceRevokeRefresh(t *testing.T) {
	svc := NewTokenService("secret", time.Minute, time.Hour)
	sess, err := svc.IssueSession(testAccount())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.RevokeRefresh(sess.RefreshToken); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.RefreshSession(sess.RefreshToken); err == nil {
		t.Fatal("expected refresh after revoke to fail")
	}
}

func TestTokenServiceWrongSecret(t *testing.T) {
	svc := NewTokenService("secret", time.Minute, time.Hour)
	other := NewTokenService("other", time.Minute, time.Hour)

	sess, err := svc.IssueSession(testAccount())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := other.ParseAccessToken(sess.AccessToken); err == nil {
		t.Fatal("expected token signed with another secret to fail")
	}
}

func TestTokenServiceEmptySecret(t *testing.T) {
	svc := NewTokenService("", time.Minute, time.Hour)
	if _, err := svc.IssueSession(testAccount()); err == nil {
		t.Fatal("expected error without secret")
	}
}
