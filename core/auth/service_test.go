package auth

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"musiclib/core/apperr"
	"musiclib/db/dbtest"
	"musiclib/model"
	"musiclib/repository"

	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	passwordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (f *fakeRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.revoked == nil {
		f.revoked = map[string]time.Duration{}
	}
	f.revoked[id] = ttl
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[id]
	return ok, nil
}

func newTestService(t *testing.T) (*Service, *fakeRevoker) {
	t.Helper()
	revoker := &fakeRevoker{}
	users := repository.NewGormUserRepository(dbtest.Open(t))
	return NewService(users, NewTokenManager("test-secret", time.Hour), revoker), revoker
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sess, err := svc.Register(ctx, RegisterInput{Email: "  Ada@Example.COM ", Password: "secret1", Name: " Ada "})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess.User.Email != "ada@example.com" || sess.User.Name != "Ada" {
		t.Errorf("user = %+v", sess.User)
	}
	if sess.AccessToken == "" || strings.Contains(sess.User.Password, "secret1") {
		t.Error("expected a token and a hashed password")
	}

	_, err = svc.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "another", Name: "Ada"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate register: got %v, want Conflict", err)
	}

	if _, err := svc.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "secret1"}); err != nil {
		t.Errorf("Login: %v", err)
	}
	for _, in := range []LoginInput{
		{Email: "ada@example.com", Password: "wrong!"},
		{Email: "nobody@example.com", Password: "secret1"},
	} {
		_, err := svc.Login(ctx, in)
		if !errors.Is(err, apperr.ErrUnauthorized) || err.Error() != "Invalid credentials" {
			t.Errorf("Login(%s) = %v, want Invalid credentials", in.Email, err)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	tests := []RegisterInput{
		{Email: "not-an-email", Password: "secret1", Name: "Ada"},
		{Email: "a@b.co", Password: "123", Name: "Ada"},
		{Email: "a@b.co", Password: "secret1", Name: " A "},
	}
	for _, in := range tests {
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("Register(%+v) = %v, want Invalid", in, err)
		}
	}
}

func TestAuthenticateAndLogout(t *testing.T) {
	ctx := context.Background()
	svc, revoker := newTestService(t)
	sess, err := svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "secret1", Name: "Ada"})
	if err != nil {
		t.Fatal(err)
	}

	claims, err := svc.Authenticate(ctx, sess.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if claims.UserID() != sess.User.ID || claims.Email != "a@b.co" {
		t.Errorf("claims = %+v", claims)
	}

	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if ttl := revoker.revoked[claims.ID]; ttl <= 0 || ttl > time.Hour {
		t.Errorf("revocation ttl = %v", ttl)
	}
	if _, err := svc.Authenticate(ctx, sess.AccessToken); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("revoked token accepted: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "garbage"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("garbage token: %v", err)
	}
}

func TestTokenExpiryAndAlgorithm(t *testing.T) {
	m := NewTokenManager("k", time.Minute)
	base := time.Now()
	m.now = func() time.Time { return base }
	token, _, err := m.Generate(&model.User{ID: "u1", Email: "a@b.co"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Parse(token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := m.Parse(token); err == nil {
		t.Error("expired token accepted")
	}

	other := NewTokenManager("different", time.Minute)
	if _, err := other.Parse(token); err == nil {
		t.Error("token signed with another secret accepted")
	}
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	sess, err := svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "secret1", Name: "Ada"})
	if err != nil {
		t.Fatal(err)
	}

	avatar := "https://img/ada.png"
	user, err := svc.UpdateProfile(ctx, sess.User.ID, ProfileInput{Avatar: &avatar})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.Avatar != avatar || user.Name != "Ada" {
		t.Errorf("after update: %+v", user)
	}

	if _, err := svc.Profile(ctx, "ghost"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("Profile(ghost) = %v, want Unauthorized", err)
	}
}
