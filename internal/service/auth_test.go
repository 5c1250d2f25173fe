package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/cardkeeper/internal/errs"
	"github.com/and161185/cardkeeper/internal/limiter"
	"github.com/and161185/cardkeeper/internal/model"
	"github.com/and161185/cardkeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

type fakeUsers struct {
	byEmail map[string]*model.User

	createErr error
	getErr    error
	byIDCalls int
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*model.User{}
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return errs.ErrConflict
	}
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.byIDCalls++
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successCalls int
	failureCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	return l.allowOK, 0, l.allowErr
}

func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}

func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, time.Minute, l.failErr
}

var testKey = []byte("test-signing-key")

func newAuth(t *testing.T, users *fakeUsers, lim *fakeLimiter) *AuthServiceImpl {
	t.Helper()
	s, err := NewAuthService(users, testKey, time.Minute, lim, 16)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return s
}

func TestNewAuthService_EmptyKey(t *testing.T) {
	if _, err := NewAuthService(&fakeUsers{}, nil, time.Minute, &fakeLimiter{}, 0); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestRegister_Validation(t *testing.T) {
	s := newAuth(t, &fakeUsers{}, &fakeLimiter{allowOK: true})
	ctx := context.Background()

	cases := []struct {
		name, email, pwd string
		role             model.Role
	}{
		{"bad email", "not-an-email", "password1", model.RoleMember},
		{"short password", "a@b.io", "short", model.RoleMember},
		{"unknown role", "a@b.io", "password1", model.RoleUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Register(ctx, tc.email, tc.pwd, tc.role)
			if !errors.Is(err, errs.ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
		})
	}
}

func TestRegister_NormalizesAndRejectsDuplicate(t *testing.T) {
	users := &fakeUsers{}
	s := newAuth(t, users, &fakeLimiter{allowOK: true})
	ctx := context.Background()

	id, err := s.Register(ctx, "  Alice@Example.COM ", "password1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	u := users.byEmail["alice@example.com"]
	if u == nil || u.ID != id || u.Role != model.RoleAdmin {
		t.Fatalf("stored user mismatch: %+v", u)
	}
	if u.PwdHash == "" || u.PwdHash == "password1" {
		t.Fatalf("password not hashed: %q", u.PwdHash)
	}

	if _, err := s.Register(ctx, "alice@example.com", "password2", model.RoleMember); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("rate limited before lookup", func(t *testing.T) {
		users := &fakeUsers{getErr: errors.New("must not be called")}
		s := newAuth(t, users, &fakeLimiter{allowOK: false})
		if _, err := s.SignIn(ctx, "a@b.io", "password1", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
			t.Fatalf("want ErrRateLimited, got %v", err)
		}
	})

	t.Run("limiter error", func(t *testing.T) {
		boom := errors.New("db down")
		s := newAuth(t, &fakeUsers{}, &fakeLimiter{allowErr: boom})
		if _, err := s.SignIn(ctx, "a@b.io", "password1", "ip"); !errors.Is(err, boom) {
			t.Fatalf("want boom, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		lim := &fakeLimiter{allowOK: true}
		s := newAuth(t, &fakeUsers{}, lim)
		if _, err := s.SignIn(ctx, "nobody@b.io", "password1", "ip"); !errors.Is(err, errs.ErrUnauthorized) {
			t.Fatalf("want ErrUnauthorized, got %v", err)
		}
		if lim.failureCalls != 1 {
			t.Fatalf("failure not recorded")
		}
	})

	t.Run("wrong password locks", func(t *testing.T) {
		users := &fakeUsers{}
		lim := &fakeLimiter{allowOK: true, failBlocked: true}
		s := newAuth(t, users, lim)
		if _, err := s.Register(ctx, "a@b.io", "password1", model.RoleMember); err != nil {
			t.Fatal(err)
		}
		if _, err := s.SignIn(ctx, "a@b.io", "wrong-pass", "ip"); !errors.Is(err, errs.ErrRateLimited) {
			t.Fatalf("want ErrRateLimited, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		users := &fakeUsers{}
		lim := &fakeLimiter{allowOK: true}
		s := newAuth(t, users, lim)
		id, err := s.Register(ctx, "a@b.io", "password1", model.RoleMember)
		if err != nil {
			t.Fatal(err)
		}
		tok, err := s.SignIn(ctx, "A@B.io", "password1", "ip")
		if err != nil {
			t.Fatalf("SignIn: %v", err)
		}
		if tok.AccessToken == "" || !tok.ExpiresAt.After(time.Now()) {
			t.Fatalf("bad tokens: %+v", tok)
		}
		if lim.successCalls != 1 {
			t.Fatalf("success not recorded")
		}

		c, err := s.Authenticate(ctx, tok.AccessToken)
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if c.ID != id || c.Role != model.RoleMember {
			t.Fatalf("caller mismatch: %+v", c)
		}
		if users.byIDCalls != 0 {
			t.Fatalf("expected cache hit, got %d lookups", users.byIDCalls)
		}
	})
}

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	users := &fakeUsers{}
	s := newAuth(t, users, &fakeLimiter{allowOK: true})
	id, err := s.Register(ctx, "m@b.io", "password1", model.RoleMember)
	if err != nil {
		t.Fatal(err)
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	t.Run("loads user on cache miss", func(t *testing.T) {
		tok := signed(t, jwt.SigningMethodHS256, testKey, jwt.RegisteredClaims{Subject: id.String(), ExpiresAt: future})
		c, err := s.Authenticate(ctx, tok)
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if c.ID != id || users.byIDCalls != 1 {
			t.Fatalf("caller %+v, lookups %d", c, users.byIDCalls)
		}
		if _, err := s.Authenticate(ctx, tok); err != nil || users.byIDCalls != 1 {
			t.Fatalf("second call should hit cache: err=%v lookups=%d", err, users.byIDCalls)
		}
	})

	t.Run("cached caller expires after access ttl", func(t *testing.T) {
		base := time.Now()
		s.now = func() time.Time { return base }
		t.Cleanup(func() { s.now = time.Now })
		s.callers.Purge()
		users.byIDCalls = 0

		tok := signed(t, jwt.SigningMethodHS256, testKey, jwt.RegisteredClaims{Subject: id.String(), ExpiresAt: future})
		if _, err := s.Authenticate(ctx, tok); err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		users.byEmail["m@b.io"].Role = model.RoleAdmin

		s.now = func() time.Time { return base.Add(s.accessTTL - time.Second) }
		if c, err := s.Authenticate(ctx, tok); err != nil || c.Role != model.RoleMember || users.byIDCalls != 1 {
			t.Fatalf("want cached member: caller %+v err=%v lookups=%d", c, err, users.byIDCalls)
		}

		s.now = func() time.Time { return base.Add(s.accessTTL) }
		c, err := s.Authenticate(ctx, tok)
		if err != nil || c.Role != model.RoleAdmin || users.byIDCalls != 2 {
			t.Fatalf("want reloaded admin: caller %+v err=%v lookups=%d", c, err, users.byIDCalls)
		}
		users.byEmail["m@b.io"].Role = model.RoleMember
		s.callers.Purge()
	})

	bad := map[string]string{
		"garbage":   "not.a.token",
		"expired":   signed(t, jwt.SigningMethodHS256, testKey, jwt.RegisteredClaims{Subject: id.String(), ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}),
		"no exp":    signed(t, jwt.SigningMethodHS256, testKey, jwt.RegisteredClaims{Subject: id.String()}),
		"wrong key": signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Subject: id.String(), ExpiresAt: future}),
		"wrong alg": signed(t, jwt.SigningMethodHS512, testKey, jwt.RegisteredClaims{Subject: id.String(), ExpiresAt: future}),
		"bad sub":   signed(t, jwt.SigningMethodHS256, testKey, jwt.RegisteredClaims{Subject: "nope", ExpiresAt: future}),
		"unknown":   signed(t, jwt.SigningMethodHS256, testKey, jwt.RegisteredClaims{Subject: uuid.Must(uuid.NewV4()).String(), ExpiresAt: future}),
	}
	for name, tok := range bad {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Authenticate(ctx, tok); !errors.Is(err, errs.ErrUnauthorized) {
				t.Fatalf("want ErrUnauthorized, got %v", err)
			}
		})
	}
}
