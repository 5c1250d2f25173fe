// Package service contains the card engine and the authentication shell around it.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"

	pkgcrypto "github.com/and161185/cardkeeper/internal/crypto"
	"github.com/and161185/cardkeeper/internal/errs"
	"github.com/and161185/cardkeeper/internal/limiter"
	"github.com/and161185/cardkeeper/internal/model"
	"github.com/and161185/cardkeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// AuthService defines account and token operations.
type AuthService interface {
	// Register creates a user with a hashed password and a fixed role.
	Register(ctx context.Context, email, password string, role model.Role) (uuid.UUID, error)
	// SignIn applies rate limiting, checks the password and issues an access token.
	SignIn(ctx context.Context, email, password, ip string) (model.Tokens, error)
	// Authenticate verifies an access token and resolves the caller it belongs to.
	Authenticate(ctx context.Context, token string) (model.Caller, error)
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
	callers   *lru.Cache // uuid.UUID -> cachedCaller
	now       func() time.Time
}

// cachedCaller expires after one access token lifetime so role changes
// and deleted accounts are picked up without a restart.
type cachedCaller struct {
	caller model.Caller
	until  time.Time
}

// NewAuthService constructs AuthService. cacheSize bounds the caller cache.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter, cacheSize int) (*AuthServiceImpl, error) {
	if len(signKey) == 0 {
		return nil, errors.New("empty signing key")
	}
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("caller cache: %w", err)
	}
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim, callers: cache, now: time.Now}, nil
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Register validates input and stores a new account.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password string, role model.Role) (uuid.UUID, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid email", errs.ErrValidation)
	}
	if len(password) < 8 {
		return uuid.Nil, fmt.Errorf("%w: password must be at least 8 characters", errs.ErrValidation)
	}
	if role != model.RoleMember && role != model.RoleAdmin {
		return uuid.Nil, fmt.Errorf("%w: unknown role", errs.ErrValidation)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	hash, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return uuid.Nil, err
	}
	u := &model.User{ID: uid, Email: email, Role: role, PwdHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		return uuid.Nil, err
	}
	return uid, nil
}

// SignIn authenticates by email and password with rate limiting by (email, ip).
func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password, ip string) (model.Tokens, error) {
	email = normalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, err
	}
	if !allowed {
		return model.Tokens{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, err
	}
	ok := false
	if u != nil {
		ok, _ = pkgcrypto.VerifyPassword(password, u.PwdHash)
	}
	if !ok {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Tokens{}, errs.ErrRateLimited
		}
		// unknown email and wrong password look the same
		return model.Tokens{}, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, email, ipHash)

	access, exp, err := s.issueAccessToken(u.ID)
	if err != nil {
		return model.Tokens{}, err
	}
	s.remember(model.Caller{ID: u.ID, Role: u.Role})
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, nil
}

// issueAccessToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) issueAccessToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}

// Authenticate verifies HS256 token and loads the caller, using the cache when possible.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (model.Caller, error) {
	id, err := s.subject(token)
	if err != nil {
		return model.Caller{}, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	if c, ok := s.cached(id); ok {
		return c, nil
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Caller{}, fmt.Errorf("%w: unknown subject", errs.ErrUnauthorized)
	}
	if err != nil {
		return model.Caller{}, err
	}
	c := model.Caller{ID: u.ID, Role: u.Role}
	s.remember(c)
	return c, nil
}

func (s *AuthServiceImpl) remember(c model.Caller) {
	s.callers.Add(c.ID, cachedCaller{caller: c, until: s.now().Add(s.accessTTL)})
}

func (s *AuthServiceImpl) cached(id uuid.UUID) (model.Caller, bool) {
	v, ok := s.callers.Get(id)
	if !ok {
		return model.Caller{}, false
	}
	e := v.(cachedCaller)
	if !s.now().Before(e.until) {
		s.callers.Remove(id)
		return model.Caller{}, false
	}
	return e.caller, true
}

func (s *AuthServiceImpl) subject(token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return uuid.Nil, errors.New("invalid token")
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.New("bad subject")
	}
	return id, nil
}
