package session

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// CookieStore is a TokenStore backed by the cookies of a single request
// exchange. Writes become visible to the request-time gate on the very next
// request, which is what lets the gate stay synchronous and cookie-only.
//
// A CookieStore is scoped to one *fiber.Ctx and must not outlive it.
type CookieStore struct {
	ctx    *fiber.Ctx
	domain string
	secure bool
	ttl    time.Duration
}

// CookieStoreOption customizes a CookieStore.
type CookieStoreOption func(*CookieStore)

// WithCookieDomain sets the cookie domain attribute.
func WithCookieDomain(domain string) CookieStoreOption {
	return func(s *CookieStore) {
		s.domain = domain
	}
}

// WithCookieSecure toggles the Secure attribute. Defaults to true.
func WithCookieSecure(secure bool) CookieStoreOption {
	return func(s *CookieStore) {
		s.secure = secure
	}
}

// WithCookieTTL sets how long credential cookies live. Defaults to 24h.
func WithCookieTTL(ttl time.Duration) CookieStoreOption {
	return func(s *CookieStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewCookieStore binds a TokenStore to the cookies of the given request.
func NewCookieStore(c *fiber.Ctx, opts ...CookieStoreOption) *CookieStore {
	s := &CookieStore{
		ctx:    c,
		secure: true,
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set writes the role's credential cookies on the response.
func (s *CookieStore) Set(_ context.Context, role Role, creds Credentials) error {
	s.write(accessTokenKey(role), creds.AccessToken, s.ttl)
	s.write(userRoleKey(role), string(role), s.ttl)
	if creds.RefreshToken != "" {
		s.write(refreshTokenKey(role), creds.RefreshToken, s.ttl)
	}
	return nil
}

// Get reads the role's credentials from the request cookies.
func (s *CookieStore) Get(_ context.Context, role Role) (Credentials, bool) {
	token := s.ctx.Cookies(accessTokenKey(role))
	if token == "" {
		return Credentials{}, false
	}
	return Credentials{
		AccessToken:  token,
		RefreshToken: s.ctx.Cookies(refreshTokenKey(role)),
		Role:         role,
	}, true
}

// Clear expires the role's credential cookies only, leaving other roles
// untouched.
func (s *CookieStore) Clear(_ context.Context, role Role) error {
	s.expire(accessTokenKey(role))
	s.expire(refreshTokenKey(role))
	s.expire(userRoleKey(role))
	return nil
}

// ClearAll expires every role's credential cookies.
func (s *CookieStore) ClearAll(ctx context.Context) error {
	for _, role := range AllRoles() {
		if err := s.Clear(ctx, role); err != nil {
			return err
		}
	}
	return nil
}

func (s *CookieStore) write(name, val string, ttl time.Duration) {
	s.ctx.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    val,
		Domain:   s.domain,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: "Lax",
	})
}

func (s *CookieStore) expire(name string) {
	s.ctx.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Domain:   s.domain,
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: "Lax",
	})
}
