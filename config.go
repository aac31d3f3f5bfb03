package session

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config carries everything the subsystem needs at startup: where the
// identity service lives, how cookies are written, and the access-control
// policy table. It is configuration, not per-request state.
type Config struct {
	BaseURL               string            `koanf:"base_url"`
	Namespaces            map[string]string `koanf:"namespaces"`
	CookieDomain          string            `koanf:"cookie_domain"`
	CookieSecure          bool              `koanf:"cookie_secure"`
	CookieTTLHours        int               `koanf:"cookie_ttl_hours"`
	ResendCooldownSeconds int               `koanf:"resend_cooldown_seconds"`
	StorePath             string            `koanf:"store_path"`
	Policy                PolicyConfig      `koanf:"policy"`
}

// PolicyConfig is the on-disk shape of the access-control table.
type PolicyConfig struct {
	Public    []string               `koanf:"public"`
	Protected []ProtectedRouteConfig `koanf:"protected"`
}

// ProtectedRouteConfig maps one protected prefix onto allowed role names.
type ProtectedRouteConfig struct {
	Prefix string   `koanf:"prefix"`
	Roles  []string `koanf:"roles"`
}

// DefaultConfig returns a working configuration against a local identity
// service with the default job-board policy table.
func DefaultConfig() *Config {
	policy := DefaultPolicy()

	protected := make([]ProtectedRouteConfig, 0, len(policy.Protected))
	for _, rule := range policy.Protected {
		names := make([]string, 0, len(rule.Roles))
		for _, role := range rule.Roles {
			names = append(names, string(role))
		}
		protected = append(protected, ProtectedRouteConfig{Prefix: rule.Prefix, Roles: names})
	}

	return &Config{
		BaseURL: "http://localhost:4000",
		Namespaces: map[string]string{
			string(RoleJobSeeker): "job-seeker",
			string(RoleEmployer):  "employer",
			string(RoleAdmin):     "admin",
		},
		CookieSecure:          true,
		CookieTTLHours:        24,
		ResendCooldownSeconds: DefaultResendCooldown,
		StorePath:             "file:session.db?cache=shared",
		Policy: PolicyConfig{
			Public:    policy.Public,
			Protected: protected,
		},
	}
}

// LoadConfig reads a YAML file over the defaults. Values absent from the
// file keep their default.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load session config")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse session config")
	}

	return cfg, nil
}

// Endpoints materializes the identity service mapping.
func (c *Config) Endpoints() Endpoints {
	endpoints := DefaultEndpoints(c.BaseURL)
	for name, ns := range c.Namespaces {
		if role, ok := ParseRole(name); ok {
			endpoints.Namespaces[role] = ns
		}
	}
	return endpoints
}

// PolicyTable materializes the access-control table, dropping entries whose
// role names fall outside the closed role set.
func (c *Config) PolicyTable() *Policy {
	policy := &Policy{Public: c.Policy.Public}
	for _, entry := range c.Policy.Protected {
		roles := make([]Role, 0, len(entry.Roles))
		for _, name := range entry.Roles {
			if role, ok := ParseRole(name); ok {
				roles = append(roles, role)
			}
		}
		if entry.Prefix != "" && len(roles) > 0 {
			policy.Protected = append(policy.Protected, PolicyRule{Prefix: entry.Prefix, Roles: roles})
		}
	}
	return policy
}

// CookieTTL returns the credential cookie lifetime.
func (c *Config) CookieTTL() time.Duration {
	if c.CookieTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.CookieTTLHours) * time.Hour
}

// CookieOptions returns the CookieStore options for this configuration.
func (c *Config) CookieOptions() []CookieStoreOption {
	return []CookieStoreOption{
		WithCookieDomain(c.CookieDomain),
		WithCookieSecure(c.CookieSecure),
		WithCookieTTL(c.CookieTTL()),
	}
}
