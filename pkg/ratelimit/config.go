package ratelimit

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FlexInt is an int that also accepts numeric strings when decoded from
// YAML, since rule values commonly arrive via environment placeholders.
type FlexInt int

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *FlexInt) UnmarshalYAML(value *yaml.Node) error {
	var i int
	if err := value.Decode(&i); err == nil {
		*f = FlexInt(i)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("value %q is neither integer nor string", value.Value)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("value %q is not numeric", s)
	}
	*f = FlexInt(n)
	return nil
}

// RuleConfig holds the raw configuration of one endpoint type. Nil fields
// mean the entry is incomplete and the default rule applies.
type RuleConfig struct {
	MaxAttempts  *FlexInt `yaml:"max_attempts"`
	DecayMinutes *FlexInt `yaml:"decay_minutes"`
}

// Config is an immutable configuration snapshot for the rate limiter.
// It is passed into NewConfigManager at construction; there is no ambient
// global lookup.
type Config struct {
	Default         RuleConfig            `yaml:"default"`
	EndpointTypes   map[string]RuleConfig `yaml:"endpoint_types"`
	ProtectedRoutes []string              `yaml:"protected_routes"`
}

func flexInt(v int) *FlexInt {
	f := FlexInt(v)
	return &f
}

// DefaultConfig returns the built-in rule set: generous limits for
// authenticated traffic, a tight window for credential-sensitive
// unauthenticated endpoints.
func DefaultConfig() Config {
	return Config{
		Default: RuleConfig{MaxAttempts: flexInt(30), DecayMinutes: flexInt(1)},
		EndpointTypes: map[string]RuleConfig{
			string(EndpointPublicUnauthenticated):    {MaxAttempts: flexInt(60), DecayMinutes: flexInt(1)},
			string(EndpointProtectedUnauthenticated): {MaxAttempts: flexInt(5), DecayMinutes: flexInt(10)},
			string(EndpointPublicAuthenticated):      {MaxAttempts: flexInt(120), DecayMinutes: flexInt(1)},
			string(EndpointProtectedAuthenticated):   {MaxAttempts: flexInt(30), DecayMinutes: flexInt(1)},
		},
		ProtectedRoutes: DefaultProtectedRoutes(),
	}
}

// DefaultProtectedRoutes returns the route name patterns treated as
// sensitive when no explicit list is configured.
func DefaultProtectedRoutes() []string {
	return []string{"login", "register", "password.*", "admin.*", "payment.*"}
}

// LoadConfigFile reads a Config snapshot from a YAML file. Missing
// optional sections fall back to the built-in defaults at resolution time.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Join(ErrReadConfigFile, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Join(ErrParseConfigFile, err)
	}
	if len(cfg.ProtectedRoutes) == 0 {
		cfg.ProtectedRoutes = DefaultProtectedRoutes()
	}
	return cfg, nil
}

// EnvConfig mirrors Config as a flat environment structure, parsed with
// the application's env loader. Values out of bounds degrade to the
// default rule at resolution time like any other malformed entry.
type EnvConfig struct {
	DefaultMaxAttempts  int `env:"RATELIMIT_DEFAULT_MAX_ATTEMPTS" envDefault:"30"`
	DefaultDecayMinutes int `env:"RATELIMIT_DEFAULT_DECAY_MINUTES" envDefault:"1"`

	PublicUnauthenticatedMaxAttempts     int `env:"RATELIMIT_PUBLIC_UNAUTHENTICATED_MAX_ATTEMPTS" envDefault:"60"`
	PublicUnauthenticatedDecayMinutes    int `env:"RATELIMIT_PUBLIC_UNAUTHENTICATED_DECAY_MINUTES" envDefault:"1"`
	ProtectedUnauthenticatedMaxAttempts  int `env:"RATELIMIT_PROTECTED_UNAUTHENTICATED_MAX_ATTEMPTS" envDefault:"5"`
	ProtectedUnauthenticatedDecayMinutes int `env:"RATELIMIT_PROTECTED_UNAUTHENTICATED_DECAY_MINUTES" envDefault:"10"`
	PublicAuthenticatedMaxAttempts       int `env:"RATELIMIT_PUBLIC_AUTHENTICATED_MAX_ATTEMPTS" envDefault:"120"`
	PublicAuthenticatedDecayMinutes      int `env:"RATELIMIT_PUBLIC_AUTHENTICATED_DECAY_MINUTES" envDefault:"1"`
	ProtectedAuthenticatedMaxAttempts    int `env:"RATELIMIT_PROTECTED_AUTHENTICATED_MAX_ATTEMPTS" envDefault:"30"`
	ProtectedAuthenticatedDecayMinutes   int `env:"RATELIMIT_PROTECTED_AUTHENTICATED_DECAY_MINUTES" envDefault:"1"`

	ProtectedRoutes []string `env:"RATELIMIT_PROTECTED_ROUTES" envSeparator:","`
}

// Config converts the flat environment view into a Config snapshot.
func (e EnvConfig) Config() Config {
	routes := e.ProtectedRoutes
	if len(routes) == 0 {
		routes = DefaultProtectedRoutes()
	}
	return Config{
		Default: RuleConfig{MaxAttempts: flexInt(e.DefaultMaxAttempts), DecayMinutes: flexInt(e.DefaultDecayMinutes)},
		EndpointTypes: map[string]RuleConfig{
			string(EndpointPublicUnauthenticated): {
				MaxAttempts:  flexInt(e.PublicUnauthenticatedMaxAttempts),
				DecayMinutes: flexInt(e.PublicUnauthenticatedDecayMinutes),
			},
			string(EndpointProtectedUnauthenticated): {
				MaxAttempts:  flexInt(e.ProtectedUnauthenticatedMaxAttempts),
				DecayMinutes: flexInt(e.ProtectedUnauthenticatedDecayMinutes),
			},
			string(EndpointPublicAuthenticated): {
				MaxAttempts:  flexInt(e.PublicAuthenticatedMaxAttempts),
				DecayMinutes: flexInt(e.PublicAuthenticatedDecayMinutes),
			},
			string(EndpointProtectedAuthenticated): {
				MaxAttempts:  flexInt(e.ProtectedAuthenticatedMaxAttempts),
				DecayMinutes: flexInt(e.ProtectedAuthenticatedDecayMinutes),
			},
		},
		ProtectedRoutes: routes,
	}
}

// Fallback rule values used when even the default entry is malformed.
// Misconfiguration must degrade to the safest default, never disable
// limiting.
const (
	fallbackMaxAttempts  = 30
	fallbackDecayMinutes = 1
)

// ConfigManager resolves endpoint types to rules with fail-safe defaulting.
// Resolved rules are cached for the lifetime of the manager, so repeated
// calls for the same type return the identical rule value.
type ConfigManager struct {
	cfg Config

	mu    sync.Mutex
	cache map[EndpointType]Rule
}

// NewConfigManager creates a manager over an immutable config snapshot.
func NewConfigManager(cfg Config) *ConfigManager {
	return &ConfigManager{
		cfg:   cfg,
		cache: make(map[EndpointType]Rule),
	}
}

// RuleFor returns the rule for the given endpoint type. Absent or
// malformed entries resolve to the default rule; the returned rule then
// reports endpoint type "default", not the requested name.
func (m *ConfigManager) RuleFor(endpointType EndpointType) Rule {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rule, ok := m.cache[endpointType]; ok {
		return rule
	}

	rc, ok := m.cfg.EndpointTypes[string(endpointType)]
	if !ok || rc.MaxAttempts == nil || rc.DecayMinutes == nil {
		return m.defaultRuleLocked()
	}

	rule, err := NewRule(endpointType, int(*rc.MaxAttempts), int(*rc.DecayMinutes))
	if err != nil {
		return m.defaultRuleLocked()
	}

	m.cache[endpointType] = rule
	return rule
}

// DefaultRule returns the default rule, itself falling back to a built-in
// 30 req/min when the configured default is malformed.
func (m *ConfigManager) DefaultRule() Rule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defaultRuleLocked()
}

func (m *ConfigManager) defaultRuleLocked() Rule {
	if rule, ok := m.cache[EndpointDefault]; ok {
		return rule
	}

	maxAttempts, decayMinutes := fallbackMaxAttempts, fallbackDecayMinutes
	if m.cfg.Default.MaxAttempts != nil {
		maxAttempts = int(*m.cfg.Default.MaxAttempts)
	}
	if m.cfg.Default.DecayMinutes != nil {
		decayMinutes = int(*m.cfg.Default.DecayMinutes)
	}

	rule, err := NewRule(EndpointDefault, maxAttempts, decayMinutes)
	if err != nil {
		rule = MustNewRule(EndpointDefault, fallbackMaxAttempts, fallbackDecayMinutes)
	}

	m.cache[EndpointDefault] = rule
	return rule
}

// AllRules resolves every classifiable endpoint type.
func (m *ConfigManager) AllRules() map[EndpointType]Rule {
	rules := make(map[EndpointType]Rule, len(EndpointTypes))
	for _, t := range EndpointTypes {
		rules[t] = m.RuleFor(t)
	}
	return rules
}

// ProtectedRoutes returns the configured protected route patterns.
func (m *ConfigManager) ProtectedRoutes() []string {
	if len(m.cfg.ProtectedRoutes) == 0 {
		return DefaultProtectedRoutes()
	}
	return m.cfg.ProtectedRoutes
}
