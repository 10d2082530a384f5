// Command server runs a demo API protected by the dynamic rate limiting
// engine: Redis-backed primary store with in-memory failover, endpoint
// classification, and RFC 7807 error responses.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/limitguard/limitguard/pkg/auth"
	"github.com/limitguard/limitguard/pkg/clientip"
	"github.com/limitguard/limitguard/pkg/config"
	"github.com/limitguard/limitguard/pkg/environment"
	"github.com/limitguard/limitguard/pkg/httpserver"
	"github.com/limitguard/limitguard/pkg/logger"
	"github.com/limitguard/limitguard/pkg/problem"
	"github.com/limitguard/limitguard/pkg/ratelimit"
	"github.com/limitguard/limitguard/pkg/redis"
	"github.com/limitguard/limitguard/pkg/requestid"
)

type appConfig struct {
	Env           string `env:"APP_ENV" envDefault:"development"`
	BaseURL       string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	VerboseErrors bool   `env:"APP_VERBOSE_ERRORS" envDefault:"true"`
	RulesFile     string `env:"RATELIMIT_RULES_FILE"`
	DemoToken     string `env:"APP_DEMO_TOKEN"`
}

func main() {
	var (
		appCfg   appConfig
		limitEnv ratelimit.EnvConfig
		redisCfg redis.Config
		httpCfg  httpserver.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&limitEnv)
	config.MustLoad(&redisCfg)
	config.MustLoad(&httpCfg)

	env := environment.Parse(appCfg.Env)

	log := logger.New(
		logger.WithEnvironment(env, "limitguard"),
		logger.WithContextExtractors(requestid.LogExtractor()),
	)
	logger.SetAsDefault(log)

	ctx := context.Background()

	service, cleanup := buildRateLimitService(ctx, redisCfg, log)
	defer cleanup()

	limitCfg := limitEnv.Config()
	if appCfg.RulesFile != "" {
		loaded, err := ratelimit.LoadConfigFile(appCfg.RulesFile)
		if err != nil {
			log.Error("failed to load rate limit rules, using defaults", logger.Error(err))
		} else {
			limitCfg = loaded
		}
	}

	manager := ratelimit.NewConfigManager(limitCfg)
	classifier := ratelimit.NewClassifier(manager)
	resolver := ratelimit.NewKeyResolver()

	normalizer := problem.NewNormalizer(
		problem.WithBaseURL(appCfg.BaseURL),
		problem.WithEnvironment(env),
		problem.WithVerboseErrors(appCfg.VerboseErrors),
	)
	problems := problem.NewHandler(normalizer, log)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(auth.Middleware(newDemoTokenStore(appCfg.DemoToken)))
	r.Use(problems.Recoverer)
	r.Use(ratelimit.Middleware(service, classifier, resolver,
		ratelimit.WithPrincipalFunc(principalFromContext),
		ratelimit.WithMiddlewareMetrics(ratelimit.NewLogMetrics(log)),
		ratelimit.WithMiddlewareLogger(log),
	))

	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"pong"}`))
	})
	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		// Demo endpoint: always rejects, exercising the problem pipeline
		// and the protected_unauthenticated rate limit bucket.
		problems.WriteError(w, r, problem.NewDomain(
			http.StatusUnauthorized, "AUTH-LOGIN-001",
			"Invalid Credentials", "Invalid email or password",
		))
	})

	srv := httpserver.New(httpCfg, log)
	if err := srv.Run(ctx, r); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

// buildRateLimitService assembles the failover chain: Redis primary with
// an in-memory secondary. When Redis is unreachable at boot the service
// degrades to memory-only rather than refusing to start; rate limiting
// must stay up even when its fast store is not.
func buildRateLimitService(ctx context.Context, cfg redis.Config, log *slog.Logger) (ratelimit.Service, func()) {
	memory := ratelimit.NewMemoryStore()
	secondary := ratelimit.NewCounterService(memory)

	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		log.Error("redis unavailable, rate limiting degraded to in-memory store", logger.Error(err))
		return secondary, func() { _ = memory.Close() }
	}

	primary := ratelimit.NewCounterService(ratelimit.NewRedisStore(client))
	service := ratelimit.NewFailoverService(primary, secondary, ratelimit.NewLogMetrics(log))

	return service, func() {
		_ = memory.Close()
		_ = client.Close()
	}
}

// demoTokenStore accepts a single static token configured via the
// environment. Real deployments plug a database-backed TokenStore in here.
type demoTokenStore struct {
	token string
}

func newDemoTokenStore(token string) auth.TokenStore {
	return &demoTokenStore{token: token}
}

func (s *demoTokenStore) Issue(context.Context, auth.Principal) (string, error) {
	return s.token, nil
}

func (s *demoTokenStore) Validate(_ context.Context, token string) (auth.Principal, error) {
	if s.token == "" || token != s.token {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	return auth.Principal{UserID: 1, TokenID: "demo"}, nil
}

func (s *demoTokenStore) Revoke(context.Context, string) error { return nil }

// principalFromContext adapts the auth context into the rate limiter's
// principal shape.
func principalFromContext(r *http.Request) *ratelimit.Principal {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return nil
	}
	return &ratelimit.Principal{UserID: p.UserID, TokenID: p.TokenID}
}
