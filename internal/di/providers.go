package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lmring/lmring/internal/app"
	"github.com/lmring/lmring/internal/auth"
	"github.com/lmring/lmring/internal/config"
	"github.com/lmring/lmring/internal/database"
	"github.com/lmring/lmring/internal/health"
	"github.com/lmring/lmring/internal/http/handler"
	"github.com/lmring/lmring/internal/http/middleware"
	"github.com/lmring/lmring/internal/http/router"
	"github.com/lmring/lmring/internal/i18n"
	"github.com/lmring/lmring/internal/observability"
	"github.com/lmring/lmring/internal/repository"
	"github.com/lmring/lmring/internal/security"
	"github.com/lmring/lmring/internal/service"
)

const oauthStateTTL = 10 * time.Minute

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var AuthSet = wire.NewSet(
	provideAuthConfig,
	auth.NewStatusHook,
	provideRouting,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewSessionRepository,
	repository.NewOAuthRepository,
	repository.NewLocalCredentialRepository,
	repository.NewConversationRepository,
	repository.NewVoteRepository,
	repository.NewRankingRepository,
	repository.NewAPIKeyRepository,
	repository.NewPreferencesRepository,
)

var SecuritySet = wire.NewSet(
	provideCookieManager,
	provideEncryptor,
	provideSessionTokenSigner,
	provideStateSigner,
)

var ServiceSet = wire.NewSet(
	provideSessionCache,
	provideSessionService,
	provideSignInThrottle,
	provideAvatarStore,
	provideBootstrapAdmin,
	service.NewOAuthProviders,
	service.NewOAuthService,
	service.NewAuthService,
	service.NewUserService,
	service.NewConversationService,
	service.NewVoteService,
	service.NewAPIKeyService,
	providePreferencesService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.SessionValidator), new(*service.SessionService)),
	wire.Bind(new(service.UserServiceInterface), new(*service.UserService)),
	wire.Bind(new(service.ConversationServiceInterface), new(*service.ConversationService)),
	wire.Bind(new(service.VoteServiceInterface), new(*service.VoteService)),
	wire.Bind(new(service.APIKeyServiceInterface), new(*service.APIKeyService)),
	wire.Bind(new(service.PreferencesServiceInterface), new(*service.PreferencesService)),
)

var HTTPSet = wire.NewSet(
	provideAuthHandler,
	provideUserHandler,
	handler.NewAPIKeyHandler,
	handler.NewArenaHandler,
	handler.NewAdminHandler,
	handler.NewPageHandler,
	provideSessionMiddleware,
	provideAPIRateLimiter,
	provideAuthRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

// MigrationRunner backs the migrate tool. Unlike API startup it always
// fails loudly.
type MigrationRunner struct {
	cfg      *config.Config
	db       *gorm.DB
	sessions repository.SessionRepository
	votes    *service.VoteService
}

func NewMigrationRunner(cfg *config.Config, db *gorm.DB, sessions repository.SessionRepository, votes *service.VoteService) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, db: db, sessions: sessions, votes: votes}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := database.Seed(m.db, m.cfg.BootstrapAdminEmail, m.cfg.BootstrapAdminPassword); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

func (m *MigrationRunner) RecomputeRankings(ctx context.Context) (int, error) {
	return m.votes.RecomputeRankings(ctx)
}

func (m *MigrationRunner) CleanupSessions(ctx context.Context) (int64, error) {
	return m.sessions.CleanupExpired(ctx, time.Now().UTC())
}

func (m *MigrationRunner) DB() *gorm.DB { return m.db }

// provideObservabilityRuntime flushes and stops the exporters on cleanup,
// within the observability shutdown budget.
func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, func(), error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	rt, err := observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), durationOr(cfg.ShutdownObservabilityTimeout, 8*time.Second))
		defer cancel()
		if err := rt.Shutdown(ctx); err != nil {
			bootstrapLogger.Error("failed to shutdown observability", "error", err)
		}
	}
	return rt, cleanup, nil
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	logger := observability.InitLogger(cfg, runtime.LoggerProvider)
	if cfg.BaseURLMismatch() {
		logger.Warn("AUTH_URL and APP_URL differ, using AUTH_URL", "auth_url", cfg.AuthURL, "app_url", cfg.AppURL)
	}
	return logger
}

// provideAuthConfig runs the auth configuration builder. It fails before any
// database connection is attempted.
func provideAuthConfig(cfg *config.Config, logger *slog.Logger) (*auth.Config, error) {
	mode, err := auth.ParseDeploymentMode(cfg.DeploymentMode)
	if err != nil {
		return nil, err
	}
	return auth.NewBuilder(logger).
		WithMode(mode).
		WithBaseURL(cfg.BaseURL).
		WithSecret(cfg.AuthSecret).
		WithGitHub(cfg.GitHubClientID, cfg.GitHubClientSecret).
		WithGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret).
		Build()
}

func provideRouting(cfg *config.Config) *i18n.Routing {
	return i18n.NewRouting(cfg.Locales, cfg.DefaultLocale)
}

func provideToolLogger(cfg *config.Config) *slog.Logger {
	return observability.NewBootstrapLogger(cfg)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg.DatabaseURL)
}

// provideRuntimeDB takes the validated auth config only to order startup:
// a bad secret must abort before the database is opened.
func provideRuntimeDB(cfg *config.Config, logger *slog.Logger, _ *auth.Config) (*gorm.DB, func(), error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Error("failed to close database connection", "error", err)
			}
		}
	}
	if err := database.RunStartupMigrations(db, cfg.Env, logger); err != nil {
		cleanup()
		return nil, nil, err
	}
	if cfg.BootstrapAdminEmail != "" {
		if _, err := database.SeedSync(db, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
			logger.Warn("bootstrap admin seed failed", "error", err)
		}
	}
	return db, cleanup, nil
}

func provideRedisClient(cfg *config.Config) (redis.UniversalClient, func()) {
	if !cfg.RateLimitRedisEnabled && !cfg.SessionCacheEnabled {
		return nil, func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return client, func() { _ = client.Close() }
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod,
		health.NewDBChecker(db),
		health.NewRedisChecker(redisClient),
	)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func provideEncryptor(cfg *config.Config) (*security.Encryptor, error) {
	return security.NewEncryptor(cfg.EncryptionKey)
}

func provideSessionTokenSigner(authCfg *auth.Config) *security.SessionTokenSigner {
	return security.NewSessionTokenSigner(authCfg.Secret)
}

func provideStateSigner(authCfg *auth.Config) *security.StateSigner {
	return security.NewStateSigner(authCfg.Secret, oauthStateTTL)
}

func provideSessionCache(cfg *config.Config, redisClient redis.UniversalClient) service.SessionCache {
	if !cfg.SessionCacheEnabled || redisClient == nil {
		return service.NoopSessionCache{}
	}
	return service.NewRedisSessionCache(redisClient, "lmring:session")
}

func provideSessionService(
	cfg *config.Config,
	authCfg *auth.Config,
	sessions repository.SessionRepository,
	users repository.UserRepository,
	signer *security.SessionTokenSigner,
	cache service.SessionCache,
	logger *slog.Logger,
) *service.SessionService {
	return service.NewSessionService(sessions, users, signer, cache, cfg.SessionCacheTTL, authCfg.Session, logger)
}

func provideSignInThrottle(cfg *config.Config, redisClient redis.UniversalClient) service.SignInThrottle {
	policy := service.SignInThrottlePolicy{
		FreeAttempts: cfg.SignInThrottleFreeAttempts,
		BaseDelay:    cfg.SignInThrottleBaseDelay,
		MaxDelay:     cfg.SignInThrottleMaxDelay,
		ResetWindow:  cfg.SignInThrottleResetWindow,
	}
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		return service.NewRedisSignInThrottle(redisClient, cfg.RateLimitRedisPrefix+":signin", policy)
	}
	return service.NewInMemorySignInThrottle(policy)
}

func provideAvatarStore(cfg *config.Config) (service.AvatarStore, error) {
	if !cfg.AvatarStorageEnabled {
		return service.DisabledAvatarStore{}, nil
	}
	return service.NewMinIOAvatarStore(service.MinIOAvatarOptions{
		Endpoint:      cfg.MinIOEndpoint,
		AccessKey:     cfg.MinIOAccessKey,
		SecretKey:     cfg.MinIOSecretKey,
		Bucket:        cfg.MinIOBucket,
		UseSSL:        cfg.MinIOUseSSL,
		PublicBaseURL: cfg.MinIOPublicBaseURL,
		MaxBytes:      cfg.AvatarMaxBytes,
	})
}

func provideBootstrapAdmin(cfg *config.Config) service.BootstrapAdminEmail {
	return service.BootstrapAdminEmail(cfg.BootstrapAdminEmail)
}

func providePreferencesService(cfg *config.Config, repo repository.PreferencesRepository) *service.PreferencesService {
	return service.NewPreferencesService(repo, cfg.Locales)
}

func provideAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager) *handler.AuthHandler {
	return handler.NewAuthHandler(authSvc, cookieMgr, oauthStateTTL)
}

func provideUserHandler(cfg *config.Config, userSvc service.UserServiceInterface, prefs service.PreferencesServiceInterface) *handler.UserHandler {
	return handler.NewUserHandler(userSvc, prefs, cfg.AvatarMaxBytes)
}

func provideSessionMiddleware(cfg *config.Config, sessions service.SessionValidator, cookieMgr *security.CookieManager, logger *slog.Logger) *middleware.SessionMiddleware {
	return middleware.NewSessionMiddleware(middleware.SessionMiddlewareConfig{
		Resolver: middleware.NewCookieSessionResolver(sessions),
		Bot: middleware.BotProtection{
			Enabled:     cfg.BotProtectionKey != "",
			BypassToken: cfg.ProtectionBypassToken,
			Detector:    security.DefaultBotDetector(),
		},
		Cookies: cookieMgr,
		Logger:  logger,
	})
}

func provideAPIRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.APIRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":api")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.APIRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"api",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute, "api").Middleware()
}

// Auth endpoints fail closed: an unreachable Redis must not open the door
// to credential stuffing.
func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.AuthRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":auth")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.AuthRateLimitPerMin,
			time.Minute,
			middleware.FailClosed,
			"auth",
		).WithKeyFunc(middleware.IPKey).Middleware()
	}
	return middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute, "auth").WithKeyFunc(middleware.IPKey).Middleware()
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	apiKeyHandler *handler.APIKeyHandler,
	arenaHandler *handler.ArenaHandler,
	adminHandler *handler.AdminHandler,
	pageHandler *handler.PageHandler,
	session *middleware.SessionMiddleware,
	routing *i18n.Routing,
	apiRateLimiter router.APIRateLimiterFunc,
	authRateLimiter router.AuthRateLimiterFunc,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:      authHandler,
		UserHandler:      userHandler,
		APIKeyHandler:    apiKeyHandler,
		ArenaHandler:     arenaHandler,
		AdminHandler:     adminHandler,
		PageHandler:      pageHandler,
		Session:          session,
		Routing:          routing,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		AuthRateLimitRPM: cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:  cfg.APIRateLimitPerMin,
		AuthRateLimiter:  authRateLimiter,
		APIRateLimiter:   apiRateLimiter,
		AvatarMaxBytes:   cfg.AvatarMaxBytes,
		Readiness:        readiness,
		EnableOTelHTTP:   cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient, readiness)
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
