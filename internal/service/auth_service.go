package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/lmring/lmring/internal/auth"
	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/observability"
	"github.com/lmring/lmring/internal/repository"
	"github.com/lmring/lmring/internal/security"
)

// BootstrapAdminEmail names the account promoted to admin on its first sign-in.
type BootstrapAdminEmail string

type AuthResult struct {
	User        *domain.User
	Session     *IssuedSession
	CallbackURL string
}

type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

type AuthService struct {
	cfg            *auth.Config
	hook           *auth.StatusHook
	users          repository.UserRepository
	creds          repository.LocalCredentialRepository
	sessions       *SessionService
	oauth          *OAuthService
	state          *security.StateSigner
	throttle       SignInThrottle
	bootstrapAdmin string
	logger         *slog.Logger
}

func NewAuthService(
	cfg *auth.Config,
	hook *auth.StatusHook,
	users repository.UserRepository,
	creds repository.LocalCredentialRepository,
	sessions *SessionService,
	oauth *OAuthService,
	state *security.StateSigner,
	throttle SignInThrottle,
	bootstrapAdmin BootstrapAdminEmail,
	logger *slog.Logger,
) *AuthService {
	if throttle == nil {
		throttle = NoopSignInThrottle{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		cfg:            cfg,
		hook:           hook,
		users:          users,
		creds:          creds,
		sessions:       sessions,
		oauth:          oauth,
		state:          state,
		throttle:       throttle,
		bootstrapAdmin: repository.NormalizeEmail(string(bootstrapAdmin)),
		logger:         logger,
	}
}

func (s *AuthService) Config() *auth.Config { return s.cfg }

func (s *AuthService) SignUpEmail(ctx context.Context, in SignUpInput, meta RequestMeta) (res *AuthResult, err error) {
	ctx, finish := s.span(ctx, "auth.sign_up_email", auth.PathSignUpEmail)
	defer func() { finish(err) }()

	if !s.cfg.EmailPassword.Enabled {
		return nil, auth.NewError(auth.CodeConfigurationError, "Email sign-up is disabled")
	}
	email := repository.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, auth.ErrMissingCredentials
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := s.validatePassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Email: email, FullName: strings.TrimSpace(in.Name)}
	if err := s.users.CreateWithPassword(ctx, user, hash); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, auth.ErrEmailAlreadyExists
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	if !s.cfg.EmailPassword.AutoSignIn {
		return &AuthResult{User: user}, nil
	}
	return s.completeSignIn(ctx, auth.PathSignUpEmail, "email", user, meta)
}

func (s *AuthService) SignInEmail(ctx context.Context, email, password string, meta RequestMeta) (res *AuthResult, err error) {
	ctx, finish := s.span(ctx, "auth.sign_in_email", auth.PathSignInEmail)
	defer func() { finish(err) }()

	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, auth.ErrMissingCredentials
	}
	if wait, terr := s.throttle.Check(ctx, email, meta.IP); terr != nil {
		s.logger.WarnContext(ctx, "sign-in throttle check failed", "error", terr)
	} else if wait > 0 {
		observability.RecordAuthSignIn(ctx, "email", "throttled")
		return nil, auth.ErrTooManyAttempts
	}

	user, err := s.verifyPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			if _, terr := s.throttle.RegisterFailure(ctx, email, meta.IP); terr != nil {
				s.logger.WarnContext(ctx, "sign-in throttle update failed", "error", terr)
			}
			observability.RecordAuthSignIn(ctx, "email", "invalid_credentials")
		}
		return nil, err
	}
	if terr := s.throttle.Reset(ctx, email, meta.IP); terr != nil {
		s.logger.WarnContext(ctx, "sign-in throttle reset failed", "error", terr)
	}
	return s.completeSignIn(ctx, auth.PathSignInEmail, "email", user, meta)
}

// verifyPassword reports a missing user, missing credential and wrong
// password identically.
func (s *AuthService) verifyPassword(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	cred, err := s.creds.FindByUserID(ctx, user.ID)
	if errors.Is(err, repository.ErrCredentialNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	ok, err := security.VerifyPassword(cred.PasswordHash, password)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
		return nil, auth.ErrInvalidCredentials
	}
	if !ok {
		return nil, auth.ErrInvalidCredentials
	}
	return user, nil
}

// SocialSignInURL returns the provider redirect and the signed state value
// the caller must also store in the state cookie.
func (s *AuthService) SocialSignInURL(ctx context.Context, provider, callbackURL string) (string, string, error) {
	id, ok := auth.ParseProviderID(provider)
	if !ok || !s.cfg.HasProvider(id) {
		return "", "", auth.ErrProviderNotEnabled
	}
	p, ok := s.oauth.Provider(id)
	if !ok {
		return "", "", auth.ErrProviderNotEnabled
	}
	s.hook.BeforeSignIn(ctx, auth.PathSignInSocial, "POST")
	state, err := s.state.Issue(string(id), sanitizeCallbackURL(callbackURL))
	if err != nil {
		return "", "", err
	}
	return p.AuthCodeURL(state), state, nil
}

// HandleCallback finishes an OAuth round trip. stateParam comes from the
// query string and stateCookie from the browser; both must match.
func (s *AuthService) HandleCallback(ctx context.Context, provider, code, stateParam, stateCookie string, meta RequestMeta) (res *AuthResult, err error) {
	path := "/callback/" + provider
	ctx, finish := s.span(ctx, "auth.oauth_callback", path)
	defer func() { finish(err) }()

	id, ok := auth.ParseProviderID(provider)
	if !ok || !s.cfg.HasProvider(id) {
		return nil, auth.ErrProviderNotEnabled
	}
	if stateParam == "" || stateParam != stateCookie {
		observability.RecordAuthSignIn(ctx, provider, "invalid_state")
		return nil, auth.ErrOAuth
	}
	st, err := s.state.Verify(stateParam, string(id))
	if err != nil {
		observability.RecordAuthSignIn(ctx, provider, "invalid_state")
		return nil, auth.ErrOAuth
	}
	if strings.TrimSpace(code) == "" {
		return nil, auth.ErrOAuth
	}

	user, err := s.oauth.HandleCallback(ctx, id, code)
	if err != nil {
		var ae *auth.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		s.logger.WarnContext(ctx, "oauth callback failed", "provider", provider, "error", err)
		observability.RecordAuthSignIn(ctx, provider, "oauth_error")
		return nil, auth.ErrOAuth
	}
	res, err = s.completeSignIn(ctx, path, provider, user, meta)
	if err != nil {
		return nil, err
	}
	res.CallbackURL = st.CallbackURL
	return res, nil
}

func (s *AuthService) SignOut(ctx context.Context, cookieValue string) error {
	if cookieValue == "" {
		observability.RecordAuthSignOut(ctx, "no_session")
		return nil
	}
	if err := s.sessions.Revoke(ctx, cookieValue); err != nil {
		observability.RecordAuthSignOut(ctx, "error")
		return err
	}
	observability.RecordAuthSignOut(ctx, "success")
	return nil
}

func (s *AuthService) GetSession(ctx context.Context, cookieValue string) (*ActiveSession, error) {
	if cookieValue == "" {
		return nil, auth.ErrSessionExpired
	}
	return s.sessions.Validate(ctx, cookieValue)
}

// completeSignIn runs the status gate and only then creates a session.
func (s *AuthService) completeSignIn(ctx context.Context, path, provider string, user *domain.User, meta RequestMeta) (*AuthResult, error) {
	user, err := s.promoteBootstrapAdmin(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.hook.AfterSignIn(ctx, path, user); err != nil {
		observability.RecordAuthSignIn(ctx, provider, "rejected_status")
		return nil, err
	}
	issued, err := s.sessions.Create(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	observability.RecordAuthSignIn(ctx, provider, "success")
	return &AuthResult{User: user, Session: issued}, nil
}

func (s *AuthService) promoteBootstrapAdmin(ctx context.Context, user *domain.User) (*domain.User, error) {
	if s.bootstrapAdmin == "" || user.Role == domain.RoleAdmin || user.Email != s.bootstrapAdmin {
		return user, nil
	}
	if err := s.users.Update(ctx, user.ID, map[string]any{"role": domain.RoleAdmin}); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "bootstrap admin promoted", "user_id", user.ID)
	user.Role = domain.RoleAdmin
	return user, nil
}

func (s *AuthService) validatePassword(password string) error {
	n := len([]rune(password))
	if n < s.cfg.EmailPassword.MinPasswordLength {
		return auth.ErrPasswordTooShort
	}
	if n > s.cfg.EmailPassword.MaxPasswordLength {
		return auth.ErrPasswordTooLong
	}
	return nil
}

func (s *AuthService) span(ctx context.Context, name, path string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := observability.Tracer().Start(ctx, name)
	span.SetAttributes(attribute.String("auth.path", path))
	s.hook.BeforeSignIn(ctx, path, "POST")
	return ctx, func(err error) {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.RecordAuthRequestDuration(ctx, name, status, time.Since(start))
		span.End()
	}
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return auth.NewError(auth.CodeMissingCredentials, "A valid email address is required")
	}
	return nil
}

// sanitizeCallbackURL only allows same-origin relative paths.
func sanitizeCallbackURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return u.RequestURI()
}
