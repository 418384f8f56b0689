package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lmring/lmring/internal/auth"
	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/observability"
	"github.com/lmring/lmring/internal/repository"
	"github.com/lmring/lmring/internal/security"
)

const maxUserAgentLength = 512

// RequestMeta is the client information recorded on a new session.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// IssuedSession is what the HTTP layer needs to set cookies.
type IssuedSession struct {
	Session     *domain.Session
	CookieValue string
	CSRFToken   string
	ExpiresAt   time.Time
}

// ActiveSession is a validated session with its user loaded.
type ActiveSession struct {
	Session *domain.Session
	User    *domain.User
	// Extended is set when validation slid the expiry forward; the caller
	// should re-issue the cookie.
	Extended bool
}

type SessionService struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	signer   *security.SessionTokenSigner
	cache    SessionCache
	cacheTTL time.Duration
	policy   auth.SessionPolicy
	logger   *slog.Logger
	now      func() time.Time
}

func NewSessionService(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	signer *security.SessionTokenSigner,
	cache SessionCache,
	cacheTTL time.Duration,
	policy auth.SessionPolicy,
	logger *slog.Logger,
) *SessionService {
	if cache == nil {
		cache = NoopSessionCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		sessions: sessions,
		users:    users,
		signer:   signer,
		cache:    cache,
		cacheTTL: cacheTTL,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SessionService) Create(ctx context.Context, user *domain.User, meta RequestMeta) (*IssuedSession, error) {
	raw, err := security.NewOpaqueToken(32)
	if err != nil {
		return nil, err
	}
	csrf, err := security.NewOpaqueToken(32)
	if err != nil {
		return nil, err
	}
	ua := truncateUTF8(meta.UserAgent, maxUserAgentLength)
	now := s.now().UTC()
	sess := &domain.Session{
		UserID:    user.ID,
		TokenHash: security.HashToken(raw),
		ExpiresAt: now.Add(s.policy.ExpiresIn),
		IPAddress: meta.IP,
		UserAgent: ua,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		observability.RecordSessionManagementEvent(ctx, "create", "error")
		return nil, err
	}
	cookie, err := s.signer.Sign(sess.ID, user.ID, raw, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}
	s.cacheSession(ctx, sess)
	observability.RecordSessionManagementEvent(ctx, "create", "success")
	return &IssuedSession{Session: sess, CookieValue: cookie, CSRFToken: csrf, ExpiresAt: sess.ExpiresAt}, nil
}

// Validate resolves a session cookie. Every failure is an *auth.Error.
func (s *SessionService) Validate(ctx context.Context, cookieValue string) (*ActiveSession, error) {
	id, raw, err := s.signer.Parse(cookieValue)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !security.TokenHashEqual(sess.TokenHash, security.HashToken(raw)) {
		return nil, auth.ErrInvalidToken
	}
	now := s.now().UTC()
	if sess.Expired(now) {
		s.drop(ctx, sess.ID)
		return nil, auth.ErrSessionExpired
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.drop(ctx, sess.ID)
		return nil, auth.ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	if !domain.IsActive(user) {
		s.logger.WarnContext(ctx, "session rejected for inactive user", "user_id", user.ID, "status", user.Status)
		s.drop(ctx, sess.ID)
		return nil, auth.ErrSessionExpired
	}

	out := &ActiveSession{Session: sess, User: user}
	if s.policy.UpdateAge > 0 && now.Sub(sess.ExpiresAt.Add(-s.policy.ExpiresIn)) >= s.policy.UpdateAge {
		expires := now.Add(s.policy.ExpiresIn)
		if err := s.sessions.ExtendExpiry(ctx, sess.ID, expires); err != nil {
			s.logger.WarnContext(ctx, "session expiry extension failed", "session_id", sess.ID, "error", err)
		} else {
			sess.ExpiresAt = expires
			out.Extended = true
			s.cacheSession(ctx, sess)
			observability.RecordSessionManagementEvent(ctx, "extend", "success")
		}
	}
	return out, nil
}

// ReissueCookie signs a fresh cookie for an extended session.
func (s *SessionService) ReissueCookie(active *ActiveSession, cookieValue string) (string, error) {
	_, raw, err := s.signer.Parse(cookieValue)
	if err != nil {
		return "", auth.ErrInvalidToken
	}
	return s.signer.Sign(active.Session.ID, active.User.ID, raw, active.Session.ExpiresAt)
}

// Revoke deletes the session behind the cookie. Unparseable cookies are a no-op.
func (s *SessionService) Revoke(ctx context.Context, cookieValue string) error {
	id, _, err := s.signer.Parse(cookieValue)
	if err != nil {
		return nil
	}
	if err := s.sessions.DeleteByID(ctx, id); err != nil {
		observability.RecordSessionManagementEvent(ctx, "revoke", "error")
		return err
	}
	s.evict(ctx, id)
	observability.RecordSessionManagementEvent(ctx, "revoke", "success")
	return nil
}

func (s *SessionService) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	ids, err := s.sessions.DeleteByUserID(ctx, userID)
	if err != nil {
		observability.RecordSessionManagementEvent(ctx, "revoke_all", "error")
		return err
	}
	s.evict(ctx, ids...)
	observability.RecordSessionManagementEvent(ctx, "revoke_all", "success")
	return nil
}

func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.sessions.CleanupExpired(ctx, s.now().UTC())
}

func (s *SessionService) load(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	cached, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "session cache read failed", "error", err)
		observability.RecordSessionLookup(ctx, "cache", "error")
	} else if ok {
		observability.RecordSessionLookup(ctx, "cache", "hit")
		return cached, nil
	} else {
		observability.RecordSessionLookup(ctx, "cache", "miss")
	}

	sess, err := s.sessions.FindByID(ctx, id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		observability.RecordSessionLookup(ctx, "db", "not_found")
		return nil, auth.ErrSessionExpired
	}
	if err != nil {
		observability.RecordSessionLookup(ctx, "db", "error")
		return nil, err
	}
	observability.RecordSessionLookup(ctx, "db", "hit")
	s.cacheSession(ctx, sess)
	return sess, nil
}

// cacheSession never outlives the session itself.
func (s *SessionService) cacheSession(ctx context.Context, sess *domain.Session) {
	ttl := min(s.cacheTTL, sess.ExpiresAt.Sub(s.now()))
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, sess, ttl); err != nil {
		s.logger.WarnContext(ctx, "session cache write failed", "error", err)
	}
}

func (s *SessionService) drop(ctx context.Context, id uuid.UUID) {
	if err := s.sessions.DeleteByID(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "stale session delete failed", "session_id", id, "error", err)
	}
	s.evict(ctx, id)
}

func (s *SessionService) evict(ctx context.Context, ids ...uuid.UUID) {
	if err := s.cache.Delete(ctx, ids...); err != nil {
		s.logger.WarnContext(ctx, "session cache eviction failed", "error", err)
	}
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune. Invalid
// sequences from the client are replaced so the column always holds UTF-8.
func truncateUTF8(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
