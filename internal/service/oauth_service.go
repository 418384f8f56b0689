package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"

	"github.com/lmring/lmring/internal/auth"
	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/observability"
	"github.com/lmring/lmring/internal/repository"
	"github.com/lmring/lmring/internal/security"
)

var (
	ErrMissingUserInfo  = errors.New("missing required userinfo fields")
	ErrEmailNotVerified = errors.New("provider email not verified")
)

type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	Username       string
	Picture        string
	EmailVerified  bool
}

type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error)
}

// NewOAuthProviders builds a client for every provider enabled in cfg. The
// callback URL for provider p is {base}/api/auth/callback/{p}.
func NewOAuthProviders(cfg *auth.Config) map[auth.ProviderID]OAuthProvider {
	out := make(map[auth.ProviderID]OAuthProvider, len(cfg.OAuthProviders))
	for id, p := range cfg.OAuthProviders {
		redirect := strings.TrimRight(cfg.BaseURL, "/") + "/api/auth/callback/" + string(id)
		switch id {
		case auth.ProviderGitHub:
			out[id] = NewGitHubOAuthProvider(p, redirect)
		case auth.ProviderGoogle:
			out[id] = NewGoogleOAuthProvider(p, redirect)
		}
	}
	return out
}

type GoogleOAuthProvider struct {
	cfg        *oauth2.Config
	accessType string
}

func NewGoogleOAuthProvider(p auth.ProviderConfig, redirectURL string) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{
		cfg: &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		accessType: p.AccessType,
	}
}

func (p *GoogleOAuthProvider) AuthCodeURL(state string) string {
	if p.accessType == "offline" {
		return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	}
	return p.cfg.AuthCodeURL(state)
}

func (p *GoogleOAuthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.cfg.Exchange(ctx, code)
}

func (p *GoogleOAuthProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error) {
	var body struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := getJSON(ctx, p.cfg.Client(ctx, token), "https://openidconnect.googleapis.com/v1/userinfo", &body); err != nil {
		return nil, err
	}
	if body.Sub == "" || body.Email == "" {
		return nil, ErrMissingUserInfo
	}
	return &OAuthUserInfo{
		ProviderUserID: body.Sub,
		Email:          strings.ToLower(body.Email),
		Name:           body.Name,
		Picture:        body.Picture,
		EmailVerified:  body.EmailVerified,
	}, nil
}

type GitHubOAuthProvider struct {
	cfg     *oauth2.Config
	apiBase string
}

func NewGitHubOAuthProvider(p auth.ProviderConfig, redirectURL string) *GitHubOAuthProvider {
	return &GitHubOAuthProvider{
		cfg: &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBase: "https://api.github.com",
	}
}

func (p *GitHubOAuthProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

func (p *GitHubOAuthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.cfg.Exchange(ctx, code)
}

// FetchUserInfo reads the profile and the email list concurrently. The
// profile email is often empty for users with a private address, so the
// primary verified entry of /user/emails wins.
func (p *GitHubOAuthProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error) {
	client := p.cfg.Client(ctx, token)
	var profile struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return getJSON(gctx, client, p.apiBase+"/user", &profile) })
	g.Go(func() error { return getJSON(gctx, client, p.apiBase+"/user/emails", &emails) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	info := &OAuthUserInfo{
		Name:     profile.Name,
		Username: profile.Login,
		Picture:  profile.AvatarURL,
	}
	if profile.ID != 0 {
		info.ProviderUserID = strconv.FormatInt(profile.ID, 10)
	}
	for _, e := range emails {
		if e.Primary {
			info.Email, info.EmailVerified = strings.ToLower(e.Email), e.Verified
			break
		}
	}
	if info.Email == "" && profile.Email != "" {
		info.Email = strings.ToLower(profile.Email)
		for _, e := range emails {
			if strings.EqualFold(e.Email, profile.Email) {
				info.EmailVerified = e.Verified
			}
		}
	}
	if info.Name == "" {
		info.Name = profile.Login
	}
	if info.ProviderUserID == "" || info.Email == "" {
		return nil, ErrMissingUserInfo
	}
	return info, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("userinfo status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// OAuthService turns a provider callback into a local user, linking by email
// when the provider is trusted.
type OAuthService struct {
	cfg       *auth.Config
	providers map[auth.ProviderID]OAuthProvider
	users     repository.UserRepository
	accounts  repository.OAuthRepository
	encryptor *security.Encryptor
}

func NewOAuthService(
	cfg *auth.Config,
	providers map[auth.ProviderID]OAuthProvider,
	users repository.UserRepository,
	accounts repository.OAuthRepository,
	encryptor *security.Encryptor,
) *OAuthService {
	return &OAuthService{cfg: cfg, providers: providers, users: users, accounts: accounts, encryptor: encryptor}
}

func (s *OAuthService) Provider(id auth.ProviderID) (OAuthProvider, bool) {
	p, ok := s.providers[id]
	return p, ok
}

func (s *OAuthService) HandleCallback(ctx context.Context, id auth.ProviderID, code string) (*domain.User, error) {
	provider, ok := s.providers[id]
	if !ok {
		return nil, auth.ErrProviderNotEnabled
	}
	exchangeStart := time.Now()
	token, err := provider.Exchange(ctx, code)
	observability.RecordOAuthRequestDuration(ctx, string(id), "exchange", oauthStatus(err), time.Since(exchangeStart))
	if err != nil {
		return nil, fmt.Errorf("oauth exchange (%s): %w", classifyOAuthError(err), err)
	}
	userInfoStart := time.Now()
	info, err := provider.FetchUserInfo(ctx, token)
	observability.RecordOAuthRequestDuration(ctx, string(id), "userinfo", oauthStatus(err), time.Since(userInfoStart))
	if err != nil {
		return nil, fmt.Errorf("oauth userinfo (%s): %w", classifyOAuthError(err), err)
	}
	if info == nil {
		return nil, ErrMissingUserInfo
	}

	user, err := s.resolveUser(ctx, id, info)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, id, info.ProviderUserID, token); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *OAuthService) resolveUser(ctx context.Context, id auth.ProviderID, info *OAuthUserInfo) (*domain.User, error) {
	acct, err := s.accounts.FindByProvider(ctx, string(id), info.ProviderUserID)
	switch {
	case err == nil:
		return s.users.FindByID(ctx, acct.UserID)
	case !errors.Is(err, repository.ErrOAuthAccountNotFound):
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, info.Email)
	switch {
	case err == nil:
		if !s.cfg.IsTrustedProvider(id) || !info.EmailVerified {
			return nil, auth.ErrAccountLinkingFailed
		}
	case errors.Is(err, repository.ErrUserNotFound):
		if !info.EmailVerified && id == auth.ProviderGoogle {
			return nil, ErrEmailNotVerified
		}
		user = &domain.User{Email: info.Email, FullName: info.Name, AvatarURL: info.Picture}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.accounts.Create(ctx, &domain.OAuthAccount{
		UserID:         user.ID,
		Provider:       string(id),
		ProviderUserID: info.ProviderUserID,
		Email:          info.Email,
	}); err != nil {
		return nil, err
	}
	column := "github_id"
	if id == auth.ProviderGoogle {
		column = "google_id"
	}
	updates := map[string]any{column: info.ProviderUserID}
	if user.AvatarURL == "" && info.Picture != "" {
		updates["avatar_url"] = info.Picture
	}
	if err := s.users.Update(ctx, user.ID, updates); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, user.ID)
}

func (s *OAuthService) storeRefreshToken(ctx context.Context, id auth.ProviderID, subject string, token *oauth2.Token) error {
	if token == nil || token.RefreshToken == "" || s.encryptor == nil {
		return nil
	}
	acct, err := s.accounts.FindByProvider(ctx, string(id), subject)
	if err != nil {
		return err
	}
	sealed, err := s.encryptor.Encrypt(token.RefreshToken)
	if err != nil {
		return err
	}
	return s.accounts.UpdateRefreshToken(ctx, acct.ID, sealed)
}

func oauthStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func classifyOAuthError(err error) string {
	if err == nil {
		return "none"
	}
	if errors.Is(err, context.Canceled) {
		return "context_canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, ErrMissingUserInfo) {
		return "invalid_userinfo"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "userinfo status:"):
		return "userinfo_status"
	case strings.Contains(msg, "oauth2"):
		return "oauth2_exchange"
	default:
		return "other"
	}
}
