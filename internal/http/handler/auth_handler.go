package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lmring/lmring/internal/auth"
	"github.com/lmring/lmring/internal/http/response"
	"github.com/lmring/lmring/internal/observability"
	"github.com/lmring/lmring/internal/security"
	"github.com/lmring/lmring/internal/service"
)

const defaultStateTTL = 10 * time.Minute

// AuthHandler serves every /api/auth/* route from a single catch-all and
// dispatches on method and sub-path.
type AuthHandler struct {
	authSvc   service.AuthServiceInterface
	cookieMgr *security.CookieManager
	stateTTL  time.Duration
}

func NewAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, stateTTL time.Duration) *AuthHandler {
	if stateTTL <= 0 {
		stateTTL = defaultStateTTL
	}
	return &AuthHandler{authSvc: authSvc, cookieMgr: cookieMgr, stateTTL: stateTTL}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub := "/" + strings.Trim(chi.URLParam(r, "*"), "/")
	switch {
	case r.Method == http.MethodPost && sub == "/sign-up/email":
		h.signUpEmail(w, r)
	case r.Method == http.MethodPost && sub == "/sign-in/email":
		h.signInEmail(w, r)
	case sub == "/sign-in/social" && (r.Method == http.MethodPost || r.Method == http.MethodGet):
		h.signInSocial(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(sub, "/callback/"):
		h.callback(w, r, strings.TrimPrefix(sub, "/callback/"))
	case r.Method == http.MethodPost && sub == "/sign-out":
		h.signOut(w, r)
	case r.Method == http.MethodGet && sub == "/session":
		h.session(w, r)
	default:
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "unknown auth route", nil)
	}
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) signUpEmail(w http.ResponseWriter, r *http.Request) {
	var body signUpRequest
	form := isFormPost(r)
	if form {
		body = signUpRequest{Name: r.PostFormValue("name"), Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
	} else if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.authSvc.SignUpEmail(r.Context(), service.SignUpInput{Email: body.Email, Password: body.Password, Name: body.Name}, requestMeta(r))
	if err != nil {
		observability.Audit(r, observability.AuditInput{EventName: "auth.sign_up", Action: "sign_up", Outcome: "failure", Reason: reasonFor(err)})
		if form {
			redirectWithError(w, r, "/sign-up", err)
			return
		}
		writeError(w, r, err)
		return
	}
	observability.Audit(r, observability.AuditInput{EventName: "auth.sign_up", ActorUserID: res.User.ID.String(), TargetType: "user", TargetID: res.User.ID.String(), Action: "sign_up", Outcome: "success"})
	if form {
		h.setSessionCookies(w, res.Session)
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.writeSignedIn(w, r, http.StatusCreated, res)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) signInEmail(w http.ResponseWriter, r *http.Request) {
	var body signInRequest
	form := isFormPost(r)
	if form {
		body = signInRequest{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
	} else if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.authSvc.SignInEmail(r.Context(), body.Email, body.Password, requestMeta(r))
	if err != nil {
		observability.Audit(r, observability.AuditInput{EventName: "auth.sign_in", Action: "sign_in_email", Outcome: "failure", Reason: reasonFor(err)})
		if form {
			redirectWithError(w, r, "/sign-in", err)
			return
		}
		writeError(w, r, err)
		return
	}
	observability.Audit(r, observability.AuditInput{EventName: "auth.sign_in", ActorUserID: res.User.ID.String(), TargetType: "user", TargetID: res.User.ID.String(), Action: "sign_in_email", Outcome: "success"})
	if form {
		h.setSessionCookies(w, res.Session)
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.writeSignedIn(w, r, http.StatusOK, res)
}

type socialRequest struct {
	Provider    string `json:"provider"`
	CallbackURL string `json:"callbackURL"`
}

// signInSocial answers POST with the provider URL and GET with a redirect.
func (h *AuthHandler) signInSocial(w http.ResponseWriter, r *http.Request) {
	var body socialRequest
	if r.Method == http.MethodPost {
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		body.Provider = r.URL.Query().Get("provider")
		body.CallbackURL = r.URL.Query().Get("callbackURL")
	}
	authURL, state, err := h.authSvc.SocialSignInURL(r.Context(), body.Provider, body.CallbackURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.cookieMgr.SetOAuthStateCookie(w, state, h.stateTTL)
	if r.Method == http.MethodGet {
		http.Redirect(w, r, authURL, http.StatusFound)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"url": authURL, "redirect": true})
}

// callback always ends in a browser redirect: to the stored callback URL on
// success, or back to the sign-in page with the error code.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request, provider string) {
	h.cookieMgr.ClearOAuthStateCookie(w)
	if errCode := r.URL.Query().Get("error"); errCode != "" {
		observability.Audit(r, observability.AuditInput{EventName: "auth.sign_in", Action: "sign_in_social", Outcome: "failure", Reason: "provider_denied", TargetType: "provider", TargetID: provider})
		http.Redirect(w, r, "/sign-in?error="+url.QueryEscape(string(auth.CodeOAuthError)), http.StatusFound)
		return
	}
	res, err := h.authSvc.HandleCallback(
		r.Context(),
		provider,
		r.URL.Query().Get("code"),
		r.URL.Query().Get("state"),
		security.GetCookie(r, security.OAuthStateCookieName),
		requestMeta(r),
	)
	if err != nil {
		code := auth.CodeOAuthError
		if ae, ok := auth.AsError(err); ok {
			code = ae.Code
		}
		observability.Audit(r, observability.AuditInput{EventName: "auth.sign_in", Action: "sign_in_social", Outcome: "failure", Reason: string(code), TargetType: "provider", TargetID: provider})
		http.Redirect(w, r, "/sign-in?error="+url.QueryEscape(string(code)), http.StatusFound)
		return
	}
	h.setSessionCookies(w, res.Session)
	observability.Audit(r, observability.AuditInput{EventName: "auth.sign_in", ActorUserID: res.User.ID.String(), Action: "sign_in_social", Outcome: "success", TargetType: "provider", TargetID: provider})
	dest := res.CallbackURL
	if dest == "" || dest == "/" {
		dest = "/dashboard"
	}
	http.Redirect(w, r, dest, http.StatusFound)
}

func (h *AuthHandler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.authSvc.SignOut(r.Context(), security.GetCookie(r, security.SessionCookieName)); err != nil {
		writeError(w, r, err)
		return
	}
	h.cookieMgr.ClearSessionCookies(w)
	observability.Audit(r, observability.AuditInput{EventName: "auth.sign_out", Action: "sign_out", Outcome: "success"})
	if isFormPost(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// session reports the current session, or null data when there is none.
func (h *AuthHandler) session(w http.ResponseWriter, r *http.Request) {
	active, err := h.authSvc.GetSession(r.Context(), security.GetCookie(r, security.SessionCookieName))
	if err != nil {
		if _, ok := auth.AsError(err); ok {
			response.JSON(w, r, http.StatusOK, nil)
			return
		}
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"user": active.User,
		"session": map[string]any{
			"id":         active.Session.ID,
			"expires_at": active.Session.ExpiresAt,
		},
	})
}

func (h *AuthHandler) writeSignedIn(w http.ResponseWriter, r *http.Request, status int, res *service.AuthResult) {
	body := map[string]any{"user": res.User}
	if res.Session != nil {
		h.setSessionCookies(w, res.Session)
		body["csrf_token"] = res.Session.CSRFToken
		body["expires_at"] = res.Session.ExpiresAt
	}
	response.JSON(w, r, status, body)
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, s *service.IssuedSession) {
	if s == nil {
		return
	}
	h.cookieMgr.SetSessionCookies(w, s.CookieValue, s.CSRFToken, time.Until(s.ExpiresAt))
}

// isFormPost reports a plain HTML form submission from the server-rendered
// pages. Those get redirects instead of JSON.
func isFormPost(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}

func redirectWithError(w http.ResponseWriter, r *http.Request, page string, err error) {
	http.Redirect(w, r, page+"?error="+url.QueryEscape(reasonFor(err)), http.StatusSeeOther)
}

func reasonFor(err error) string {
	var ae *auth.Error
	if errors.As(err, &ae) {
		return string(ae.Code)
	}
	return "internal"
}
