package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/lmring/lmring/internal/auth"
	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/http/middleware"
	"github.com/lmring/lmring/internal/i18n"
	"github.com/lmring/lmring/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

const dashboardRankingLimit = 10

// PageHandler renders the localized HTML shell. Every page is parsed once
// against the shared layout; per-request helpers are bound at render time.
type PageHandler struct {
	routing   *i18n.Routing
	authCfg   *auth.Config
	votes     service.VoteServiceInterface
	logger    *slog.Logger
	templates map[string]*template.Template
}

type pageData struct {
	Title         string
	Locale        string
	Locales       []string
	User          *domain.User
	Error         string
	EmailPassword bool
	Providers     []auth.ProviderID
	Rankings      []domain.ModelRanking
	currentPath   string
	routing       *i18n.Routing
}

// LocaleLink points the current page at another locale.
func (d pageData) LocaleLink(locale string) string {
	return d.routing.LocalizedPath(locale, d.currentPath)
}

func NewPageHandler(routing *i18n.Routing, authCfg *auth.Config, votes service.VoteServiceInterface, logger *slog.Logger) (*PageHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &PageHandler{routing: routing, authCfg: authCfg, votes: votes, logger: logger, templates: map[string]*template.Template{}}
	for _, page := range []string{"index", "sign_in", "sign_up", "dashboard", "profile"} {
		tpl, err := template.New(page).Funcs(placeholderFuncs()).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, err
		}
		h.templates[page] = tpl
	}
	return h, nil
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "index", "index.title", nil)
}

func (h *PageHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "sign_in", "signin.title", nil)
}

func (h *PageHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "sign_up", "signup.title", nil)
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "dashboard", "dashboard.title", func(d *pageData) {
		rows, err := h.votes.Rankings(r.Context(), dashboardRankingLimit)
		if err != nil {
			h.logger.WarnContext(r.Context(), "dashboard rankings unavailable", "error", err)
			return
		}
		d.Rankings = rows
	})
}

func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "profile", "profile.title", nil)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, page, titleKey string, fill func(*pageData)) {
	locale := i18n.LocaleFromContext(r.Context())
	_, current := i18n.SplitPrefix(r.URL.Path)
	data := pageData{
		Title:       i18n.T(locale, titleKey),
		Locale:      locale,
		Locales:     h.routing.Locales(),
		Error:       r.URL.Query().Get("error"),
		currentPath: current,
		routing:     h.routing,
	}
	if h.authCfg != nil {
		data.EmailPassword = h.authCfg.EmailPassword.Enabled
		data.Providers = h.authCfg.ProviderIDs()
	}
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		data.User = u
	}
	// The session middleware redirects anonymous dashboard requests before
	// they get here; this only guards direct handler use.
	if (page == "dashboard" || page == "profile") && data.User == nil {
		http.Redirect(w, r, h.routing.LocalizedPath(locale, "/sign-in"), http.StatusFound)
		return
	}
	if fill != nil {
		fill(&data)
	}

	tpl, err := h.templates[page].Clone()
	if err != nil {
		h.fail(w, r, page, err)
		return
	}
	tpl.Funcs(template.FuncMap{
		"t":    func(key string) string { return i18n.T(locale, key) },
		"path": func(p string) string { return h.routing.LocalizedPath(locale, p) },
	})
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.fail(w, r, page, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Language", locale)
	_, _ = buf.WriteTo(w)
}

func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, page string, err error) {
	h.logger.ErrorContext(r.Context(), "page render failed", "page", page, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func placeholderFuncs() template.FuncMap {
	return template.FuncMap{
		"t":    func(key string) string { return key },
		"path": func(p string) string { return p },
		"inc":  func(i int) int { return i + 1 },
	}
}
