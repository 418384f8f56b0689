package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// pageCopy is registered into the catalog once at init.
var pageCopy = map[string]map[string]string{
	"en": {
		"app.name":           "LMRing",
		"index.title":        "Compare language models side by side",
		"index.subtitle":     "Ask once, read every answer, vote for the best.",
		"signin.title":       "Sign in",
		"signup.title":       "Create an account",
		"dashboard.title":    "Dashboard",
		"profile.title":      "User profile",
		"nav.signout":        "Sign out",
		"auth.email":         "Email",
		"auth.password":      "Password",
		"auth.name":          "Name",
		"auth.github":        "Continue with GitHub",
		"auth.google":        "Continue with Google",
		"dashboard.welcome":  "Welcome back",
		"dashboard.rankings": "Model rankings",
	},
	"zh": {
		"app.name":           "LMRing",
		"index.title":        "并排比较大语言模型",
		"index.subtitle":     "提问一次，阅读所有回答，为最佳答案投票。",
		"signin.title":       "登录",
		"signup.title":       "创建账户",
		"dashboard.title":    "控制台",
		"profile.title":      "用户资料",
		"nav.signout":        "退出登录",
		"auth.email":         "邮箱",
		"auth.password":      "密码",
		"auth.name":          "姓名",
		"auth.github":        "使用 GitHub 继续",
		"auth.google":        "使用 Google 继续",
		"dashboard.welcome":  "欢迎回来",
		"dashboard.rankings": "模型排行",
	},
	"fr": {
		"app.name":           "LMRing",
		"index.title":        "Comparez les modèles de langage côte à côte",
		"index.subtitle":     "Posez une question, lisez chaque réponse, votez pour la meilleure.",
		"signin.title":       "Connexion",
		"signup.title":       "Créer un compte",
		"dashboard.title":    "Tableau de bord",
		"profile.title":      "Profil utilisateur",
		"nav.signout":        "Déconnexion",
		"auth.email":         "E-mail",
		"auth.password":      "Mot de passe",
		"auth.name":          "Nom",
		"auth.github":        "Continuer avec GitHub",
		"auth.google":        "Continuer avec Google",
		"dashboard.welcome":  "Bon retour",
		"dashboard.rankings": "Classement des modèles",
	},
}

var (
	catalogTags = []language.Tag{language.English, language.Chinese, language.French}
	copyMatcher = language.NewMatcher(catalogTags)
	pageCatalog = buildCatalog()
	printers    = newPrinters()
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for locale, msgs := range pageCopy {
		tag := language.Make(locale)
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

func newPrinters() []*message.Printer {
	out := make([]*message.Printer, len(catalogTags))
	for i, tag := range catalogTags {
		out[i] = message.NewPrinter(tag, message.Catalog(pageCatalog))
	}
	return out
}

// T renders key for locale. Unsupported locales and keys missing from a
// translation fall back to English, then to the key itself.
func T(locale, key string) string {
	_, idx, _ := copyMatcher.Match(language.Make(locale))
	if s := printers[idx].Sprintf(key); s != key || idx == 0 {
		return s
	}
	return printers[0].Sprintf(key)
}
