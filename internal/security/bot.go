package security

import (
	"regexp"
	"strings"

	"github.com/x-way/crawlerdetect"
)

type BotCategory string

const (
	BotCategoryNone         BotCategory = "none"
	BotCategorySearchEngine BotCategory = "search_engine"
	BotCategoryPreview      BotCategory = "preview"
	BotCategoryMonitor      BotCategory = "monitor"
	BotCategoryAutomated    BotCategory = "automated"
)

// Well-known crawlers that may be let through, matched before the generic
// crawler database.
var namedBots = []struct {
	category BotCategory
	names    []string
}{
	{BotCategorySearchEngine, []string{"googlebot", "bingbot", "duckduckbot", "baiduspider", "yandexbot", "applebot", "slurp"}},
	{BotCategoryPreview, []string{"facebookexternalhit", "twitterbot", "slackbot", "discordbot", "linkedinbot", "telegrambot", "whatsapp"}},
	{BotCategoryMonitor, []string{"uptimerobot", "pingdom", "statuscake", "betteruptime", "checkly", "datadog synthetics"}},
}

// HTTP client libraries are always automated, whatever the crawler
// database says about them.
var clientLibraries = []string{"curl/", "wget/", "python-requests", "python-urllib", "go-http-client", "okhttp", "headlesschrome"}

// Handset brands whose model names contain "bot".
var handsetModels = regexp.MustCompile(`(?i)\bcubot[ _-]?`)

// BotDetector classifies requests by User-Agent and decides whether a
// category is allowed through.
type BotDetector struct {
	allow map[BotCategory]struct{}
}

func NewBotDetector(allow ...BotCategory) *BotDetector {
	d := &BotDetector{allow: make(map[BotCategory]struct{}, len(allow)+1)}
	d.allow[BotCategoryNone] = struct{}{}
	for _, c := range allow {
		d.allow[c] = struct{}{}
	}
	return d
}

// DefaultBotDetector lets search engines, link previews and uptime monitors
// through and blocks every other automated client.
func DefaultBotDetector() *BotDetector {
	return NewBotDetector(BotCategorySearchEngine, BotCategoryPreview, BotCategoryMonitor)
}

func (d *BotDetector) Classify(userAgent string) BotCategory {
	ua := strings.TrimSpace(userAgent)
	if ua == "" {
		return BotCategoryAutomated
	}
	lower := strings.ToLower(ua)
	for _, group := range namedBots {
		for _, name := range group.names {
			if strings.Contains(lower, name) {
				return group.category
			}
		}
	}
	for _, lib := range clientLibraries {
		if strings.Contains(lower, lib) {
			return BotCategoryAutomated
		}
	}
	if crawlerdetect.IsCrawler(handsetModels.ReplaceAllString(ua, "")) {
		return BotCategoryAutomated
	}
	return BotCategoryNone
}

func (d *BotDetector) Allowed(category BotCategory) bool {
	_, ok := d.allow[category]
	return ok
}
