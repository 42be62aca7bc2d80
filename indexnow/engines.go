package indexnow

import "strings"

// IndexNow endpoints of participating search engines.
// See https://www.indexnow.org/faq for the current list.
const (
	Bing   = "https://www.bing.com/indexnow"
	Yandex = "https://yandex.com/indexnow"
)

// SearchEngines maps lowercase engine names to their endpoint.
var SearchEngines = map[string]string{
	"bing":   Bing,
	"yandex": Yandex,
}

// LookupEngine resolves a registered engine name (case-insensitive) to its endpoint.
// Any https:// URL is returned as is, so unlisted engines can be used directly.
func LookupEngine(nameOrURL string) (string, bool) {
	if strings.HasPrefix(nameOrURL, httpsPrefix) {
		return nameOrURL, true
	}
	engine, ok := SearchEngines[strings.ToLower(strings.TrimSpace(nameOrURL))]
	return engine, ok
}
