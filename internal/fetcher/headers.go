package fetcher

import (
	"math/rand"
	"net/http"
)

// BrowserProfile is a coherent set of browser request headers. Stealth mode
// sends these instead of the identifying user-agent so requests blend in
// with ordinary browser traffic.
type BrowserProfile struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
	SecFetchSite   string
	SecFetchMode   string
	SecFetchDest   string
}

var browserProfiles = []BrowserProfile{
	// Chrome on Windows
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.9",
		SecFetchSite:   "none",
		SecFetchMode:   "navigate",
		SecFetchDest:   "document",
	},
	// Chrome on macOS
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.9",
		SecFetchSite:   "none",
		SecFetchMode:   "navigate",
		SecFetchDest:   "document",
	},
	// Firefox on Windows
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:134.0) Gecko/20100101 Firefox/134.0",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.5",
	},
}

// RandomProfile picks a browser profile using the supplied source.
func RandomProfile(rnd *rand.Rand) BrowserProfile {
	return browserProfiles[rnd.Intn(len(browserProfiles))]
}

// Apply sets the profile's headers on a request.
func (p BrowserProfile) Apply(req *http.Request) {
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept", p.Accept)
	req.Header.Set("Accept-Language", p.AcceptLanguage)
	if p.SecFetchSite != "" {
		req.Header.Set("Sec-Fetch-Site", p.SecFetchSite)
		req.Header.Set("Sec-Fetch-Mode", p.SecFetchMode)
		req.Header.Set("Sec-Fetch-Dest", p.SecFetchDest)
	}
}
