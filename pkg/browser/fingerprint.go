package browser

import (
	"encoding/json"
	"fmt"
)

// Fingerprint is the client profile presented to the target site.
type Fingerprint struct {
	UserAgent      string
	AcceptLanguage string
	Locale         string
	Languages      []string
	Timezone       string
	Latitude       float64
	Longitude      float64
	Width          int
	Height         int
	Platform       string
}

// DefaultFingerprint looks like a desktop Chrome user in Kyiv.
func DefaultFingerprint() Fingerprint {
	return Fingerprint{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
		AcceptLanguage: "uk-UA,uk;q=0.9,en-US;q=0.8,en;q=0.7",
		Locale:         "uk-UA",
		Languages:      []string{"uk-UA", "uk", "en-US", "en"},
		Timezone:       "Europe/Kyiv",
		Latitude:       50.4501,
		Longitude:      30.5234,
		Width:          1920,
		Height:         1080,
		Platform:       "Win32",
	}
}

// StealthScript hides the usual automation markers. It is registered to run
// before any page script on every new document.
func (fp Fingerprint) StealthScript() string {
	langs, _ := json.Marshal(fp.Languages)
	platform, _ := json.Marshal(fp.Platform)
	return fmt.Sprintf(`
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => %s });
Object.defineProperty(navigator, 'platform', { get: () => %s });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => 8 });
window.chrome = window.chrome || { runtime: {} };
const originalQuery = window.navigator.permissions && window.navigator.permissions.query;
if (originalQuery) {
	window.navigator.permissions.query = (p) => p && p.name === 'notifications'
		? Promise.resolve({ state: Notification.permission })
		: originalQuery(p);
}
const getParameter = WebGLRenderingContext.prototype.getParameter;
WebGLRenderingContext.prototype.getParameter = function (p) {
	if (p === 37445) return 'Intel Inc.';
	if (p === 37446) return 'Intel Iris OpenGL Engine';
	return getParameter.call(this, p);
};
`, langs, platform)
}
