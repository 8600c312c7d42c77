package shortlink

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
)

const maxReferrerLength = 500

// ClientIP extracts the visitor's address, preferring the first hop of a
// proxy-forwarded header over the socket address.
func ClientIP(c *fiber.Ctx) string {
	if fwd := c.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "127.0.0.1"
}

// SanitizeReferrer strips characters usable for injection, caps the length
// and requires the remainder to parse as an absolute URL. Anything else is
// stored as null rather than rejected.
func SanitizeReferrer(raw string) *string {
	if raw == "" {
		return nil
	}

	clean := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '\'', '"':
			return -1
		}
		return r
	}, raw)

	if len(clean) > maxReferrerLength {
		cut := maxReferrerLength
		// Back up to a rune boundary so the stored value stays valid UTF-8.
		for cut > 0 && !utf8.RuneStart(clean[cut]) {
			cut--
		}
		clean = clean[:cut]
	}

	parsed, err := url.Parse(clean)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil
	}

	return &clean
}

// ExtractUTM pulls the five standard UTM query parameters off the inbound
// request. These are the visit-time values, independent of whatever UTM set
// is stored on the short link itself.
func ExtractUTM(c *fiber.Ctx) UTMParams {
	return UTMParams{
		Source:   c.Query("utm_source"),
		Medium:   c.Query("utm_medium"),
		Campaign: c.Query("utm_campaign"),
		Term:     c.Query("utm_term"),
		Content:  c.Query("utm_content"),
	}
}

// AppendUTM merges the present UTM parameters into target's query string.
// Existing query parameters are preserved, never clobbered.
func AppendUTM(target string, utm UTMParams) string {
	if utm.IsZero() {
		return target
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return target
	}

	q := parsed.Query()
	set := func(key, value string) {
		if value != "" && q.Get(key) == "" {
			q.Set(key, value)
		}
	}
	set("utm_source", utm.Source)
	set("utm_medium", utm.Medium)
	set("utm_campaign", utm.Campaign)
	set("utm_term", utm.Term)
	set("utm_content", utm.Content)

	parsed.RawQuery = q.Encode()
	return parsed.String()
}
