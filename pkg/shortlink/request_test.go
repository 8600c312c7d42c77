package shortlink

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
)

func TestSanitizeReferrer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *string
	}{
		{"empty", "", nil},
		{"valid url", "https://twitter.com/some/path", strptr("https://twitter.com/some/path")},
		{"strips angle brackets", "https://evil.com/<script>", strptr("https://evil.com/script")},
		{"strips quotes", `https://site.com/"x'`, strptr("https://site.com/x")},
		{"relative path rejected", "/just/a/path", nil},
		{"garbage rejected", "not a url at all", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeReferrer(tt.raw)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("SanitizeReferrer(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("SanitizeReferrer(%q) = %q, want %q", tt.raw, *got, *tt.want)
			}
		})
	}
}

func TestSanitizeReferrerCapsLength(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("a", 600)
	got := SanitizeReferrer(long)
	if got == nil {
		t.Fatal("long but valid referrer should not be dropped")
	}
	if len(*got) != maxReferrerLength {
		t.Errorf("referrer length = %d, want %d", len(*got), maxReferrerLength)
	}
}

func TestSanitizeReferrerTruncatesOnRuneBoundary(t *testing.T) {
	// Multi-byte path characters positioned so the byte cap lands inside
	// a rune.
	long := "https://example.com/x" + strings.Repeat("ü", 300)
	got := SanitizeReferrer(long)
	if got == nil {
		t.Fatal("long but valid referrer should not be dropped")
	}
	if len(*got) > maxReferrerLength {
		t.Errorf("referrer length = %d, want at most %d", len(*got), maxReferrerLength)
	}
	if !utf8.ValidString(*got) {
		t.Errorf("truncated referrer is not valid UTF-8: %q", *got)
	}
}

func TestAppendUTMMergesWithoutClobbering(t *testing.T) {
	target := "https://wheredjsplay.com/article/festival?utm_source=original&ref=keepme"
	utm := UTMParams{Source: "override", Medium: "social", Campaign: "summer"}

	got := AppendUTM(target, utm)

	parsed, err := url.Parse(got)
	if err != nil {
		t.Fatalf("result does not parse: %v", err)
	}
	q := parsed.Query()

	if q.Get("utm_source") != "original" {
		t.Errorf("utm_source = %q, existing value must win", q.Get("utm_source"))
	}
	if q.Get("utm_medium") != "social" {
		t.Errorf("utm_medium = %q, want social", q.Get("utm_medium"))
	}
	if q.Get("utm_campaign") != "summer" {
		t.Errorf("utm_campaign = %q, want summer", q.Get("utm_campaign"))
	}
	if q.Get("ref") != "keepme" {
		t.Errorf("unrelated parameter ref = %q, want keepme", q.Get("ref"))
	}
}

func TestAppendUTMNoParams(t *testing.T) {
	target := "https://wheredjsplay.com/article/festival"
	if got := AppendUTM(target, UTMParams{}); got != target {
		t.Errorf("AppendUTM with zero params = %q, want unchanged target", got)
	}
}

func TestClientIPPrefersForwardedHeader(t *testing.T) {
	app := fiber.New()

	var got string
	app.Get("/probe", func(c *fiber.Ctx) error {
		got = ClientIP(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if _, err := app.Test(req); err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if got != "203.0.113.9" {
		t.Errorf("ClientIP = %q, want first forwarded hop 203.0.113.9", got)
	}
}

func TestExtractUTM(t *testing.T) {
	app := fiber.New()

	var got UTMParams
	app.Get("/probe", func(c *fiber.Ctx) error {
		got = ExtractUTM(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/probe?utm_source=newsletter&utm_campaign=weekly", nil)
	if _, err := app.Test(req); err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if got.Source != "newsletter" || got.Campaign != "weekly" {
		t.Errorf("ExtractUTM = %+v", got)
	}
	if got.Medium != "" || got.Term != "" || got.Content != "" {
		t.Errorf("absent parameters should be empty, got %+v", got)
	}
}

func strptr(s string) *string { return &s }
