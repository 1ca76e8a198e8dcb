package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectLocale(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		country string
		want    string
	}{
		{
			name:    "explicit locale header wins",
			headers: map[string]string{"X-Locale": "id_ID", "Accept-Language": "en-US,en;q=0.8"},
			want:    "id-ID",
		},
		{
			name:    "accept language ordering",
			headers: map[string]string{"Accept-Language": "fr-CA,fr;q=0.9,en;q=0.5"},
			want:    "fr-CA",
		},
		{
			name:    "country infers language",
			country: "ID",
			want:    "id",
		},
		{
			name:    "garbage header falls back",
			headers: map[string]string{"X-Locale": "!!nope!!"},
			want:    "en",
		},
		{
			name: "empty request falls back",
			want: "en",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			got := detectLocale(req, "en", tc.country)
			if got != tc.want {
				t.Fatalf("detectLocale = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveCountryPrefersEdgeHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	req.Header.Set("CF-IPCountry", "sg")
	req.Header.Set("Accept-Language", "en-US")

	lookupCalled := false
	got := resolveCountry(req, func(string) (string, error) {
		lookupCalled = true
		return "US", nil
	})
	if got != "SG" {
		t.Fatalf("resolveCountry = %q, want SG", got)
	}
	if lookupCalled {
		t.Fatal("geo lookup should not run when edge header present")
	}
}

func TestResolveCountryFallsBackToLookup(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	req.RemoteAddr = "203.0.113.7:51234"

	got := resolveCountry(req, func(ip string) (string, error) {
		if ip != "203.0.113.7" {
			t.Fatalf("lookup received ip %q", ip)
		}
		return "ID", nil
	})
	if got != "ID" {
		t.Fatalf("resolveCountry = %q, want ID", got)
	}
}

func TestClientIPParsesForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	if ip := ClientIP(req); ip != "198.51.100.4" {
		t.Fatalf("ClientIP = %q", ip)
	}
}

func TestI18NMiddlewareStoresContextValues(t *testing.T) {
	var gotLocale, gotCountry string
	handler := I18N("en", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocale = LocaleFromContext(r.Context())
		gotCountry = CountryFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	req.Header.Set("X-Locale", "id-ID")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotLocale != "id-ID" {
		t.Fatalf("locale = %q, want id-ID", gotLocale)
	}
	if gotCountry != "ID" {
		t.Fatalf("country = %q, want ID", gotCountry)
	}
}
