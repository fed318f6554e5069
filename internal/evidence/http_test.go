package evidence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestHTTPSource_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Accept") != DefaultAccept {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		if r.Header.Get("User-Agent") != "detective-test/1" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`{"description":"Best Practices Badge"}`))
	}))
	defer server.Close()

	src, err := NewHTTPSource(WithHTTPClient(server.Client()), WithToken("tok"), WithUserAgent("detective-test/1"))
	if err != nil {
		t.Fatal(err)
	}
	if got := src.Get(context.Background(), server.URL+"/repos/o/r"); got != `{"description":"Best Practices Badge"}` {
		t.Errorf("Get = %q", got)
	}
}

func TestHTTPSource_FailuresAreEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			w.Write([]byte("late"))
		case "/big":
			w.Write([]byte(strings.Repeat("x", 64)))
		}
	}))
	defer server.Close()

	src, err := NewHTTPSource(
		WithHTTPClient(server.Client()),
		WithTimeout(20*time.Millisecond),
		WithMaxBodyBytes(32),
	)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		url  string
	}{
		{"non-2xx", server.URL + "/missing"},
		{"timeout", server.URL + "/slow"},
		{"oversized", server.URL + "/big"},
		{"bad url", "://nope"},
		{"refused", "http://127.0.0.1:1/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := src.Get(context.Background(), tt.url); got != "" {
				t.Errorf("Get = %q, want empty", got)
			}
		})
	}
}

func TestHTTPSource_RateLimitHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	lim := rate.NewLimiter(rate.Every(time.Hour), 1)
	src, _ := NewHTTPSource(WithHTTPClient(server.Client()), WithRateLimit(lim))

	if got := src.Get(context.Background(), server.URL); got != "ok" {
		t.Fatalf("first Get = %q", got)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if got := src.Get(ctx, server.URL); got != "" {
		t.Errorf("rate-limited Get = %q, want empty", got)
	}
}

func TestNewHTTPSource_InvalidOptions(t *testing.T) {
	if _, err := NewHTTPSource(WithTimeout(0)); err == nil {
		t.Error("zero timeout accepted")
	}
	if _, err := NewHTTPSource(WithMaxBodyBytes(-1)); err == nil {
		t.Error("negative max body accepted")
	}
}
