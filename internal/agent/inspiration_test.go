package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLookupScrapesPins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
			<html><body>
			<a href="/pin/111111/">one</a>
			<a href="/pin/222222/">two</a>
			<a href="/pin/111111/">dup</a>
			</body></html>`))
	}))
	defer srv.Close()

	c := &InspirationClient{BaseURL: srv.URL}
	result := c.Lookup(context.Background(), "botanical watercolor", "loose", "")

	pins, ok := result["pins"].([]Pin)
	if !ok {
		t.Fatalf("no pins in result: %+v", result)
	}
	if len(pins) != 2 {
		t.Fatalf("have %d pins, want 2 (deduped)", len(pins))
	}
	if !strings.Contains(pins[0].PinURL, "/pin/111111/") {
		t.Fatalf("pin url = %q", pins[0].PinURL)
	}
	if result["success"] != true {
		t.Fatalf("success = %v", result["success"])
	}
}

func TestLookupFallsBackToPalettes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	c := &InspirationClient{BaseURL: srv.URL}
	result := c.Lookup(context.Background(), "botanical study", "", "")

	palettes, ok := result["palettes"].([]Palette)
	if !ok || len(palettes) == 0 {
		t.Fatalf("no fallback palettes: %+v", result)
	}
	if palettes[0].Title != "Watercolor Botanicals" {
		t.Fatalf("palette = %+v", palettes[0])
	}
	if result["success"] != true {
		t.Fatal("fallback must still report success")
	}
	if _, ok := result["search_url"].(string); !ok {
		t.Fatal("search_url missing")
	}
}

func TestLookupUnknownThemeUsesDefaultPalettes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := &InspirationClient{BaseURL: srv.URL}
	result := c.Lookup(context.Background(), "something nobody curated", "", "")

	palettes, ok := result["palettes"].([]Palette)
	if !ok || len(palettes) == 0 {
		t.Fatalf("no default palettes: %+v", result)
	}
}

func TestLookupBoardURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`<a href="/pin/333/">x</a>`))
	}))
	defer srv.Close()

	c := &InspirationClient{BaseURL: srv.URL}
	result := c.Lookup(context.Background(), "cozy", "", "artist/cozy-corner")

	if gotPath != "/artist/cozy-corner/" {
		t.Fatalf("fetched %q", gotPath)
	}
	if _, ok := result["pins"].([]Pin); !ok {
		t.Fatalf("board fetch returned %+v", result)
	}
}
