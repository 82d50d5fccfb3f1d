package agent

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Pin is one Pinterest result handed back to the model.
type Pin struct {
	Title  string `json:"title"`
	PinURL string `json:"pin_url"`
}

// Palette is a curated fallback when Pinterest cannot be reached.
type Palette struct {
	Title  string   `json:"title"`
	Colors []string `json:"colors"`
	Style  string   `json:"style"`
}

var fallbackInspirations = map[string][]Palette{
	"botanical": {
		{Title: "Watercolor Botanicals", Colors: []string{"#2d5a27", "#8bc34a", "#f5f5dc"}, Style: "loose"},
		{Title: "Pressed Flower Study", Colors: []string{"#e8d5b7", "#7b5544", "#4a7c59"}, Style: "detailed"},
	},
	"cityscape": {
		{Title: "Moody Urban Night", Colors: []string{"#1a1a2e", "#16213e", "#e94560"}, Style: "atmospheric"},
		{Title: "Golden Hour Skyline", Colors: []string{"#ff9a3c", "#ff6b6b", "#2c3e50"}, Style: "warm"},
	},
	"portrait": {
		{Title: "Expressive Portrait", Colors: []string{"#f5cba7", "#d35400", "#2c3e50"}, Style: "bold"},
		{Title: "Soft Light Study", Colors: []string{"#ffeaa7", "#fab1a0", "#dfe6e9"}, Style: "soft"},
	},
	"abstract": {
		{Title: "Color Field Exploration", Colors: []string{"#6c5ce7", "#a29bfe", "#fd79a8"}, Style: "minimalist"},
		{Title: "Gestural Energy", Colors: []string{"#00b894", "#fdcb6e", "#e17055"}, Style: "dynamic"},
	},
	"crochet": {
		{Title: "Cozy Textures", Colors: []string{"#d4a574", "#8b7355", "#f5f5dc"}, Style: "warm"},
		{Title: "Modern Crochet", Colors: []string{"#e8d5b7", "#c9b896", "#a69076"}, Style: "neutral"},
	},
	"knitting": {
		{Title: "Cable Patterns", Colors: []string{"#5d4e37", "#8b7355", "#c4b7a6"}, Style: "classic"},
		{Title: "Colorwork Inspiration", Colors: []string{"#c44536", "#2d6a4f", "#f4a261"}, Style: "bold"},
	},
}

var pinIDRe = regexp.MustCompile(`/pin/(\d+)/`)

const maxPins = 6

// InspirationClient scrapes public Pinterest pages. Failures fall back to
// curated palettes plus a search link, never an error to the model.
type InspirationClient struct {
	BaseURL    string // overridable for tests; defaults to pinterest.com
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func (c *InspirationClient) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://www.pinterest.com"
}

func (c *InspirationClient) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// Lookup fetches pins for a board when given one, otherwise searches by
// theme. The returned map is the tool result payload.
func (c *InspirationClient) Lookup(ctx context.Context, theme, style, board string) map[string]any {
	query := strings.TrimSpace(theme)
	if style != "" {
		query = strings.TrimSpace(query + " " + style)
	}

	var pins []Pin
	if board != "" {
		pins = c.fetchBoard(ctx, board)
	} else {
		pins = c.searchPins(ctx, query)
	}

	searchURL := c.base() + "/search/pins/?q=" + url.QueryEscape(query)

	if len(pins) > 0 {
		return map[string]any{
			"success":    true,
			"theme":      theme,
			"pins":       pins,
			"search_url": searchURL,
		}
	}

	return map[string]any{
		"success":    true,
		"theme":      theme,
		"palettes":   fallbackFor(theme),
		"search_url": searchURL,
		"message":    "Pinterest was not reachable; here are curated palettes and a search link instead.",
	}
}

func (c *InspirationClient) fetchBoard(ctx context.Context, board string) []Pin {
	boardURL := board
	if !strings.HasPrefix(boardURL, "http") {
		boardURL = c.base() + "/" + strings.Trim(board, "/") + "/"
	}
	return c.scrapePins(ctx, boardURL)
}

func (c *InspirationClient) searchPins(ctx context.Context, query string) []Pin {
	return c.scrapePins(ctx, c.base()+"/search/pins/?q="+url.QueryEscape(query))
}

func (c *InspirationClient) scrapePins(ctx context.Context, pageURL string) []Pin {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.client().Do(req)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warn("pinterest fetch failed", zap.String("url", pageURL), zap.Error(err))
		}
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil
	}

	matches := pinIDRe.FindAllStringSubmatch(string(body), -1)
	seen := map[string]struct{}{}
	pins := make([]Pin, 0, maxPins)
	for _, m := range matches {
		id := m[1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		pins = append(pins, Pin{
			Title:  "Pin " + id,
			PinURL: c.base() + "/pin/" + id + "/",
		})
		if len(pins) >= maxPins {
			break
		}
	}
	return pins
}

func fallbackFor(theme string) []Palette {
	lower := strings.ToLower(theme)
	for key, palettes := range fallbackInspirations {
		if strings.Contains(lower, key) {
			return palettes
		}
	}
	return fallbackInspirations["abstract"]
}
