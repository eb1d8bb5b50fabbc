// google.go downloads font files from the Google Fonts CSS API.

package fontsrc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/adiepenbrock/nerdpaper/internal/atomicfile"
	"github.com/adiepenbrock/nerdpaper/internal/glyph"
)

// DefaultCSSEndpoint is the Google Fonts CSS API.
const DefaultCSSEndpoint = "https://fonts.googleapis.com/css2"

// userAgent is a modern browser UA so the CSS API answers with WOFF2 URLs,
// which are converted locally.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"

// fontURLRe extracts the font file URL from the CSS response.
// Matches: url(https://fonts.gstatic.com/s/inter/v18/xxx.woff2)
var fontURLRe = regexp.MustCompile(`url\(['"]?(https?://[^)'"]+)['"]?\)`)

// weightRe matches a CSS font weight (100-900, or any number the API accepts).
var weightRe = regexp.MustCompile(`^[0-9]{1,4}$`)

// GoogleFont identifies one Google Fonts family and weight.
type GoogleFont struct {
	Family string
	Weight string
}

// ParseFallback parses a "google:FAMILY:WEIGHT" spec.
func ParseFallback(spec string) (GoogleFont, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 || parts[0] != "google" || strings.TrimSpace(parts[1]) == "" {
		return GoogleFont{}, fmt.Errorf("invalid google font spec %q: expected google:FAMILY:WEIGHT", spec)
	}
	if !weightRe.MatchString(parts[2]) {
		return GoogleFont{}, fmt.Errorf("invalid google font spec %q: weight %q is not a number", spec, parts[2])
	}
	return GoogleFont{Family: parts[1], Weight: parts[2]}, nil
}

// cacheName is the file name a downloaded font is cached under.
func (g GoogleFont) cacheName() string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, g.Family)
	return fmt.Sprintf("%s-%s.ttf", safe, g.Weight)
}

// ///////////////////////////////////////////////
// Client
// ///////////////////////////////////////////////

// Client downloads fonts from Google Fonts.
type Client struct {
	// HTTP performs requests with retries on transient failures.
	HTTP *retryablehttp.Client
	// CSSEndpoint is the CSS API URL queried for the font file location.
	CSSEndpoint string
	// Logger receives debug and warning output. Nil uses slog.Default().
	Logger *slog.Logger
	// MaxFontBytes caps the size of a downloaded font file. Zero means
	// [DefaultMaxFontBytes].
	MaxFontBytes int64
}

// DefaultMaxFontBytes is the download limit used when Client.MaxFontBytes is
// zero.
const DefaultMaxFontBytes = 10 << 20

// NewClient returns a Client for the public Google Fonts API.
func NewClient() *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = 2
	hc.HTTPClient.Timeout = 15 * time.Second
	hc.Logger = nil // suppress retryablehttp's default logging
	return &Client{HTTP: hc, CSSEndpoint: DefaultCSSEndpoint}
}

var (
	sharedClient     *Client
	sharedClientOnce sync.Once
)

// defaultClient returns the shared client, initializing it on first call.
func defaultClient() *Client {
	sharedClientOnce.Do(func() {
		sharedClient = NewClient()
	})
	return sharedClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Fetch downloads gf, caching the result in cacheDir. Cached fonts are
// returned without any network access. The returned bytes are always SFNT
// (TTF/OTF), converted from WOFF2 if necessary, and parse as a font; only
// data that parses is written to the cache, and a cached file that no longer
// parses is discarded and downloaded again.
func (c *Client) Fetch(ctx context.Context, gf GoogleFont, cacheDir string) ([]byte, error) {
	cacheFile := filepath.Join(cacheDir, gf.cacheName())
	if data, err := os.ReadFile(cacheFile); err == nil {
		_, perr := glyph.Parse(data)
		if perr == nil {
			c.logger().Debug("font cache hit", "path", cacheFile)
			return data, nil
		}
		c.logger().Warn("discarding unreadable cached font", "path", cacheFile, "error", perr)
		if rmErr := os.Remove(cacheFile); rmErr != nil {
			c.logger().Warn("failed to remove cached font", "path", cacheFile, "error", rmErr)
		}
	}

	cssURL := fmt.Sprintf("%s?family=%s:wght@%s", c.CSSEndpoint, url.QueryEscape(gf.Family), gf.Weight)
	css, err := c.get(ctx, cssURL, 1<<20)
	if err != nil {
		return nil, fmt.Errorf("fetch CSS for %s wght@%s: %w", gf.Family, gf.Weight, err)
	}

	m := fontURLRe.FindSubmatch(css)
	if m == nil {
		return nil, fmt.Errorf("no font URL found in Google Fonts CSS response for %s wght@%s", gf.Family, gf.Weight)
	}
	fontURL := string(m[1])

	data, err := c.get(ctx, fontURL, c.maxFontBytes())
	if err != nil {
		return nil, fmt.Errorf("download font file: %w", err)
	}
	data, err = maybeConvertWOFF2(fontURL, data)
	if err != nil {
		return nil, err
	}
	if _, err := glyph.Parse(data); err != nil {
		return nil, fmt.Errorf("downloaded font %s: %w", fontURL, err)
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		c.logger().Warn("failed to create font cache dir", "path", cacheDir, "error", err)
		return data, nil
	}
	if err := atomicfile.Write(cacheFile, data, 0o644); err != nil {
		c.logger().Warn("failed to cache font", "path", cacheFile, "error", err)
	}
	return data, nil
}

func (c *Client) maxFontBytes() int64 {
	if c.MaxFontBytes > 0 {
		return c.MaxFontBytes
	}
	return DefaultMaxFontBytes
}

// get performs a GET and returns the body of a 200 response. Bodies larger
// than limit bytes are an error.
func (c *Client) get(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("GET %s: response exceeds %d bytes", rawURL, limit)
	}
	return body, nil
}
