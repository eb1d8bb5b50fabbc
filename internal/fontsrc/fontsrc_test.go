// fontsrc_test.go tests local font lookup (plain paths and globs), the Google
// Fonts fallback against an httptest server including the disk cache, and
// the fallback parser and WOFF2 helpers.

package fontsrc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// ///////////////////////////////////////////////
// Local Fonts
// ///////////////////////////////////////////////

func TestResolveLocalPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Go-Regular.ttf"), goregular.TTF)

	f, err := NewClient().Resolve(context.Background(), Spec{Path: "Go-Regular.ttf", BaseDir: dir})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if f.Name() != "Go" {
		t.Errorf("Name() = %q, want Go", f.Name())
	}
}

func TestResolveAbsolutePathIgnoresBaseDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "font.ttf")
	writeFile(t, path, goregular.TTF)

	if _, err := NewClient().Resolve(context.Background(), Spec{Path: path, BaseDir: "/does/not/exist"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
}

func TestResolveGlobFirstLexicalMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fonts", "a", "Icons.ttf"), goregular.TTF)
	writeFile(t, filepath.Join(dir, "fonts", "b", "Icons.ttf"), []byte("not a font"))

	_, err := NewClient().Resolve(context.Background(), Spec{Path: "fonts/**/*.ttf", BaseDir: dir})
	if err != nil {
		t.Fatalf("Resolve picked the wrong match: %v", err)
	}
}

func TestLocalPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fonts", "icons.ttf"), goregular.TTF)

	tests := []struct {
		name string
		spec Spec
		want string
	}{
		{"glob match", Spec{Path: "fonts/*.ttf", BaseDir: dir}, filepath.Join(dir, "fonts", "icons.ttf")},
		{"no match", Spec{Path: "fonts/*.otf", BaseDir: dir}, ""},
		{"no path", Spec{Fallback: "google:Inter:800", BaseDir: dir}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LocalPath(tt.spec)
			if err != nil {
				t.Fatalf("LocalPath: %v", err)
			}
			if got != tt.want {
				t.Errorf("LocalPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveLocalErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.ttf"), []byte("not a font"))

	tests := []struct {
		name string
		spec Spec
	}{
		{"nothing configured", Spec{BaseDir: dir}},
		{"no match", Spec{Path: "missing/*.ttf", BaseDir: dir}},
		{"unparsable", Spec{Path: "broken.ttf", BaseDir: dir}},
		{"bad pattern", Spec{Path: "fonts/[.ttf", BaseDir: dir}},
		{"bad fallback", Spec{Path: "missing.ttf", Fallback: "inter", BaseDir: dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient().Resolve(context.Background(), tt.spec)
			if !errors.Is(err, ErrFontLoad) {
				t.Errorf("error = %v, want ErrFontLoad", err)
			}
		})
	}
}

// ///////////////////////////////////////////////
// Google Fonts
// ///////////////////////////////////////////////

// fontServer serves a CSS endpoint that points at a TTF on the same server.
func fontServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return fontServerWith(t, hits, func() []byte { return goregular.TTF })
}

// fontServerWith is fontServer with the font file body supplied by body on
// every request.
func fontServerWith(t *testing.T, hits *atomic.Int32, body func() []byte) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/css2", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.URL.Query().Get("family"); got != "Go Regular:wght@400" {
			http.Error(w, "unexpected family "+got, http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, "@font-face {\n  src: url(%s/files/go.ttf) format('truetype');\n}\n", srv.URL)
	})
	mux.HandleFunc("/files/go.ttf", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(body())
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testClient(endpoint string) *Client {
	c := NewClient()
	c.HTTP.RetryMax = 0
	c.CSSEndpoint = endpoint
	return c
}

func TestResolveGoogleFallbackAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := fontServer(t, &hits)
	cache := filepath.Join(t.TempDir(), "cache")
	spec := Spec{Path: "missing.ttf", Fallback: "google:Go Regular:400", BaseDir: t.TempDir(), CacheDir: cache}

	c := testClient(srv.URL + "/css2")
	f, err := c.Resolve(context.Background(), spec)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if f.Name() != "Go" {
		t.Errorf("Name() = %q, want Go", f.Name())
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2 (css + font)", hits.Load())
	}
	if _, err := os.Stat(filepath.Join(cache, "Go_Regular-400.ttf")); err != nil {
		t.Errorf("font not cached: %v", err)
	}

	if _, err := c.Resolve(context.Background(), spec); err != nil {
		t.Fatalf("Resolve from cache: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits after cached resolve = %d, want still 2", hits.Load())
	}
}

func TestResolveGoogleBadDownloadNotCached(t *testing.T) {
	var hits atomic.Int32
	var full atomic.Bool
	srv := fontServerWith(t, &hits, func() []byte {
		if full.Load() {
			return goregular.TTF
		}
		return goregular.TTF[:len(goregular.TTF)/3]
	})
	cache := filepath.Join(t.TempDir(), "cache")
	spec := Spec{Fallback: "google:Go Regular:400", CacheDir: cache}
	c := testClient(srv.URL + "/css2")

	if _, err := c.Resolve(context.Background(), spec); !errors.Is(err, ErrFontLoad) {
		t.Fatalf("truncated download: error = %v, want ErrFontLoad", err)
	}
	if _, err := os.Stat(filepath.Join(cache, "Go_Regular-400.ttf")); !os.IsNotExist(err) {
		t.Errorf("truncated font was cached: %v", err)
	}

	full.Store(true)
	if _, err := c.Resolve(context.Background(), spec); err != nil {
		t.Fatalf("Resolve after server recovered: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cache, "Go_Regular-400.ttf")); err != nil {
		t.Errorf("valid font not cached: %v", err)
	}
}

func TestResolveGoogleRefetchesCorruptCache(t *testing.T) {
	var hits atomic.Int32
	srv := fontServer(t, &hits)
	cache := filepath.Join(t.TempDir(), "cache")
	cached := filepath.Join(cache, "Go_Regular-400.ttf")
	writeFile(t, cached, goregular.TTF[:100])

	f, err := testClient(srv.URL+"/css2").Resolve(context.Background(), Spec{
		Fallback: "google:Go Regular:400",
		CacheDir: cache,
	})
	if err != nil {
		t.Fatalf("Resolve with corrupt cache: %v", err)
	}
	if f.Name() != "Go" {
		t.Errorf("Name() = %q, want Go", f.Name())
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2 (css + font)", hits.Load())
	}
	data, err := os.ReadFile(cached)
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	if len(data) != len(goregular.TTF) {
		t.Errorf("cache holds %d bytes, want %d", len(data), len(goregular.TTF))
	}
}

func TestResolveGoogleOversizedDownload(t *testing.T) {
	var hits atomic.Int32
	srv := fontServer(t, &hits)
	cache := filepath.Join(t.TempDir(), "cache")
	c := testClient(srv.URL + "/css2")
	c.MaxFontBytes = int64(len(goregular.TTF) - 1)

	_, err := c.Resolve(context.Background(), Spec{Fallback: "google:Go Regular:400", CacheDir: cache})
	if !errors.Is(err, ErrFontLoad) {
		t.Fatalf("error = %v, want ErrFontLoad", err)
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("error %q does not mention the size limit", err)
	}
	if _, err := os.Stat(filepath.Join(cache, "Go_Regular-400.ttf")); !os.IsNotExist(err) {
		t.Errorf("oversized font was cached: %v", err)
	}

	c.MaxFontBytes = int64(len(goregular.TTF))
	if _, err := c.Resolve(context.Background(), Spec{Fallback: "google:Go Regular:400", CacheDir: cache}); err != nil {
		t.Errorf("font exactly at the limit: %v", err)
	}
}

func TestResolveGoogleServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Resolve(context.Background(), Spec{
		Fallback: "google:Inter:800",
		CacheDir: t.TempDir(),
	})
	if !errors.Is(err, ErrFontLoad) {
		t.Errorf("error = %v, want ErrFontLoad", err)
	}
}

func TestResolveGoogleNoFontURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "/* no font-face here */")
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Resolve(context.Background(), Spec{
		Fallback: "google:Inter:800",
		CacheDir: t.TempDir(),
	})
	if !errors.Is(err, ErrFontLoad) {
		t.Errorf("error = %v, want ErrFontLoad", err)
	}
}

func TestResolveGoogleCancelled(t *testing.T) {
	var hits atomic.Int32
	srv := fontServer(t, &hits)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL+"/css2").Resolve(ctx, Spec{
		Fallback: "google:Go Regular:400",
		CacheDir: t.TempDir(),
	})
	if !errors.Is(err, ErrFontLoad) {
		t.Errorf("error = %v, want ErrFontLoad", err)
	}
}

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

func TestParseFallback(t *testing.T) {
	tests := []struct {
		spec    string
		want    GoogleFont
		wantErr bool
	}{
		{"google:Inter:800", GoogleFont{"Inter", "800"}, false},
		{"google:JetBrains Mono:400", GoogleFont{"JetBrains Mono", "400"}, false},
		{"google:Inter", GoogleFont{}, true},
		{"local:Inter:800", GoogleFont{}, true},
		{"google::800", GoogleFont{}, true},
		{"google:Inter:bold", GoogleFont{}, true},
		{"", GoogleFont{}, true},
	}
	for _, tt := range tests {
		got, err := ParseFallback(tt.spec)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFallback(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFallback(%q) = %+v, want %+v", tt.spec, got, tt.want)
		}
	}
}

func TestIsWOFF2(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"font.woff2", nil, true},
		{"FONT.WOFF2", nil, true},
		{"font.bin", []byte("wOF2rest"), true},
		{"font.ttf", goregular.TTF, false},
		{"font.ttf", []byte("wO"), false},
	}
	for _, tt := range tests {
		if got := isWOFF2(tt.name, tt.data); got != tt.want {
			t.Errorf("isWOFF2(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMaybeConvertWOFF2Passthrough(t *testing.T) {
	out, err := maybeConvertWOFF2("font.ttf", goregular.TTF)
	if err != nil {
		t.Fatalf("maybeConvertWOFF2: %v", err)
	}
	if &out[0] != &goregular.TTF[0] {
		t.Error("SFNT data was copied or converted")
	}

	if _, err := maybeConvertWOFF2("font.woff2", []byte("wOF2 but truncated")); err == nil {
		t.Error("expected error converting corrupt WOFF2")
	}
}
