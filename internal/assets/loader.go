// Package assets resolves photo and template image references into
// pixel data. A reference may be an inline data URI, a remote URL, or
// a path under the configured asset root. Every failure mode returns an
// error; callers degrade to a placeholder, never abort a render.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eventops/crewbadge/internal/metrics"
)

// maxImageBytes caps remote fetches; anything larger is rejected.
const maxImageBytes = 10 << 20

// Image is decoded reference data plus the format tag the PDF layer
// needs to register it.
type Image struct {
	Data   []byte
	Format string // "PNG", "JPG" or "GIF"
}

// Loader dispatches on reference shape. Safe for concurrent use.
type Loader struct {
	root   string
	client *http.Client
}

// New creates a Loader rooted at the given asset directory. fetchTimeout
// bounds every remote fetch; zero means 5s.
func New(root string, fetchTimeout time.Duration) *Loader {
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}
	return &Loader{
		root:   root,
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Load resolves ref into image data. The returned error tells the
// caller to fall back to a placeholder; it carries the reason for logs.
func (l *Loader) Load(ctx context.Context, ref string) (*Image, error) {
	var (
		source string
		img    *Image
		err    error
	)
	switch {
	case ref == "":
		return nil, fmt.Errorf("empty image reference")
	case strings.HasPrefix(ref, "data:"):
		source = "inline"
		img, err = l.loadInline(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		source = "remote"
		img, err = l.loadRemote(ctx, ref)
	default:
		source = "file"
		img, err = l.loadFile(ref)
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ImageLoads.WithLabelValues(source, status).Inc()
	return img, err
}

func (l *Loader) loadInline(ref string) (*Image, error) {
	_, encoded, found := strings.Cut(ref, ",")
	if !found {
		return nil, fmt.Errorf("malformed data URI")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}
	return imageFromBytes(data)
}

func (l *Loader) loadRemote(ctx context.Context, ref string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image %s: %w", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image %s: status %d", ref, resp.StatusCode)
	}
	// Buffer the full body before decoding; partial reads must not
	// reach the PDF layer.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", ref, err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image %s exceeds %d bytes", ref, maxImageBytes)
	}
	return imageFromBytes(data)
}

func (l *Loader) loadFile(ref string) (*Image, error) {
	clean := filepath.Clean(ref)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("image path %q escapes asset root", ref)
	}
	data, err := os.ReadFile(filepath.Join(l.root, clean))
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", clean, err)
	}
	return imageFromBytes(data)
}

// imageFromBytes sniffs the content type, verifies the data actually
// decodes, and maps it to the format tags the renderer understands.
// Truncated or corrupt data must fail here, not inside the PDF layer.
func imageFromBytes(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	var format string
	switch http.DetectContentType(data) {
	case "image/png":
		format = "PNG"
	case "image/jpeg":
		format = "JPG"
	case "image/gif":
		format = "GIF"
	default:
		return nil, fmt.Errorf("unsupported image format")
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return &Image{Data: data, Format: format}, nil
}
