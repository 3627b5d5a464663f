package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// pngBytes is a real 2x2 PNG; the loader rejects anything that does not
// fully decode.
var pngBytes = func() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}()

func TestLoadInline(t *testing.T) {
	l := New(t.TempDir(), time.Second)
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	img, err := l.Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("Load inline: %v", err)
	}
	if img.Format != "PNG" {
		t.Errorf("format = %s, want PNG", img.Format)
	}
	if len(img.Data) != len(pngBytes) {
		t.Errorf("data length = %d, want %d", len(img.Data), len(pngBytes))
	}
}

func TestLoadInlineMalformed(t *testing.T) {
	l := New(t.TempDir(), time.Second)
	cases := []struct {
		name string
		ref  string
	}{
		{"no comma", "data:image/png;base64"},
		{"bad base64", "data:image/png;base64,!!!not-base64!!!"},
		{"not an image", "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))},
		{"truncated png", "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes[:12])},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := l.Load(context.Background(), tc.ref); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.png":
			w.Write(pngBytes)
		case "/missing.png":
			http.NotFound(w, r)
		default:
			w.Write([]byte("plain text"))
		}
	}))
	defer srv.Close()

	l := New(t.TempDir(), time.Second)

	img, err := l.Load(context.Background(), srv.URL+"/photo.png")
	if err != nil {
		t.Fatalf("Load remote: %v", err)
	}
	if img.Format != "PNG" {
		t.Errorf("format = %s, want PNG", img.Format)
	}

	if _, err := l.Load(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Error("404 should yield an error")
	}
	if _, err := l.Load(context.Background(), srv.URL+"/other"); err == nil {
		t.Error("non-image body should yield an error")
	}
}

func TestLoadRemoteUnreachable(t *testing.T) {
	l := New(t.TempDir(), 200*time.Millisecond)
	if _, err := l.Load(context.Background(), "http://127.0.0.1:1/nope.png"); err == nil {
		t.Error("unreachable host should yield an error, not hang")
	}
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "crew.png"), pngBytes, 0o644); err != nil {
		t.Fatal(err)
	}
	l := New(root, time.Second)

	img, err := l.Load(context.Background(), "crew.png")
	if err != nil {
		t.Fatalf("Load file: %v", err)
	}
	if img.Format != "PNG" {
		t.Errorf("format = %s, want PNG", img.Format)
	}

	if _, err := l.Load(context.Background(), "absent.png"); err == nil {
		t.Error("missing file should yield an error")
	}
}

func TestLoadFileRejectsTraversal(t *testing.T) {
	l := New(t.TempDir(), time.Second)
	for _, ref := range []string{"../secrets.png", "/etc/passwd", "a/../../b.png"} {
		if _, err := l.Load(context.Background(), ref); err == nil {
			t.Errorf("ref %q should be rejected", ref)
		}
	}
}

func TestLoadEmptyRef(t *testing.T) {
	l := New(t.TempDir(), time.Second)
	if _, err := l.Load(context.Background(), ""); err == nil {
		t.Error("empty ref should yield an error")
	}
}
