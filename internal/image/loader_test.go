package image

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmylchreest/hue/internal/colour"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestFileLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "red.png")
	if err := os.WriteFile(path, encodePNG(t, 4, 3, color.RGBA{R: 255, A: 255}), 0o644); err != nil {
		t.Fatal(err)
	}

	img, err := NewFileLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("Load() bounds = %v, want 4x3", b)
	}

	if _, err := NewFileLoader().Load(context.Background(), filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Load(missing) expected error")
	}
	if _, err := NewFileLoader().Load(context.Background(), dir); err == nil {
		t.Error("Load(directory) expected error")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("not an image"))); !errors.Is(err, colour.ErrDecode) {
		t.Errorf("Decode(garbage) error = %v, want ErrDecode", err)
	}
}

func TestValidateImagePath(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "ok.png")
	bad := filepath.Join(dir, "bad.png")
	os.WriteFile(good, encodePNG(t, 1, 1, color.White), 0o644)
	os.WriteFile(bad, []byte("nope"), 0o644)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "valid png", path: good},
		{name: "https url", path: "https://example.com/a.jpg"},
		{name: "empty", path: "", wantErr: true},
		{name: "directory", path: dir, wantErr: true},
		{name: "invalid content", path: bad, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImagePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateImagePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestIsImageFile(t *testing.T) {
	for path, want := range map[string]bool{"a.JPG": true, "b.webp": true, "e.avif": true, "c.txt": false, "d": false} {
		if got := IsImageFile(path); got != want {
			t.Errorf("IsImageFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestSmartLoaderURL(t *testing.T) {
	body := encodePNG(t, 2, 2, color.RGBA{B: 255, A: 255})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer server.Close()

	loader := NewSmartLoader(0, 0)

	img, err := loader.Load(context.Background(), server.URL+"/blue.png")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := colour.ToRGB(img.At(0, 0)); got != (colour.RGB{B: 255}) {
		t.Errorf("pixel = %+v, want blue", got)
	}

	if _, err := loader.Load(context.Background(), server.URL+"/missing.png"); !errors.Is(err, colour.ErrDecode) {
		t.Errorf("Load(404) error = %v, want ErrDecode", err)
	}
}
