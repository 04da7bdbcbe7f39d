package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/davesmith10/pngcms/internal/ir"
	"github.com/davesmith10/pngcms/internal/pixfmt"
	"github.com/davesmith10/pngcms/internal/png"
)

func testImage(w, h int, f pixfmt.Format) *ir.Image {
	img := ir.NewImage(w, h, f)
	for i := range img.Pix {
		img.Pix[i] = byte(i*31 + 7)
	}
	return img
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.LoaderFor(".png"); ok {
		t.Fatal("empty registry has a loader")
	}
	Init(r)

	for _, key := range []string{"image/png", ".png", ".PNG"} {
		if op, ok := r.LoaderFor(key); !ok || op != LoadOp {
			t.Errorf("LoaderFor(%q) = %q, %t", key, op, ok)
		}
	}
	if op, err := r.SaverForPath("out/Picture.Png"); err != nil || op != SaveOp {
		t.Errorf("SaverForPath = %q, %v", op, err)
	}
	if _, err := r.SaverForPath("out.jpg"); err == nil {
		t.Error("SaverForPath(out.jpg) succeeded")
	}
	if _, ok := r.SaverFor("image/png"); ok {
		t.Error("MIME type registered as a saver")
	}
	if op, err := r.LoaderForPath("/tmp/a.png"); err != nil || op != LoadOp {
		t.Errorf("LoaderForPath = %q, %v", op, err)
	}
}

func TestLocators(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.bin")

	w, err := OpenOutput("file://" + path)
	if err != nil {
		t.Fatalf("OpenOutput: %v", err)
	}
	w.Write([]byte("hello"))
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenInput(path)
	if err != nil {
		t.Fatalf("OpenInput: %v", err)
	}
	defer r.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	if buf.String() != "hello" {
		t.Errorf("read %q, want hello", buf.String())
	}

	if _, err := OpenInput("http://example.com/a.png"); err == nil {
		t.Error("OpenInput accepted an http URI")
	}
	if _, err := OpenInput(filepath.Join(dir, "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rgba.png")
	img := testImage(13, 7, pixfmt.New(pixfmt.RGBA, 16, nil))
	ctx := context.Background()

	if err := Save(ctx, path, img, SaveOptions{Interlace: true, Compression: 9}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, info, err := Load(ctx, path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !info.Interlaced || info.BitDepth != 16 {
		t.Errorf("info = %+v", info)
	}
	if diff := cmp.Diff(img.Pix, got.Pix); diff != "" {
		t.Errorf("pixels differ (-want +got):\n%s", diff)
	}

	if w, h := BoundingBox(path, nil); w != 13 || h != 7 {
		t.Errorf("BoundingBox = %dx%d, want 13x7", w, h)
	}
}

func TestSaveEightBit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gray.png")
	img := testImage(5, 5, pixfmt.New(pixfmt.Gray, 8, nil))
	if err := Save(context.Background(), path, img, SaveOptions{BitDepth: 8}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, info, err := Load(context.Background(), path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if info.Format.String() != "Y' u8" {
		t.Errorf("format = %s, want Y' u8", info.Format)
	}
	if !bytes.Equal(img.Pix, got.Pix) {
		t.Error("pixels differ")
	}
}

func TestBoundingBoxFailures(t *testing.T) {
	dir := t.TempDir()
	notPNG := filepath.Join(dir, "text.png")
	if err := os.WriteFile(notPNG, []byte("not a png at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, loc := range []string{filepath.Join(dir, "missing.png"), notPNG, "ftp://host/x.png"} {
		if w, h := BoundingBox(loc, nil); w != 0 || h != 0 {
			t.Errorf("BoundingBox(%s) = %dx%d, want 0x0", loc, w, h)
		}
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(path, []byte("GIF89a"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := Load(context.Background(), path, LoadOptions{})
	if !errors.Is(err, png.ErrInvalidHeader) {
		t.Errorf("err = %v, want ErrInvalidHeader", err)
	}
}

func TestRun(t *testing.T) {
	img := testImage(6, 4, pixfmt.New(pixfmt.RGB, 8, nil))
	var src bytes.Buffer
	if err := png.Encode(&src, img, png.EncodeOptions{Width: 6, Height: 4, Channels: 3, BitDepth: 8}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	res, err := Run(context.Background(), src.Bytes(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.SrcWidth != 6 || res.SrcHeight != 4 {
		t.Errorf("source size = %dx%d", res.SrcWidth, res.SrcHeight)
	}
	if res.DstFormat.String() != "R'G'B' u16" {
		t.Errorf("output format = %s, want the 16-bit default", res.DstFormat)
	}

	info, err := png.GetInfo(bytes.NewReader(res.Data), nil)
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if info.BitDepth != 16 || info.Width != 6 {
		t.Errorf("re-encoded info = %+v", info)
	}

	// 8-bit values survive the trip through 16 bits.
	back, err := Run(context.Background(), res.Data, Options{Save: SaveOptions{BitDepth: 8}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := ir.NewImage(6, 4, img.Format)
	if _, err := png.Decode(bytes.NewReader(back.Data), got, png.DecodeOptions{}); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(img.Pix, got.Pix); diff != "" {
		t.Errorf("pixels differ (-want +got):\n%s", diff)
	}
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	img := testImage(4, 4, pixfmt.New(pixfmt.RGB, 8, nil))
	if err := Save(ctx, filepath.Join(dir, "c.png"), img, SaveOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Save: err = %v, want context.Canceled", err)
	}

	path := filepath.Join(dir, "ok.png")
	if err := Save(context.Background(), path, img, SaveOptions{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, _, err := Load(ctx, path, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load: err = %v, want context.Canceled", err)
	}
}
