package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"debtbook/database/dbtest"
	"debtbook/models"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
)

var addedAt = time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newSync(t *testing.T, maxImages int) (*AttachmentSync, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	db := dbtest.New(t)
	sync := NewAttachmentSync(NewMetadataStore(db.DB), NewBlobStore(fs, "/blobs"), Options{
		HMACKey:   []byte("test-key"),
		MaxImages: maxImages,
		MaxEdge:   40,
		Now:       func() time.Time { return addedAt },
	})
	return sync, fs
}

func TestNormalizeImageDownscales(t *testing.T) {
	out, err := NormalizeImage(pngBytes(t, 100, 50), 40)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Fatalf("expected 40x20, got %v", img.Bounds())
	}
}

func TestNormalizeImageRejectsGarbage(t *testing.T) {
	if _, err := NormalizeImage([]byte("not an image"), 40); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestDecodeDataURL(t *testing.T) {
	raw := []byte{1, 2, 3}
	encoded := base64.StdEncoding.EncodeToString(raw)

	for _, in := range []string{"data:image/png;base64," + encoded, encoded} {
		got, err := DecodeDataURL(in)
		if err != nil {
			t.Fatalf("decode %q: %v", in, err)
		}
		if !bytes.Equal(got, raw) {
			t.Fatalf("unexpected bytes %v", got)
		}
	}
	if _, err := DecodeDataURL("data:text/plain,hello"); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestAddListAndContent(t *testing.T) {
	ctx := context.Background()
	sync, fs := newSync(t, 20)

	img, err := sync.Add(ctx, "debt-1", pngBytes(t, 10, 10))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if img.ContentType != ContentTypeJPEG || !img.AddedAt.Equal(addedAt) || img.Checksum == "" {
		t.Fatalf("unexpected image metadata: %+v", img)
	}

	listed, err := sync.List(ctx, "debt-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != img.ID || listed[0].Content != nil {
		t.Fatalf("metadata must not carry content: %+v", listed)
	}

	exists, err := afero.Exists(fs, "/blobs/debt-1/"+img.ID+".jpg")
	if err != nil || !exists {
		t.Fatalf("expected blob on disk, err=%v", err)
	}

	got, err := sync.Content(ctx, "debt-1", img.ID)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if int64(len(got.Content)) != img.Size {
		t.Fatalf("expected %d bytes, got %d", img.Size, len(got.Content))
	}
}

func TestAddEnforcesLimit(t *testing.T) {
	ctx := context.Background()
	sync, _ := newSync(t, 2)
	raw := pngBytes(t, 8, 8)

	for i := 0; i < 2; i++ {
		if _, err := sync.Add(ctx, "debt-1", raw); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if _, err := sync.Add(ctx, "debt-1", raw); !errors.Is(err, ErrTooManyImages) {
		t.Fatalf("expected ErrTooManyImages, got %v", err)
	}
}

func TestReplaceAndRemove(t *testing.T) {
	ctx := context.Background()
	sync, fs := newSync(t, 20)

	first, err := sync.Add(ctx, "debt-1", pngBytes(t, 8, 8))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := sync.Add(ctx, "debt-1", pngBytes(t, 9, 9))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	later := addedAt.Add(time.Hour)
	sync.now = func() time.Time { return later }
	replaced, err := sync.Replace(ctx, "debt-1", first.ID, pngBytes(t, 30, 30))
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if !replaced.AddedAt.Equal(later) || replaced.Checksum == first.Checksum {
		t.Fatalf("replace must refresh timestamp and checksum: %+v", replaced)
	}

	if err := sync.Remove(ctx, "debt-1", first.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	listed, _ := sync.List(ctx, "debt-1")
	if len(listed) != 1 || listed[0].ID != second.ID {
		t.Fatalf("expected only the second image, got %+v", listed)
	}
	if exists, _ := afero.Exists(fs, "/blobs/debt-1/"+first.ID+".jpg"); exists {
		t.Fatalf("removed blob must be deleted from disk")
	}

	if err := sync.Remove(ctx, "debt-1", "missing"); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound, got %v", err)
	}
}

func TestContentDetectsTampering(t *testing.T) {
	ctx := context.Background()
	sync, fs := newSync(t, 20)

	img, err := sync.Add(ctx, "debt-1", pngBytes(t, 8, 8))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := afero.WriteFile(fs, "/blobs/debt-1/"+img.ID+".jpg", []byte("tampered"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := sync.Content(ctx, "debt-1", img.ID); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestHydrateAndPurge(t *testing.T) {
	ctx := context.Background()
	sync, fs := newSync(t, 20)

	img, err := sync.Add(ctx, "debt-1", pngBytes(t, 8, 8))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	debts := []models.Debt{{ID: "debt-1"}, {ID: "debt-2"}}
	if err := sync.Hydrate(ctx, debts); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if len(debts[0].Images) != 1 || debts[0].Images[0].ID != img.ID || len(debts[0].Images[0].Content) == 0 {
		t.Fatalf("expected hydrated image, got %+v", debts[0].Images)
	}
	if debts[1].Images == nil || len(debts[1].Images) != 0 {
		t.Fatalf("debt without images must get an empty slice")
	}

	if err := sync.Purge(ctx, "debt-1"); err != nil {
		t.Fatalf("purge: %v", err)
	}
	listed, _ := sync.List(ctx, "debt-1")
	if len(listed) != 0 {
		t.Fatalf("expected no metadata after purge")
	}
	if exists, _ := afero.DirExists(fs, "/blobs/debt-1"); exists {
		t.Fatalf("expected blob dir to be removed")
	}
}
