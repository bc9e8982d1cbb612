package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"cluequest-ar/internal/apierr"
	"cluequest-ar/internal/domain"
	"cluequest-ar/internal/fetch"

	"github.com/rs/zerolog"
)

type memObjectStore struct {
	uploads map[string]int64
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{uploads: make(map[string]int64)}
}

func (s *memObjectStore) Upload(_ context.Context, path string, r io.Reader, _ string) (string, error) {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return "", apierr.UpstreamIO("object upload", err)
	}
	s.uploads[path] = n
	return "https://cdn.test/" + path, nil
}

func newAssetService(assets *fakeAssetStore, objects *memObjectStore, fetcher *fakeFetcher) (*AssetService, OptimizeQueue) {
	q := NewMemoryQueue(8)
	return NewAssetService(assets, objects, fetcher, q, zerolog.Nop()), q
}

func TestIngestResolvesMetadata(t *testing.T) {
	assets := newFakeAssetStore()
	fetcher := &fakeFetcher{meta: &fetch.AssetMetadata{ContentLength: 2048, ETag: "v1-tag"}}
	svc, _ := newAssetService(assets, newMemObjectStore(), fetcher)

	asset, err := svc.Ingest(context.Background(), IngestInput{
		Name:         "Crystal Orb",
		Category:     domain.CategoryObject,
		ModelURL:     "https://models.test/orb.glb",
		PolygonCount: 4000,
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if asset.FileSizeBytes != 2048 {
		t.Fatalf("expected size from metadata, got %d", asset.FileSizeBytes)
	}
	if asset.ETag != "v1-tag" {
		t.Fatalf("expected etag from metadata, got %q", asset.ETag)
	}
	if asset.DefaultScale != 1.0 || asset.AnchorType != "plane" || asset.LicenseType != "standard" {
		t.Fatalf("defaults not applied: %+v", asset)
	}
	if _, err := assets.Get(context.Background(), asset.ID); err != nil {
		t.Fatalf("ingested asset not persisted: %v", err)
	}
}

func TestIngestValidation(t *testing.T) {
	svc, _ := newAssetService(newFakeAssetStore(), newMemObjectStore(), &fakeFetcher{meta: &fetch.AssetMetadata{}})

	cases := map[string]IngestInput{
		"no name":     {Category: domain.CategoryObject, ModelURL: "https://m.test/a.glb", PolygonCount: 1},
		"bad cat":     {Name: "x", Category: "vehicle", ModelURL: "https://m.test/a.glb", PolygonCount: 1},
		"no url":      {Name: "x", Category: domain.CategoryObject, PolygonCount: 1},
		"no polygons": {Name: "x", Category: domain.CategoryObject, ModelURL: "https://m.test/a.glb"},
	}
	for name, in := range cases {
		if _, err := svc.Ingest(context.Background(), in); !apierr.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestIngestPropagatesFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: apierr.UpstreamIO("fetch asset metadata", nil)}
	svc, _ := newAssetService(newFakeAssetStore(), newMemObjectStore(), fetcher)

	_, err := svc.Ingest(context.Background(), IngestInput{
		Name:         "x",
		Category:     domain.CategoryObject,
		ModelURL:     "https://m.test/a.glb",
		PolygonCount: 1,
	})
	if !apierr.IsUpstreamIO(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestUploadRestampsAssetAndWarmsQueue(t *testing.T) {
	existing := testAsset()
	oldETag := existing.ETag
	assets := newFakeAssetStore(existing)
	objects := newMemObjectStore()
	svc, q := newAssetService(assets, objects, &fakeFetcher{})

	body := strings.NewReader("binary model bytes")
	asset, err := svc.Upload(context.Background(), existing.ID, "dragon-v2.glb", "model/gltf-binary", body, "", nil)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if asset.ModelURL != "https://cdn.test/assets/asset-1/dragon-v2.glb" {
		t.Fatalf("unexpected model url %q", asset.ModelURL)
	}
	if asset.FileSizeBytes != int64(len("binary model bytes")) {
		t.Fatalf("expected counted upload size, got %d", asset.FileSizeBytes)
	}
	if asset.ETag == oldETag || asset.ETag == "" {
		t.Fatalf("expected fresh content stamp, got %q", asset.ETag)
	}

	// one warming task per tier
	for i := 0; i < 3; i++ {
		if _, err := q.Dequeue(context.Background()); err != nil {
			t.Fatalf("expected warming task %d: %v", i, err)
		}
	}
}

func TestUploadUnknownAsset(t *testing.T) {
	svc, _ := newAssetService(newFakeAssetStore(), newMemObjectStore(), &fakeFetcher{})

	_, err := svc.Upload(context.Background(), "ghost", "m.glb", "model/gltf-binary", strings.NewReader("x"), "", nil)
	if !apierr.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}
