package service

import (
	"context"
	"sync"
	"time"

	"cluequest-ar/internal/apierr"
	"cluequest-ar/internal/domain"
	"cluequest-ar/internal/fetch"
)

type fakeAssetStore struct {
	mu     sync.Mutex
	assets map[string]*domain.AssetRecord
}

func newFakeAssetStore(assets ...*domain.AssetRecord) *fakeAssetStore {
	s := &fakeAssetStore{assets: make(map[string]*domain.AssetRecord)}
	for _, a := range assets {
		s.assets[a.ID] = a
	}
	return s
}

func (s *fakeAssetStore) Get(_ context.Context, id string) (*domain.AssetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, apierr.NotFound("asset %s not found", id)
	}
	copied := *a
	return &copied, nil
}

func (s *fakeAssetStore) Create(_ context.Context, asset *domain.AssetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *asset
	s.assets[asset.ID] = &copied
	return nil
}

func (s *fakeAssetStore) UpdateUpload(_ context.Context, id, modelURL, thumbnailURL string, sizeBytes int64, etag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return apierr.NotFound("asset %s not found", id)
	}
	a.ModelURL = modelURL
	a.ThumbnailURL = thumbnailURL
	a.FileSizeBytes = sizeBytes
	a.ETag = etag
	a.UpdatedAt = time.Now().UTC()
	return nil
}

type fakeVariantCache struct {
	mu       sync.Mutex
	variants map[string]*domain.OptimizedVariant
	puts     int
}

func newFakeVariantCache() *fakeVariantCache {
	return &fakeVariantCache{variants: make(map[string]*domain.OptimizedVariant)}
}

func (c *fakeVariantCache) Get(_ context.Context, key string) (*domain.OptimizedVariant, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.variants[key]
	if !ok {
		return nil, false, nil
	}
	copied := *v
	return &copied, true, nil
}

func (c *fakeVariantCache) Put(_ context.Context, v *domain.OptimizedVariant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *v
	c.variants[v.CacheKey] = &copied
	c.puts++
	return nil
}

type fakeExperienceStore struct {
	mu               sync.Mutex
	experiences      map[string]*domain.Experience
	createCalls      int
	aggregateUpdates int
	failAggregates   bool
}

func newFakeExperienceStore(experiences ...*domain.Experience) *fakeExperienceStore {
	s := &fakeExperienceStore{experiences: make(map[string]*domain.Experience)}
	for _, e := range experiences {
		s.experiences[e.ID] = e
	}
	return s
}

func (s *fakeExperienceStore) Create(_ context.Context, exp *domain.Experience) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *exp
	s.experiences[exp.ID] = &copied
	s.createCalls++
	return nil
}

func (s *fakeExperienceStore) Get(_ context.Context, id string) (*domain.Experience, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.experiences[id]
	if !ok {
		return nil, apierr.NotFound("experience %s not found", id)
	}
	copied := *e
	return &copied, nil
}

func (s *fakeExperienceStore) UpdateAggregates(_ context.Context, id string, completionRate, errorRate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAggregates {
		return apierr.UpstreamIO("aggregate write failed", nil)
	}
	e, ok := s.experiences[id]
	if !ok {
		return apierr.NotFound("experience %s not found", id)
	}
	e.CompletionRate = completionRate
	e.ErrorRate = errorRate
	s.aggregateUpdates++
	return nil
}

type fakeFetcher struct {
	meta *fetch.AssetMetadata
	err  error
}

func (f *fakeFetcher) Fetch(context.Context, string) (*fetch.AssetMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.meta, nil
}
