// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aisleplan/aisleplan/internal/recommend"
)

// stubFetcher serves canned results and counts calls.
type stubFetcher struct {
	services []recommend.Service
	err      error
	calls    int
}

func (f *stubFetcher) FetchServices(ctx context.Context) ([]recommend.Service, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.services, nil
}

// fakePersister is an in-memory Persister.
type fakePersister struct {
	snap    *Snapshot
	saves   int
	saveErr error
}

func (p *fakePersister) Save(snap *Snapshot) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.snap = snap
	p.saves++
	return nil
}

func (p *fakePersister) Load() (*Snapshot, error) {
	if p.snap == nil {
		return nil, ErrNoSnapshot
	}
	return p.snap, nil
}

func sampleServices() []recommend.Service {
	return []recommend.Service{
		{ID: "svc-1", Category: recommend.CategoryPhotography, Name: "Lens & Light", Rating: 4.8, ReviewCount: 120, Available: true},
		{ID: "svc-2", Category: recommend.CategoryVenue, Name: "Grand Hall", Rating: 4.6, ReviewCount: 310, Available: true},
	}
}

func TestManagerServesFreshSnapshotWithoutRefetch(t *testing.T) {
	fetcher := &stubFetcher{services: sampleServices()}
	mgr := NewManager(fetcher, nil, time.Hour, zerolog.Nop())

	ctx := context.Background()
	first, version, err := mgr.Services(ctx)
	if err != nil {
		t.Fatalf("Services: %v", err)
	}
	if len(first) != 2 || version == "" {
		t.Fatalf("unexpected snapshot: %d services, version %q", len(first), version)
	}

	if _, _, err := mgr.Services(ctx); err != nil {
		t.Fatalf("second Services: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1 (snapshot still fresh)", fetcher.calls)
	}
}

func TestManagerRefreshesExpiredSnapshot(t *testing.T) {
	now := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{services: sampleServices()}
	mgr := NewManager(fetcher, nil, 10*time.Minute, zerolog.Nop(),
		WithClock(func() time.Time { return now }))

	ctx := context.Background()
	if _, _, err := mgr.Services(ctx); err != nil {
		t.Fatalf("Services: %v", err)
	}

	now = now.Add(11 * time.Minute)
	if _, _, err := mgr.Services(ctx); err != nil {
		t.Fatalf("Services after TTL: %v", err)
	}
	if fetcher.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", fetcher.calls)
	}
}

func TestManagerServesStaleOnFetchError(t *testing.T) {
	now := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{services: sampleServices()}
	mgr := NewManager(fetcher, nil, 10*time.Minute, zerolog.Nop(),
		WithClock(func() time.Time { return now }))

	ctx := context.Background()
	_, firstVersion, err := mgr.Services(ctx)
	if err != nil {
		t.Fatalf("Services: %v", err)
	}

	now = now.Add(time.Hour)
	fetcher.err = errors.New("upstream down")

	services, version, err := mgr.Services(ctx)
	if err != nil {
		t.Fatalf("expected stale serve, got error: %v", err)
	}
	if len(services) != 2 {
		t.Errorf("stale serve returned %d services, want 2", len(services))
	}
	if version != firstVersion {
		t.Errorf("stale version = %q, want %q", version, firstVersion)
	}
}

func TestManagerErrorWithoutAnySnapshot(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("upstream down")}
	mgr := NewManager(fetcher, nil, time.Hour, zerolog.Nop())

	_, _, err := mgr.Services(context.Background())
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("err = %v, want ErrCatalogUnavailable", err)
	}
}

func TestManagerVersionIsContentAddressed(t *testing.T) {
	now := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{services: sampleServices()}
	mgr := NewManager(fetcher, nil, 0, zerolog.Nop(),
		WithClock(func() time.Time { return now }))

	ctx := context.Background()
	_, v1, err := mgr.Services(ctx)
	if err != nil {
		t.Fatalf("Services: %v", err)
	}

	// Identical catalog keeps the version stable across refreshes.
	_, v2, err := mgr.Services(ctx)
	if err != nil {
		t.Fatalf("Services: %v", err)
	}
	if v1 != v2 {
		t.Errorf("identical catalog changed version: %q -> %q", v1, v2)
	}

	fetcher.services = append(sampleServices(), recommend.Service{ID: "svc-3", Name: "New Entrant", Available: true})
	_, v3, err := mgr.Services(ctx)
	if err != nil {
		t.Fatalf("Services: %v", err)
	}
	if v3 == v1 {
		t.Error("changed catalog kept the same version")
	}
}

func TestManagerLoadsPersistedSnapshot(t *testing.T) {
	now := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	persisted := &fakePersister{snap: &Snapshot{
		Services:  sampleServices(),
		Version:   "abc123def456",
		FetchedAt: now.Add(-time.Minute),
	}}
	fetcher := &stubFetcher{err: errors.New("upstream down")}

	mgr := NewManager(fetcher, persisted, time.Hour, zerolog.Nop(),
		WithClock(func() time.Time { return now }))

	services, version, err := mgr.Services(context.Background())
	if err != nil {
		t.Fatalf("Services from persisted snapshot: %v", err)
	}
	if len(services) != 2 || version != "abc123def456" {
		t.Errorf("got %d services version %q", len(services), version)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetch calls = %d, want 0 (persisted snapshot fresh)", fetcher.calls)
	}
}

func TestManagerPersistsOnRefresh(t *testing.T) {
	store := &fakePersister{}
	fetcher := &stubFetcher{services: sampleServices()}
	mgr := NewManager(fetcher, store, time.Hour, zerolog.Nop())

	if err := mgr.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("saves = %d, want 1", store.saves)
	}
	if store.snap.Version != mgr.Version() {
		t.Errorf("persisted version %q != manager version %q", store.snap.Version, mgr.Version())
	}
	if len(store.snap.Services) != 2 {
		t.Errorf("persisted %d services, want 2", len(store.snap.Services))
	}
}

func TestManagerSurvivesPersistFailure(t *testing.T) {
	store := &fakePersister{saveErr: errors.New("disk full")}
	fetcher := &stubFetcher{services: sampleServices()}
	mgr := NewManager(fetcher, store, time.Hour, zerolog.Nop())

	if err := mgr.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh should tolerate persist failure: %v", err)
	}
	if mgr.Size() != 2 {
		t.Errorf("Size = %d, want 2", mgr.Size())
	}
}
