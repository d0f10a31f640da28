package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/clinicore/docintake/internal/models"
	"github.com/clinicore/docintake/pkg/logger"
)

type countingProvider struct {
	patients []models.PatientRecord
	err      error
	calls    int
}

func (p *countingProvider) Snapshot(_ context.Context) ([]models.PatientRecord, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.patients, nil
}

func newCacheUnderTest(t *testing.T, upstream Provider) (*CachedProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCachedProvider(upstream, client, time.Minute, logger.NewTestLogger()), mr
}

func TestCachedProvider_FetchesUpstreamOnce(t *testing.T) {
	upstream := &countingProvider{patients: []models.PatientRecord{
		{ID: "p1", FirstName: "Ana", LastName: "García"},
	}}
	cache, _ := newCacheUnderTest(t, upstream)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		patients, err := cache.Snapshot(ctx)
		if err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}
		if len(patients) != 1 || patients[0].ID != "p1" {
			t.Fatalf("snapshot %d: unexpected patients %+v", i, patients)
		}
	}

	if upstream.calls != 1 {
		t.Errorf("expected one upstream fetch, got %d", upstream.calls)
	}
}

func TestCachedProvider_ExpiredEntryRefetches(t *testing.T) {
	upstream := &countingProvider{patients: []models.PatientRecord{
		{ID: "p1", FirstName: "Ana", LastName: "García"},
	}}
	cache, mr := newCacheUnderTest(t, upstream)

	ctx := context.Background()
	if _, err := cache.Snapshot(ctx); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := cache.Snapshot(ctx); err != nil {
		t.Fatal(err)
	}

	if upstream.calls != 2 {
		t.Errorf("expected refetch after TTL expiry, got %d calls", upstream.calls)
	}
}

func TestCachedProvider_Invalidate(t *testing.T) {
	upstream := &countingProvider{}
	cache, _ := newCacheUnderTest(t, upstream)

	ctx := context.Background()
	if _, err := cache.Snapshot(ctx); err != nil {
		t.Fatal(err)
	}
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Snapshot(ctx); err != nil {
		t.Fatal(err)
	}

	if upstream.calls != 2 {
		t.Errorf("expected refetch after invalidate, got %d calls", upstream.calls)
	}
}

func TestCachedProvider_CorruptEntryFallsThrough(t *testing.T) {
	upstream := &countingProvider{patients: []models.PatientRecord{
		{ID: "p2", FirstName: "Luis", LastName: "Martínez"},
	}}
	cache, mr := newCacheUnderTest(t, upstream)

	if err := mr.Set("patient_directory:snapshot", "{not json"); err != nil {
		t.Fatal(err)
	}

	patients, err := cache.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(patients) != 1 || patients[0].ID != "p2" {
		t.Fatalf("unexpected patients %+v", patients)
	}
	if upstream.calls != 1 {
		t.Errorf("expected upstream fallback, got %d calls", upstream.calls)
	}
}

func TestCachedProvider_UpstreamErrorSurfaces(t *testing.T) {
	upstream := &countingProvider{err: errors.New("directory unavailable")}
	cache, _ := newCacheUnderTest(t, upstream)

	if _, err := cache.Snapshot(context.Background()); err == nil {
		t.Fatal("expected error from upstream")
	}
}

func TestCachedProvider_RedisDownFallsThrough(t *testing.T) {
	upstream := &countingProvider{patients: []models.PatientRecord{
		{ID: "p3", FirstName: "Carmen", LastName: "López"},
	}}
	cache, mr := newCacheUnderTest(t, upstream)
	mr.Close()

	patients, err := cache.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(patients) != 1 || patients[0].ID != "p3" {
		t.Fatalf("unexpected patients %+v", patients)
	}
}
