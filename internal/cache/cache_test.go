package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jcdickinson/cratemap/internal/rustdoc"
)

func crateJSON(items string) []byte {
	return []byte(fmt.Sprintf(`{
		"root": "0:0",
		"crate_version": "1.0.0",
		"includes_private": false,
		"index": {
			"0:0": {
				"id": "0:0",
				"crate_id": 0,
				"name": "demo",
				"visibility": "public",
				"kind": "module",
				"inner": {"is_crate": true, "items": [%s]}
			}
		},
		"paths": {},
		"external_crates": {},
		"format_version": 9
	}`, items))
}

func TestCacheRoundTrip(t *testing.T) {
	c := Open(t.TempDir())

	data := crateJSON("")
	if c.Has("demo", "1.0.0") {
		t.Fatal("Has() = true before save")
	}
	if err := c.Save(data, "demo", "1.0.0"); err != nil {
		t.Fatal(err)
	}
	if !c.Has("demo", "1.0.0") {
		t.Fatal("Has() = false after save")
	}

	got, err := c.Load("demo", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(data) {
		t.Errorf("round-trip mismatch: got %d bytes, want %d", len(got), len(data))
	}

	if err := c.Remove("demo", "1.0.0"); err != nil {
		t.Fatal(err)
	}
	if c.Has("demo", "1.0.0") {
		t.Error("Has() = true after remove")
	}
	if err := c.Remove("demo", "1.0.0"); err != nil {
		t.Errorf("removing absent entry: %v", err)
	}
}

type stubFetcher struct {
	mu    sync.Mutex
	calls int
	data  []byte
	err   error
}

func (f *stubFetcher) RustdocJSON(ctx context.Context, name, version string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.data, f.err
}

func TestLoaderFetchesOnceThenHitsCache(t *testing.T) {
	fetcher := &stubFetcher{data: crateJSON("")}
	loader := NewLoader(Open(t.TempDir()), fetcher, true)

	crate, err := loader.Load(context.Background(), "demo", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if crate.Root != "0:0" {
		t.Errorf("root = %q, want %q", crate.Root, "0:0")
	}

	if _, err := loader.Load(context.Background(), "demo", "1.0.0"); err != nil {
		t.Fatal(err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", fetcher.calls)
	}
}

func TestLoaderRejectsInvalidDocument(t *testing.T) {
	// The root module references an item the index does not carry.
	fetcher := &stubFetcher{data: crateJSON(`"0:9"`)}
	cache := Open(t.TempDir())
	loader := NewLoader(cache, fetcher, true)

	_, err := loader.Load(context.Background(), "demo", "1.0.0")
	var verr *rustdoc.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if cache.Has("demo", "1.0.0") {
		t.Error("invalid document entered the cache")
	}
}

func TestLoaderSkipsValidationWhenDisabled(t *testing.T) {
	fetcher := &stubFetcher{data: crateJSON(`"0:9"`)}
	loader := NewLoader(Open(t.TempDir()), fetcher, false)

	if _, err := loader.Load(context.Background(), "demo", "1.0.0"); err != nil {
		t.Fatalf("validation disabled but load failed: %v", err)
	}
}

func TestLoaderPropagatesFetchError(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("network down")}
	loader := NewLoader(Open(t.TempDir()), fetcher, true)

	if _, err := loader.Load(context.Background(), "demo", "1.0.0"); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestLoaderRejectsNewerFormat(t *testing.T) {
	fetcher := &stubFetcher{data: []byte(`{"format_version": 99, "index": {}}`)}
	loader := NewLoader(Open(t.TempDir()), fetcher, true)

	_, err := loader.Load(context.Background(), "demo", "1.0.0")
	var verr *rustdoc.VersionError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want VersionError", err)
	}
}
