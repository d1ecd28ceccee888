package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always miss with nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "template:dubai", []byte("raster"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, hit, err := c.Get(ctx, "template:dubai")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit")
	}
	if string(data) != "raster" {
		t.Errorf("data = %q", data)
	}

	if err := c.Delete(ctx, "template:dubai"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "template:dubai"); hit {
		t.Error("expected miss after delete")
	}

	// Deleting a missing key is not an error.
	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), -time.Second); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should be a miss")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if k.AssetKey("a.png") == k.AssetKey("b.png") {
		t.Error("different locations should produce different asset keys")
	}
	if k.TemplateKey("dubai") == k.TemplateKey("dubai_bike") {
		t.Error("different template keys should produce different cache keys")
	}

	a := k.ArtifactKey("hash", ArtifactKeyOpts{Kind: "plate", Format: "webp", Quality: 0.85})
	b := k.ArtifactKey("hash", ArtifactKeyOpts{Kind: "plate", Format: "webp", Quality: 0.9})
	if a == b {
		t.Error("different quality should produce different artifact keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "env:prod:")
	key := scoped.TemplateKey("dubai")
	if !strings.HasPrefix(key, "env:prod:template:") {
		t.Errorf("scoped key = %q, want env:prod:template: prefix", key)
	}
	if scoped.AssetKey("x") == NewDefaultKeyer().AssetKey("x") {
		t.Error("scoped key should differ from unscoped")
	}
}
