package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/sandrolain/goformula/pkg/cache"
	"github.com/sandrolain/goformula/pkg/compiler"
	"github.com/sandrolain/goformula/pkg/parser"
)

// compile builds an artifact for the cache tests.
func compile(t *testing.T, source string) *compiler.Artifact {
	t.Helper()
	res, err := parser.Parse(source)
	if err != nil {
		t.Fatal(err)
	}
	_, artifact, err := compiler.New().Build(res.Root, nil)
	if err != nil {
		t.Fatal(err)
	}
	return artifact
}

func TestCacheNew(t *testing.T) {
	c := cache.New(10)
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache, got %d", got)
	}
	if got := c.Capacity(); got != 10 {
		t.Fatalf("expected capacity 10, got %d", got)
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	c := cache.New(0)
	if got := c.Capacity(); got != 256 {
		t.Fatalf("expected default capacity 256, got %d", got)
	}
}

func TestCacheSetGet(t *testing.T) {
	c := cache.New(4)
	artifact := compile(t, "1 + 2")
	c.Set("1 + 2", artifact)
	if got := c.Len(); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
	got, ok := c.Get("1 + 2")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != artifact {
		t.Fatal("expected same artifact pointer")
	}
}

func TestCacheMiss(t *testing.T) {
	c := cache.New(4)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected cache miss")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := cache.New(3)
	for _, k := range []string{"a", "b", "c", "d"} {
		c.Set(k, compile(t, "1"))
	}
	if got := c.Len(); got != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", got)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("oldest entry should be evicted")
	}
	if _, ok := c.Get("d"); !ok {
		t.Fatal("newest entry should survive")
	}
}

func TestCacheGetPromotes(t *testing.T) {
	c := cache.New(2)
	c.Set("a", compile(t, "1"))
	c.Set("b", compile(t, "2"))
	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit on a")
	}
	c.Set("c", compile(t, "3"))
	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used entry should survive")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry should be evicted")
	}
}

func TestCacheGetOrBuild(t *testing.T) {
	c := cache.New(4)
	calls := 0
	build := func() (*compiler.Artifact, error) {
		calls++
		return compile(t, "2 + 2"), nil
	}
	a1, err := c.GetOrBuild("k", build)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := c.GetOrBuild("k", build)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("build ran %d times, expected 1", calls)
	}
	if a1 != a2 {
		t.Fatal("expected the cached artifact on the second call")
	}
}

func TestCacheGetOrBuildErrorNotCached(t *testing.T) {
	c := cache.New(4)
	fail := func() (*compiler.Artifact, error) {
		return nil, fmt.Errorf("boom")
	}
	if _, err := c.GetOrBuild("k", fail); err == nil {
		t.Fatal("expected the build error")
	}
	if c.Len() != 0 {
		t.Fatal("failed builds must not leave entries behind")
	}
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c := cache.New(4)
	c.Set("a", compile(t, "1"))
	c.Set("b", compile(t, "2"))
	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("invalidated entry should miss")
	}
	c.Clear()
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache after Clear, got %d", got)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := cache.New(16)
	artifact := compile(t, "n * 2")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			for j := 0; j < 100; j++ {
				c.Set(key, artifact)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() > 4 {
		t.Fatalf("expected at most 4 keys, got %d", c.Len())
	}
}
