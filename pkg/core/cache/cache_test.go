package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/parser"
)

func TestCache_SetGet(t *testing.T) {
	c := New(Config{MaxItems: 10})
	defer c.Close()

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v.(int) != 1 {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) should miss")
	}

	hits, misses, rate := c.Stats()
	if hits != 1 || misses != 1 || rate != 50 {
		t.Errorf("Stats() = %d, %d, %v", hits, misses, rate)
	}

	c.Delete("a")
	if c.Size() != 0 {
		t.Errorf("Size() = %d after delete", c.Size())
	}
}

func TestCache_Expiration(t *testing.T) {
	c := New(Config{MaxItems: 10})
	defer c.Close()

	c.SetWithTTL("short", "x", time.Nanosecond)
	c.SetWithTTL("forever", "y", 0)
	time.Sleep(time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expired entry returned")
	}
	if _, ok := c.Get("forever"); !ok {
		t.Error("entry without TTL expired")
	}

	c.SetWithTTL("swept", "z", time.Nanosecond)
	time.Sleep(time.Millisecond)
	c.cleanup()
	if c.Size() != 1 {
		t.Errorf("cleanup left %d entries, want 1", c.Size())
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New(Config{MaxItems: 2})
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}

	// overwriting an existing key never evicts
	c.Set("a", 10)
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestCache_GetOrSet(t *testing.T) {
	c := New(DefaultConfig())
	defer c.Close()

	calls := 0
	fn := func() (interface{}, error) {
		calls++
		return "value", nil
	}
	for i := 0; i < 3; i++ {
		if v, err := c.GetOrSet("k", fn); err != nil || v != "value" {
			t.Fatalf("GetOrSet() = %v, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrSet("e", func() (interface{}, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if _, ok := c.Get("e"); ok {
		t.Error("failed computations must not be cached")
	}
}

func TestTreeCache(t *testing.T) {
	tc := NewTreeCache(8)
	defer tc.Close()

	opts := parser.DefaultOptions()
	ctx := context.Background()

	first, cached, err := tc.Parse(ctx, "echo hi\n", opts)
	if err != nil || cached {
		t.Fatalf("first parse: cached=%v err=%v", cached, err)
	}
	second, cached, err := tc.Parse(ctx, "echo hi\n", opts)
	if err != nil || !cached || second != first {
		t.Fatalf("second parse must be served from the cache: cached=%v err=%v", cached, err)
	}

	v3 := opts
	v3.Version = dialect.V3
	if _, cached, _ := tc.Parse(ctx, "echo hi\n", v3); cached {
		t.Error("a different dialect must not share the cache entry")
	}

	tc.Invalidate("echo hi\n", opts)
	if _, cached, _ := tc.Parse(ctx, "echo hi\n", opts); cached {
		t.Error("invalidated entry served from the cache")
	}
	if tc.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tc.Len())
	}
}

func TestTreeCache_SkipsCancelledParses(t *testing.T) {
	tc := NewTreeCache(8)
	defer tc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, _, err := tc.Parse(ctx, "echo hi\n", parser.DefaultOptions())
	if err == nil || res == nil {
		t.Fatalf("expected a partial result and an error, got %v %v", res, err)
	}
	if tc.Len() != 0 {
		t.Error("cancelled parse was cached")
	}
}

func TestKey(t *testing.T) {
	opts := parser.DefaultOptions()
	if Key("a", parser.RootFile, opts) == Key("a", parser.RootWord, opts) {
		t.Error("root must be part of the key")
	}
	noShebang := opts
	noShebang.Shebang = false
	if Key("#!/bin/sh\n", parser.RootFile, opts) == Key("#!/bin/sh\n", parser.RootFile, noShebang) {
		t.Error("shebang flag must be part of the key")
	}
	if len(Key("", parser.RootFile, opts)) != 64 {
		t.Error("expected a hex sha256 key")
	}
}
