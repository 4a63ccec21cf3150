package store

import (
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func openTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	c, err := Open(dbPath, ttl)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleEntry() Entry {
	return Entry{
		Tail: []byte("char*"),
		Records: []Record{
			{Line: 2, Definition: Offset{0, 24}, Return: Offset{0, 3}, Params: []Offset{{24, 5}}},
			{Line: 3, Definition: Offset{25, 16}, Return: Offset{25, 4}},
		},
	}
}

func TestCache_PutGet(t *testing.T) {
	c := openTestCache(t, 24*time.Hour)
	sum := Sum([]byte("int puts(const char *s);"))

	// Miss on empty.
	if _, ok := c.Get("a.c", sum); ok {
		t.Fatal("expected miss")
	}

	c.Put("a.c", sum, sampleEntry())

	got, ok := c.Get("a.c", sum)
	if !ok {
		t.Fatal("expected hit")
	}
	want := sampleEntry()
	if string(got.Tail) != string(want.Tail) {
		t.Errorf("tail = %q, want %q", got.Tail, want.Tail)
	}
	if len(got.Records) != len(want.Records) {
		t.Fatalf("got %d records, want %d", len(got.Records), len(want.Records))
	}
	for i := range want.Records {
		g, w := got.Records[i], want.Records[i]
		if g.Line != w.Line || g.Definition != w.Definition || g.Return != w.Return || !slices.Equal(g.Params, w.Params) {
			t.Errorf("record %d = %+v, want %+v", i, g, w)
		}
	}
}

func TestCache_ChecksumMismatch(t *testing.T) {
	c := openTestCache(t, 24*time.Hour)
	c.Put("a.c", Sum([]byte("old")), sampleEntry())

	if _, ok := c.Get("a.c", Sum([]byte("new"))); ok {
		t.Fatal("changed content must miss")
	}

	// A new Put replaces the row for the same path.
	c.Put("a.c", Sum([]byte("new")), Entry{})
	if _, ok := c.Get("a.c", Sum([]byte("old"))); ok {
		t.Fatal("old checksum should be gone")
	}
	got, ok := c.Get("a.c", Sum([]byte("new")))
	if !ok {
		t.Fatal("expected hit")
	}
	if len(got.Records) != 0 || len(got.Tail) != 0 {
		t.Errorf("expected empty entry, got %+v", got)
	}
}

func TestCache_LargeChecksum(t *testing.T) {
	c := openTestCache(t, 24*time.Hour)
	const sum = ^uint64(0) - 1 // does not fit in int64 without wrapping
	c.Put("big.c", sum, sampleEntry())
	if _, ok := c.Get("big.c", sum); !ok {
		t.Fatal("expected hit for high-bit checksum")
	}
}

func TestCache_NilReceiver(t *testing.T) {
	var c *Cache
	c.Put("a.c", 1, sampleEntry())
	if _, ok := c.Get("a.c", 1); ok {
		t.Error("nil cache should always miss")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}

func TestPurgeStale(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	c, err := Open(dbPath, time.Hour)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	c.Put("old.c", 1, sampleEntry())
	c.Put("new.c", 2, sampleEntry())
	c.db.Exec("UPDATE signatures SET created = ? WHERE path = ?",
		time.Now().Add(-2*time.Hour).Unix(), "old.c")
	c.Close()

	// Reopen triggers the purge.
	reopened, err := Open(dbPath, time.Hour)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if _, ok := reopened.Get("old.c", 1); ok {
		t.Error("stale entry survived purge")
	}
	if _, ok := reopened.Get("new.c", 2); !ok {
		t.Error("fresh entry was purged")
	}
}
