package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMemoryKVGetPutDelete(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	if _, err := kv.Get(ctx, "a"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get missing key err = %v", err)
	}
	value := []byte("one")
	if err := kv.Put(ctx, "a", value); err != nil {
		t.Fatal(err)
	}
	value[0] = 'X'
	got, err := kv.Get(ctx, "a")
	if err != nil || string(got) != "one" {
		t.Fatalf("Get = %q, %v; want stored copy", got, err)
	}
	if err := kv.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := kv.Get(ctx, "a"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
}

func TestMemoryKVScan(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	for _, k := range []string{"x/2", "x/1", "y/1", "x/3"} {
		_ = kv.Put(ctx, k, []byte(k))
	}

	got, err := kv.Scan(ctx, "x/", func(key string, _ []byte) bool { return key != "x/2" })
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for _, v := range got {
		keys = append(keys, string(v))
	}
	if strings.Join(keys, ",") != "x/1,x/3" {
		t.Fatalf("Scan = %v, want [x/1 x/3]", keys)
	}
}

func TestMemoryKVUpdateCommitsAtomically(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	_ = kv.Put(ctx, "gone", []byte("v"))

	err := kv.Update(ctx, func(tx ReadWriter) error {
		_ = tx.Put(ctx, "a", []byte("1"))
		_ = tx.Delete(ctx, "gone")
		if v, err := tx.Get(ctx, "a"); err != nil || string(v) != "1" {
			t.Fatalf("tx should read its own write, got %q %v", v, err)
		}
		if _, err := tx.Get(ctx, "gone"); !errors.Is(err, ErrKeyNotFound) {
			t.Fatalf("tx should see its own delete, err = %v", err)
		}
		vals, _ := tx.Scan(ctx, "", nil)
		if len(vals) != 1 {
			t.Fatalf("tx scan saw %d values, want 1", len(vals))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if v, err := kv.Get(ctx, "a"); err != nil || string(v) != "1" {
		t.Fatalf("committed value = %q, %v", v, err)
	}
	if _, err := kv.Get(ctx, "gone"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("deleted key still present, err = %v", err)
	}
}

func TestMemoryKVUpdateRollsBack(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	_ = kv.Put(ctx, "a", []byte("old"))
	boom := errors.New("boom")

	err := kv.Update(ctx, func(tx ReadWriter) error {
		_ = tx.Put(ctx, "a", []byte("new"))
		_ = tx.Put(ctx, "b", []byte("new"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update err = %v, want boom", err)
	}
	if v, _ := kv.Get(ctx, "a"); string(v) != "old" {
		t.Fatalf("a = %q after rollback", v)
	}
	if _, err := kv.Get(ctx, "b"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatal("b should not exist after rollback")
	}
}
