package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/modelserve/internal/db"
)

func TestHSetHGetAll(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.HSet(ctx, "k", map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if err := s.HSet(ctx, "k", map[string]string{"b": "3"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	m, err := s.HGetAll(ctx, "k")
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}
	if m["a"] != "1" || m["b"] != "3" {
		t.Errorf("unexpected hash: %v", m)
	}

	m["a"] = "mutated"
	again, _ := s.HGetAll(ctx, "k")
	if again["a"] != "1" {
		t.Error("HGetAll must return a copy")
	}

	missing, err := s.HGetAll(ctx, "missing")
	if err != nil || len(missing) != 0 {
		t.Errorf("expected empty result, got %v %v", missing, err)
	}
}

func TestDelExistsScan(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for _, k := range []string{"modelserve:artifact:b", "modelserve:artifact:a", "other"} {
		_ = s.HSet(ctx, k, map[string]string{"f": "v"})
	}

	keys, err := s.Scan(ctx, "modelserve:artifact:*")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(keys) != 2 || keys[0] != "modelserve:artifact:a" {
		t.Errorf("unexpected keys: %v", keys)
	}

	if err := s.Del(ctx, "modelserve:artifact:a"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if ok, _ := s.Exists(ctx, "modelserve:artifact:a"); ok {
		t.Error("expected key to be deleted")
	}
	if ok, _ := s.Exists(ctx, "modelserve:artifact:b"); !ok {
		t.Error("expected key to exist")
	}
}

func TestHGetAllMulti(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_ = s.HSet(ctx, "a", map[string]string{"f": "1"})

	out, err := s.HGetAllMulti(ctx, []string{"missing", "a"})
	if err != nil {
		t.Fatalf("HGetAllMulti: %v", err)
	}
	if len(out) != 2 || len(out[0]) != 0 || out[1]["f"] != "1" {
		t.Errorf("unexpected results: %v", out)
	}
}

func TestClose(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	if err := s.WaitForReady(ctx, time.Second); err != nil {
		t.Fatalf("WaitForReady: %v", err)
	}
	s.Close()

	if err := s.Ping(ctx); !errors.Is(err, db.ErrClosed) {
		t.Errorf("expected ErrClosed from Ping, got %v", err)
	}
	if err := s.HSet(ctx, "k", map[string]string{"f": "v"}); !errors.Is(err, db.ErrClosed) {
		t.Errorf("expected ErrClosed from HSet, got %v", err)
	}
	if _, err := s.Scan(ctx, "*"); !errors.Is(err, db.ErrClosed) {
		t.Errorf("expected ErrClosed from Scan, got %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.HSet(ctx, "shared", map[string]string{"f": "v"})
				_, _ = s.HGetAll(ctx, "shared")
				_, _ = s.Scan(ctx, "*")
			}
		}()
	}
	wg.Wait()

	if ok, _ := s.Exists(ctx, "shared"); !ok {
		t.Error("expected shared key")
	}
}
