package persistence

import (
	"bytes"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStorage(t *testing.T) (*SessionStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStorage(&Redis{Client: client}, "test:session:"), mr
}

func TestSessionStorage_SetGet(t *testing.T) {
	s, mr := newTestStorage(t)

	if err := s.Set("abc", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get("abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, []byte("payload")) {
		t.Errorf("Get() = %q, want payload", got)
	}
	if !mr.Exists("test:session:abc") {
		t.Error("expected key to be stored under prefix")
	}
}

func TestSessionStorage_MissingKey(t *testing.T) {
	s, _ := newTestStorage(t)

	got, err := s.Get("nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %q, want nil", got)
	}
}

func TestSessionStorage_Expiry(t *testing.T) {
	s, mr := newTestStorage(t)

	if err := s.Set("short", []byte("x"), time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	mr.FastForward(2 * time.Second)

	got, err := s.Get("short")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Error("expected expired session to be gone")
	}
}

func TestSessionStorage_DeleteAndReset(t *testing.T) {
	s, mr := newTestStorage(t)

	_ = s.Set("a", []byte("1"), 0)
	_ = s.Set("b", []byte("2"), 0)
	if err := mr.Set("other:key", "keep"); err != nil {
		t.Fatalf("seed other key: %v", err)
	}

	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mr.Exists("test:session:a") {
		t.Error("expected a to be deleted")
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if mr.Exists("test:session:b") {
		t.Error("expected Reset to clear prefixed keys")
	}
	if !mr.Exists("other:key") {
		t.Error("Reset must not touch keys outside the prefix")
	}
}

func TestSessionStorage_IgnoresEmptyInput(t *testing.T) {
	s, mr := newTestStorage(t)

	if err := s.Set("", []byte("x"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set("k", nil, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("expected no keys, got %v", mr.Keys())
	}
}
