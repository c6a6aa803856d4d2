package memkv

import (
	"testing"
	"time"
)

func TestSetGetCopySemantics(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	if created := s.Set("k1", []byte("abc"), 0); !created {
		t.Fatalf("expected created=true on first Set")
	}
	if created := s.Set("k1", []byte("abc"), 0); created {
		t.Fatalf("expected created=false on overwrite")
	}
	v, ok := s.Get("k1")
	if !ok || string(v) != "abc" {
		t.Fatalf("Get mismatch: ok=%v v=%q", ok, v)
	}
	// mutating the returned copy must not touch the stored value
	v[0] = 'X'
	v2, ok := s.Get("k1")
	if !ok || string(v2) != "abc" {
		t.Fatalf("Get after modifying copy: ok=%v v=%q", ok, v2)
	}
}

func TestGetDel(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	s.Set("k2", []byte("42"), 0)
	v, ok := s.GetDel("k2")
	if !ok || string(v) != "42" {
		t.Fatalf("GetDel mismatch: ok=%v v=%q", ok, v)
	}
	if _, ok := s.Get("k2"); ok {
		t.Fatalf("expected key gone after GetDel")
	}
}

func TestExpireTTL(t *testing.T) {
	s := New(Options{SweepInterval: 10 * time.Millisecond})
	defer s.Close()

	s.Set("k3", []byte("v"), 50*time.Millisecond)
	if _, ok := s.Get("k3"); !ok {
		t.Fatalf("expected key present before TTL")
	}
	time.Sleep(120 * time.Millisecond)
	if _, ok := s.Get("k3"); ok {
		t.Fatalf("expected key expired")
	}
	if _, ok := s.TTL("k3"); ok {
		t.Fatalf("expected TTL to report missing after expiry")
	}
	if m := s.Metrics(); m.Expired == 0 {
		t.Fatalf("expected Expired > 0, got %+v", m)
	}
}

func TestTTLRemaining(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	s.Set("k4", []byte("v"), time.Hour)
	d, ok := s.TTL("k4")
	if !ok || d <= 0 || d > time.Hour {
		t.Fatalf("TTL = (%v, %v), want 0 < d <= 1h", d, ok)
	}
	s.Set("k5", []byte("v"), 0)
	if d, ok := s.TTL("k5"); !ok || d != 0 {
		t.Fatalf("TTL for non-expiring key = (%v, %v), want (0, true)", d, ok)
	}
}

func TestRange(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	s.Set("a", []byte("1"), 0)
	s.Set("b", []byte("2"), 0)
	seen := map[string]string{}
	s.Range(func(k string, v []byte) bool {
		seen[k] = string(v)
		return true
	})
	if len(seen) != 2 || seen["a"] != "1" || seen["b"] != "2" {
		t.Fatalf("Range saw %v", seen)
	}
}
