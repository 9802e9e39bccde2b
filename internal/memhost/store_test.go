package memhost

import (
	"reflect"
	"testing"
)

func TestStore_SetGet(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get("/a"); ok {
		t.Fatal("empty store returned a value")
	}
	if err := s.Set("/a", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok := s.Get("/a")
	if !ok || v != true {
		t.Errorf("Get(/a) = %v, %v; want true, true", v, ok)
	}
}

func TestStore_NotifiesOnChangeOnly(t *testing.T) {
	s := NewStore()
	var got []any
	cancel := s.Subscribe("/a", func(path string, v any) {
		if path != "/a" {
			t.Errorf("notified for %q", path)
		}
		got = append(got, v)
	})

	_ = s.Set("/a", 1)
	_ = s.Set("/a", 1)
	_ = s.Set("/a", 2)
	_ = s.Set("/b", 3)

	if want := []any{1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("notifications = %v, want %v", got, want)
	}

	cancel()
	cancel()
	_ = s.Set("/a", 4)
	if len(got) != 2 {
		t.Errorf("notified after cancel: %v", got)
	}
	if n := s.Subscribers("/a"); n != 0 {
		t.Errorf("Subscribers = %d after cancel", n)
	}
}

func TestStore_SubscriberMaySet(t *testing.T) {
	s := NewStore()
	s.Subscribe("/a", func(_ string, v any) {
		_ = s.Set("/echo", v)
	})
	_ = s.Set("/a", "x")
	if v, _ := s.Get("/echo"); v != "x" {
		t.Errorf("/echo = %v, want x", v)
	}
}

func TestStore_Keys(t *testing.T) {
	s := NewStore()
	_ = s.Set("/DDx/b", 1)
	_ = s.Set("/DDx/a", 1)
	_ = s.Set("/other", 1)

	want := []string{"/DDx/a", "/DDx/b"}
	if got := s.Keys("/DDx/"); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys = %v, want %v", got, want)
	}
}
