package cache

import (
	"testing"
	"time"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := New(true)
	etag := c.Set("events:list", []byte(`[{"id":1}]`), time.Minute)

	data, gotTag, ok := c.Get("events:list")
	if !ok {
		t.Fatal("entry not found")
	}
	if string(data) != `[{"id":1}]` || gotTag != etag {
		t.Errorf("got %q / %q", data, gotTag)
	}
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c := New(true)
	c.Set("events:list", []byte("x"), -time.Second)
	if _, _, ok := c.Get("events:list"); ok {
		t.Error("expired entry served")
	}
}

func TestDisabledCacheIsAlwaysMiss(t *testing.T) {
	c := New(false)
	c.Set("k", []byte("v"), time.Minute)
	if _, _, ok := c.Get("k"); ok {
		t.Error("disabled cache returned a hit")
	}
}

func TestInvalidateByPrefix(t *testing.T) {
	c := New(true)
	c.Set("events:list", []byte("a"), time.Minute)
	c.Set("events:42", []byte("b"), time.Minute)
	c.Set("notifications:1", []byte("c"), time.Minute)

	c.Invalidate("events:")

	if _, _, ok := c.Get("events:list"); ok {
		t.Error("events:list survived invalidation")
	}
	if _, _, ok := c.Get("events:42"); ok {
		t.Error("events:42 survived invalidation")
	}
	if _, _, ok := c.Get("notifications:1"); !ok {
		t.Error("unrelated key was invalidated")
	}
}

func TestETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("payload"))
	tests := []struct {
		name        string
		ifNoneMatch string
		want        bool
	}{
		{"empty header", "", false},
		{"wildcard", "*", true},
		{"exact", etag, true},
		{"different", `W/"deadbeef"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckETagMatch(tt.ifNoneMatch, etag); got != tt.want {
				t.Errorf("CheckETagMatch(%q) = %v, want %v", tt.ifNoneMatch, got, tt.want)
			}
		})
	}
}
