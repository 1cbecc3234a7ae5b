package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/neovate-digital/namesys/cidutil"
	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
)

func TestCached_ServesFreshAnswers(t *testing.T) {
	n := mustKeyPair(t, 0x91).Name()
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))

	want := cidutil.SumRawString([]byte("cached"))
	inner := answering("routing", want)
	c := NewCached(inner, CacheOptions{MaxTTL: time.Hour, Clock: mock})

	for i := 0; i < 3; i++ {
		res, err := c.Resolve(context.Background(), n)
		if err != nil {
			t.Fatalf("Resolve(%d): %v", i, err)
		}
		if res.Value != want {
			t.Fatalf("Value = %s", res.Value)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner probed %d times, want 1", inner.calls)
	}

	mock.Add(time.Hour + time.Second)
	if _, err := c.Resolve(context.Background(), n); err != nil {
		t.Fatalf("Resolve after expiry: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("stale answer served from cache")
	}
}

func TestCached_RespectsRecordTTL(t *testing.T) {
	kp := mustKeyPair(t, 0x92)
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))

	seq := uint64(1)
	rec, err := record.New(kp, cidutil.SumRawString([]byte("minute")), record.Options{
		Sequence: &seq,
		TTL:      time.Minute,
		Clock:    mock,
	})
	if err != nil {
		t.Fatalf("record.New: %v", err)
	}

	inner := &stubStrategy{name: "routing", fn: func(context.Context, name.Name) (*Result, error) {
		return &Result{Value: rec.Value.String(), Record: rec}, nil
	}}
	// MaxTTL is an hour, but the record only vouches for a minute.
	c := NewCached(inner, CacheOptions{MaxTTL: time.Hour, Clock: mock})

	if _, err := c.Resolve(context.Background(), kp.Name()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	mock.Add(59 * time.Second)
	if _, err := c.Resolve(context.Background(), kp.Name()); err != nil {
		t.Fatalf("Resolve within TTL: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner probed %d times, want 1", inner.calls)
	}

	mock.Add(2 * time.Second)
	if _, err := c.Resolve(context.Background(), kp.Name()); err != nil {
		t.Fatalf("Resolve past TTL: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("record TTL not honored")
	}
}

func TestCached_DoesNotCacheFailures(t *testing.T) {
	n := mustKeyPair(t, 0x93).Name()
	inner := failing("routing", errors.New("down"))
	c := NewCached(inner, CacheOptions{})

	for i := 0; i < 2; i++ {
		if _, err := c.Resolve(context.Background(), n); err == nil {
			t.Fatalf("Resolve(%d) should fail", i)
		}
	}
	if inner.calls != 2 {
		t.Fatalf("failure was cached")
	}
}

func TestCached_Invalidate(t *testing.T) {
	n := mustKeyPair(t, 0x94).Name()
	inner := answering("routing", cidutil.SumRawString([]byte("v1")))
	c := NewCached(inner, CacheOptions{})

	if _, err := c.Resolve(context.Background(), n); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	c.Invalidate(n)
	if _, err := c.Resolve(context.Background(), n); err != nil {
		t.Fatalf("Resolve after invalidate: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("Invalidate did not drop the entry")
	}
}

func TestCached_KeepsInnerName(t *testing.T) {
	inner := answering("routing", cidutil.SumRawString([]byte("x")))
	if got := NewCached(inner, CacheOptions{}).Name(); got != "routing" {
		t.Fatalf("Name = %s, want routing", got)
	}
}
