package routing

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

type stubBackend struct {
	puts int
	put  func(key, rec []byte) error
	get  func(key []byte) ([]byte, error)
}

func (s *stubBackend) Put(ctx context.Context, key, rec []byte) error {
	s.puts++
	if s.put == nil {
		return nil
	}
	return s.put(key, rec)
}

func (s *stubBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	if s.get == nil {
		return nil, ErrNotFound
	}
	return s.get(key)
}

func TestFanout_PutWritesAll(t *testing.T) {
	a, b := &stubBackend{}, &stubBackend{}
	f := Fanout{Backends: []Named{{"a", a}, {"b", b}}}

	if err := f.Put(context.Background(), []byte("k"), []byte("r")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if a.puts != 1 || b.puts != 1 {
		t.Fatalf("puts = %d/%d, want 1/1", a.puts, b.puts)
	}
}

func TestFanout_WriteFirstOnly(t *testing.T) {
	a, b := &stubBackend{}, &stubBackend{}
	f := Fanout{Backends: []Named{{"a", a}, {"b", b}}, Write: WriteFirst}

	if err := f.Put(context.Background(), []byte("k"), []byte("r")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if a.puts != 1 || b.puts != 0 {
		t.Fatalf("puts = %d/%d, want 1/0", a.puts, b.puts)
	}
}

func TestFanout_PutStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	a := &stubBackend{put: func(_, _ []byte) error { return boom }}
	b := &stubBackend{}
	f := Fanout{Backends: []Named{{"a", a}, {"b", b}}}

	err := f.Put(context.Background(), []byte("k"), []byte("r"))
	if !errors.Is(err, boom) {
		t.Fatalf("Put: got err=%v want boom", err)
	}
	if b.puts != 0 {
		t.Fatalf("later backend was written after a failure")
	}
}

func TestFanout_PutRequiresBackends(t *testing.T) {
	if err := (Fanout{}).Put(context.Background(), []byte("k"), []byte("r")); err == nil {
		t.Fatalf("Put with no backends should fail")
	}
}

func TestFanout_GetPicksBestRecord(t *testing.T) {
	kp := mustKeyPair(t, 0x41)
	older := mustRecord(t, kp, "older", 1).Bytes()
	newer := mustRecord(t, kp, "newer", 2).Bytes()

	a := &stubBackend{get: func([]byte) ([]byte, error) { return older, nil }}
	b := &stubBackend{get: func([]byte) ([]byte, error) { return newer, nil }}

	// The newest record wins regardless of backend order.
	for _, f := range []Fanout{
		{Backends: []Named{{"a", a}, {"b", b}}},
		{Backends: []Named{{"b", b}, {"a", a}}},
	} {
		got, err := f.Get(context.Background(), []byte("k"))
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, newer) {
			t.Fatalf("Get returned the stale record")
		}
	}
}

func TestFanout_GetSkipsFailedBackends(t *testing.T) {
	kp := mustKeyPair(t, 0x42)
	rec := mustRecord(t, kp, "only", 1).Bytes()

	down := &stubBackend{get: func([]byte) ([]byte, error) { return nil, ErrUnavailable }}
	up := &stubBackend{get: func([]byte) ([]byte, error) { return rec, nil }}
	f := Fanout{Backends: []Named{{"down", down}, {"up", up}}}

	got, err := f.Get(context.Background(), []byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, rec) {
		t.Fatalf("Get bytes mismatch")
	}
}

func TestFanout_GetMissesEverywhere(t *testing.T) {
	f := Fanout{Backends: []Named{{"a", &stubBackend{}}, {"b", &stubBackend{}}}}

	_, err := f.Get(context.Background(), []byte("k"))
	if !IsNotFound(err) {
		t.Fatalf("Get: got err=%v want ErrNotFound", err)
	}
}

func TestFanout_GetReportsFailureWhenNothingAnswers(t *testing.T) {
	down := &stubBackend{get: func([]byte) ([]byte, error) { return nil, ErrUnavailable }}
	f := Fanout{Backends: []Named{{"down", down}, {"missing", &stubBackend{}}}}

	_, err := f.Get(context.Background(), []byte("k"))
	if !IsUnavailable(err) {
		t.Fatalf("Get: got err=%v want ErrUnavailable", err)
	}
}

func TestFanout_GetSkipsUndecodableAnswers(t *testing.T) {
	kp := mustKeyPair(t, 0x43)
	rec := mustRecord(t, kp, "good", 9).Bytes()

	junk := &stubBackend{get: func([]byte) ([]byte, error) { return []byte("junk"), nil }}
	good := &stubBackend{get: func([]byte) ([]byte, error) { return rec, nil }}
	f := Fanout{Backends: []Named{{"junk", junk}, {"good", good}}}

	got, err := f.Get(context.Background(), []byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, rec) {
		t.Fatalf("Get bytes mismatch")
	}
}
