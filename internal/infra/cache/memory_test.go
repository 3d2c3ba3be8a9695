package cache

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryOnceRunsOncePerKey(t *testing.T) {
	c := NewMemory()
	calls := 0
	fn := func() error {
		calls++
		return nil
	}

	ran, err := c.Once("k", time.Minute, fn)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if !ran {
		t.Fatalf("first call did not run fn")
	}

	ran, err = c.Once("k", time.Minute, fn)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if ran {
		t.Fatalf("second call ran fn again")
	}

	if _, err := c.Once("k2", time.Minute, fn); err != nil {
		t.Fatalf("other key: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestMemoryOnceReleasesKeyOnError(t *testing.T) {
	c := NewMemory()
	boom := errors.New("boom")

	ran, err := c.Once("k", time.Minute, func() error { return boom })
	if !ran {
		t.Fatalf("first call did not run fn")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	ran, err = c.Once("k", time.Minute, func() error { return nil })
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !ran {
		t.Fatalf("retry after error did not run fn")
	}
}

func TestMemoryOnceExpiredKeyRunsAgain(t *testing.T) {
	c := NewMemory()
	calls := 0
	fn := func() error {
		calls++
		return nil
	}

	if _, err := c.Once("k", -time.Second, fn); err != nil {
		t.Fatalf("first call: %v", err)
	}
	ran, err := c.Once("k", time.Minute, fn)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !ran {
		t.Fatalf("expired key did not run fn")
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
