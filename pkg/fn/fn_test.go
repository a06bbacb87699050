package fn

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func TestOkAndErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok should be ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatal("wrong unwrap")
	}

	e := Err[int](errors.New("fail"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("Err should be err")
	}
}

func TestErrf(t *testing.T) {
	r := Errf[string]("code %d", 404)
	_, err := r.Unwrap()
	if err == nil || err.Error() != "code 404" {
		t.Fatal("Errf wrong message")
	}
}

func TestUnwrapOr(t *testing.T) {
	if Ok(1).UnwrapOr(9) != 1 {
		t.Fatal("should return value")
	}
	if Err[int](errors.New("x")).UnwrapOr(9) != 9 {
		t.Fatal("should return fallback")
	}
}

func TestFromPair(t *testing.T) {
	if FromPair(5, nil).Must() != 5 {
		t.Fatal("FromPair ok failed")
	}
	if FromPair(0, errors.New("x")).IsOk() {
		t.Fatal("FromPair err should be err")
	}
}

func TestCollect(t *testing.T) {
	all := Collect([]Result[int]{Ok(1), Ok(2), Ok(3)})
	vals := all.Must()
	if len(vals) != 3 || vals[1] != 2 {
		t.Fatal("Collect order wrong")
	}
	bad := Collect([]Result[int]{Ok(1), Err[int](errors.New("boom"))})
	if bad.IsOk() {
		t.Fatal("Collect should fail on first error")
	}
}

func TestParMapPreservesOrder(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	out := ParMap(items, 4, func(_ int, v int) string {
		return strconv.Itoa(v * 2)
	})
	for i, s := range out {
		if s != strconv.Itoa(i*2) {
			t.Fatalf("out[%d] = %s", i, s)
		}
	}
}

func TestParMapBoundedConcurrency(t *testing.T) {
	var active, peak atomic.Int32
	items := make([]int, 20)
	ParMap(items, 3, func(_ int, v int) int {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		active.Add(-1)
		return v
	})
	if peak.Load() > 3 {
		t.Fatalf("concurrency exceeded bound: %d", peak.Load())
	}
}

func TestParMapIndexPassed(t *testing.T) {
	out := ParMap([]string{"a", "b", "c"}, 2, func(i int, v string) string {
		return strconv.Itoa(i) + v
	})
	if out[0] != "0a" || out[2] != "2c" {
		t.Fatalf("indices wrong: %v", out)
	}
}

func TestThenShortCircuits(t *testing.T) {
	var called bool
	first := Stage[int, int](func(_ context.Context, v int) Result[int] {
		return Err[int](errors.New("nope"))
	})
	second := Stage[int, int](func(_ context.Context, v int) Result[int] {
		called = true
		return Ok(v)
	})
	r := Then(first, second)(context.Background(), 1)
	if r.IsOk() || called {
		t.Fatal("second stage should not run after error")
	}
}

func TestMapStage(t *testing.T) {
	double := MapStage(func(v int) int { return v * 2 })
	if double(context.Background(), 21).Must() != 42 {
		t.Fatal("MapStage failed")
	}
}

func TestRetryEventualSuccess(t *testing.T) {
	attempts := 0
	opts := RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	r := Retry(context.Background(), opts, func(context.Context) Result[int] {
		attempts++
		if attempts < 3 {
			return Err[int](errors.New("transient"))
		}
		return Ok(attempts)
	})
	if r.Must() != 3 {
		t.Fatalf("expected success on attempt 3, got %v", r)
	}
}

func TestRetryExhausted(t *testing.T) {
	opts := RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	r := Retry(context.Background(), opts, func(context.Context) Result[int] {
		return Err[int](errors.New("always"))
	})
	if r.IsOk() {
		t.Fatal("should fail after exhausting attempts")
	}
}

func TestChunk(t *testing.T) {
	chunks := Chunk([]int{1, 2, 3, 4, 5, 6, 7}, 3)
	if len(chunks) != 3 || len(chunks[2]) != 1 {
		t.Fatalf("chunks wrong: %v", chunks)
	}
	if Chunk([]int{1}, 0) != nil {
		t.Fatal("n<=0 should return nil")
	}
}

func TestMapAndFilter(t *testing.T) {
	doubled := Map([]int{1, 2, 3}, func(v int) int { return v * 2 })
	if doubled[2] != 6 {
		t.Fatal("Map wrong")
	}
	even := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	if len(even) != 2 || even[1] != 4 {
		t.Fatal("Filter wrong")
	}
}
