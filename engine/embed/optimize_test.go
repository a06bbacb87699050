package embed

import (
	"math"
	"testing"
)

func TestOptimizeNormalize(t *testing.T) {
	out, err := Optimize([][]float64{{3, 4}, {0, 0}}, OptimizeNormalize)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if m := magnitude(out[0]); math.Abs(m-1) > 1e-9 {
		t.Errorf("normalized magnitude %v, want 1", m)
	}
	// zero vector passes through untouched
	if out[1][0] != 0 || out[1][1] != 0 {
		t.Errorf("zero vector changed: %v", out[1])
	}
}

func TestOptimizeCenter(t *testing.T) {
	out, err := Optimize([][]float64{{1, 10}, {3, 20}}, OptimizeCenter)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	// per-component batch mean is (2, 15)
	want := [][]float64{{-1, -5}, {1, 5}}
	for i := range want {
		for j := range want[i] {
			if math.Abs(out[i][j]-want[i][j]) > 1e-9 {
				t.Errorf("out[%d][%d] = %v, want %v", i, j, out[i][j], want[i][j])
			}
		}
	}
}

func TestOptimizeStandardize(t *testing.T) {
	in := [][]float64{{1, 100}, {2, 200}, {3, 300}, {4, 400}}
	out, err := Optimize(in, OptimizeStandardize)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	for j := 0; j < 2; j++ {
		var mean float64
		for i := range out {
			mean += out[i][j]
		}
		mean /= float64(len(out))
		if math.Abs(mean) > 1e-6 {
			t.Errorf("component %d mean %v, want ~0", j, mean)
		}
		var varSum float64
		for i := range out {
			d := out[i][j] - mean
			varSum += d * d
		}
		if v := varSum / float64(len(out)); math.Abs(v-1) > 1e-3 {
			t.Errorf("component %d variance %v, want ~1", j, v)
		}
	}
}

func TestOptimizeUnknownKind(t *testing.T) {
	if _, err := Optimize([][]float64{{1}}, "whiten"); err == nil {
		t.Error("unknown kind should error")
	}
}

func TestReduceDimensionsDeterministic(t *testing.T) {
	in := [][]float64{goodVector(100), goodVector(100)}
	a, err := ReduceDimensions(in, 16, 42)
	if err != nil {
		t.Fatalf("ReduceDimensions: %v", err)
	}
	b, err := ReduceDimensions(in, 16, 42)
	if err != nil {
		t.Fatalf("ReduceDimensions: %v", err)
	}
	for i := range a {
		if len(a[i]) != 16 {
			t.Fatalf("output dim %d, want 16", len(a[i]))
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatal("same seed produced different projections")
			}
		}
	}

	c, err := ReduceDimensions(in, 16, 7)
	if err != nil {
		t.Fatalf("ReduceDimensions: %v", err)
	}
	same := true
	for j := range a[0] {
		if a[0][j] != c[0][j] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds should give different projections")
	}
}

func TestReduceDimensionsPassThrough(t *testing.T) {
	in := [][]float64{{1, 2, 3}}
	out, err := ReduceDimensions(in, 8, 1)
	if err != nil {
		t.Fatalf("ReduceDimensions: %v", err)
	}
	if len(out[0]) != 3 {
		t.Errorf("small input should pass through, got dim %d", len(out[0]))
	}
	out[0][0] = 99
	if in[0][0] == 99 {
		t.Error("pass-through must copy, not alias")
	}
}

func TestReduceDimensionsErrors(t *testing.T) {
	if _, err := ReduceDimensions([][]float64{{1, 2}}, 0, 1); err == nil {
		t.Error("non-positive target should error")
	}
	if _, err := ReduceDimensions([][]float64{{1, 2, 3}, {1}}, 2, 1); err == nil {
		t.Error("ragged input should error")
	}
}
