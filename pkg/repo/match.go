package repo

import "fmt"

// matches reports whether doc satisfies every filter entry.
func matches(doc Doc, filter Filter) bool {
	for key, want := range filter {
		got, ok := doc[key]
		if !ok {
			return false
		}
		if r, isRange := want.(Range); isRange {
			if !inRange(got, r) {
				return false
			}
			continue
		}
		if !valueEqual(got, want) {
			return false
		}
	}
	return true
}

// valueEqual compares loosely: numbers compare numerically regardless of the
// concrete type (JSON round-trips turn ints into float64), everything else
// compares by string form.
func valueEqual(a, b any) bool {
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		return af == bf
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func inRange(v any, r Range) bool {
	if vf, ok := asFloat(v); ok {
		if r.GTE != nil {
			if lo, ok := asFloat(r.GTE); !ok || vf < lo {
				return false
			}
		}
		if r.LTE != nil {
			if hi, ok := asFloat(r.LTE); !ok || vf > hi {
				return false
			}
		}
		return true
	}
	vs := fmt.Sprint(v)
	if r.GTE != nil && vs < fmt.Sprint(r.GTE) {
		return false
	}
	if r.LTE != nil && vs > fmt.Sprint(r.LTE) {
		return false
	}
	return true
}
