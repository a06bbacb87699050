package migrate

import (
	"fmt"
	"testing"
)

func TestProgressDerivedFields(t *testing.T) {
	p := NewProgress()

	s := p.Snapshot()
	if s.PercentComplete != 0 || s.SuccessRate != 0 {
		t.Errorf("empty progress should derive zeros: %+v", s)
	}

	p.SetTotal(200)
	p.RecordBatch(50, 40, 5, 5)

	s = p.Snapshot()
	if s.PercentComplete != 25 {
		t.Errorf("PercentComplete = %v, want 25", s.PercentComplete)
	}
	if s.SuccessRate != 80 {
		t.Errorf("SuccessRate = %v, want 80", s.SuccessRate)
	}
	if s.SuccessfulRecords+s.FailedRecords+s.SkippedRecords != s.ProcessedRecords {
		t.Errorf("outcome counts do not sum to processed: %+v", s)
	}
}

func TestProgressMonotonic(t *testing.T) {
	p := NewProgress()
	p.SetTotal(100)

	var lastProcessed, lastSuccessful int64
	for i := 0; i < 10; i++ {
		p.RecordBatch(10, 8, 1, 1)
		s := p.Snapshot()
		if s.ProcessedRecords < lastProcessed {
			t.Fatalf("processed decreased: %d -> %d", lastProcessed, s.ProcessedRecords)
		}
		if s.SuccessfulRecords < lastSuccessful {
			t.Fatalf("successful decreased: %d -> %d", lastSuccessful, s.SuccessfulRecords)
		}
		if s.ProcessedRecords > s.TotalRecords {
			t.Fatalf("processed %d exceeds total %d", s.ProcessedRecords, s.TotalRecords)
		}
		lastProcessed, lastSuccessful = s.ProcessedRecords, s.SuccessfulRecords
	}
}

func TestProgressErrorRingBounded(t *testing.T) {
	p := NewProgress()
	for i := 0; i < maxProgressErrors+20; i++ {
		p.AddError(fmt.Sprintf("error %d", i))
	}
	s := p.Snapshot()
	if len(s.Errors) != maxProgressErrors {
		t.Fatalf("ring holds %d errors, want %d", len(s.Errors), maxProgressErrors)
	}
	if s.Errors[len(s.Errors)-1] != fmt.Sprintf("error %d", maxProgressErrors+19) {
		t.Errorf("ring should keep the most recent errors, last = %q", s.Errors[len(s.Errors)-1])
	}
}

func TestProgressRestore(t *testing.T) {
	p := NewProgress()
	p.SetTotal(100)
	p.RecordBatch(30, 25, 3, 2)
	p.SetCurrentSource("sessions")

	q := NewProgress()
	q.Restore(p.Snapshot())
	s := q.Snapshot()
	if s.ProcessedRecords != 30 || s.SuccessfulRecords != 25 || s.FailedRecords != 3 || s.SkippedRecords != 2 {
		t.Errorf("restored counters wrong: %+v", s)
	}
	if s.CurrentSource != "sessions" {
		t.Errorf("restored source %q", s.CurrentSource)
	}
}
