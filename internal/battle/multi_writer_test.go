package battle

import (
	"fmt"
	"testing"
)

// batchMock counts batch calls to confirm the upgrade path is taken.
type batchMock struct {
	MockWriter
	batches int
}

func (w *batchMock) WriteEvents(rows []EventRow) error {
	w.batches++
	w.Rows = append(w.Rows, rows...)
	return nil
}

type failingWriter struct{}

func (failingWriter) WriteEvent(EventRow) error { return fmt.Errorf("sink down") }

func TestMultiWriter_FanOut(t *testing.T) {
	a, b := &MockWriter{}, &MockWriter{}
	mw := NewMultiWriter([]EventWriter{a, b}, []ScoreWriter{a})

	if err := mw.WriteEvent(EventRow{EventID: "e1"}); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if len(a.Rows) != 1 || len(b.Rows) != 1 {
		t.Errorf("expected fan-out to both writers, got %d and %d", len(a.Rows), len(b.Rows))
	}
	if err := mw.WriteScore(ScoreRow{BattleID: "b1"}); err != nil {
		t.Fatalf("WriteScore: %v", err)
	}
	if len(a.Scores) != 1 {
		t.Errorf("expected 1 score row, got %d", len(a.Scores))
	}
}

func TestMultiWriter_BatchUpgrade(t *testing.T) {
	plain, batch := &MockWriter{}, &batchMock{}
	mw := NewMultiWriter([]EventWriter{plain, batch}, nil)

	rows := []EventRow{{EventID: "e1"}, {EventID: "e2"}}
	if err := mw.WriteEvents(rows); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if len(plain.Rows) != 2 {
		t.Errorf("plain writer must receive rows one by one, got %d", len(plain.Rows))
	}
	if batch.batches != 1 || len(batch.Rows) != 2 {
		t.Errorf("batch writer must receive one batch, got %d batches %d rows", batch.batches, len(batch.Rows))
	}
}

func TestMultiWriter_ErrorPropagates(t *testing.T) {
	mw := NewMultiWriter([]EventWriter{failingWriter{}}, nil)
	if err := mw.WriteEvent(EventRow{}); err == nil {
		t.Fatal("expected sink error to propagate")
	}
}
