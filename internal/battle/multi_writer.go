package battle

// MultiWriter fans out event and score rows to multiple writers.
type MultiWriter struct {
	eventWriters []EventWriter
	scoreWriters []ScoreWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ews []EventWriter, sws []ScoreWriter) *MultiWriter {
	return &MultiWriter{eventWriters: ews, scoreWriters: sws}
}

// WriteEvent sends an event row to all writers.
func (mw *MultiWriter) WriteEvent(row EventRow) error {
	for _, w := range mw.eventWriters {
		if err := w.WriteEvent(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvents sends multiple event rows to all writers, using batch mode
// where supported.
func (mw *MultiWriter) WriteEvents(rows []EventRow) error {
	for _, w := range mw.eventWriters {
		if bw, ok := w.(batchEventWriter); ok {
			if err := bw.WriteEvents(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteEvent(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteScore sends a score row to all score writers.
func (mw *MultiWriter) WriteScore(row ScoreRow) error {
	for _, w := range mw.scoreWriters {
		if err := w.WriteScore(row); err != nil {
			return err
		}
	}
	return nil
}
