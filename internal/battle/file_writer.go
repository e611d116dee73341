package battle

import (
	"encoding/json"
	"os"
)

// FileWriter writes event and score rows to JSONL files.
type FileWriter struct {
	eventFile *os.File
	scoreFile *os.File
	eventEnc  *json.Encoder
	scoreEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. scorePath may be empty to skip the
// score log.
func NewFileWriter(eventPath, scorePath string) (*FileWriter, error) {
	ef, err := os.Create(eventPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{eventFile: ef, eventEnc: json.NewEncoder(ef)}
	if scorePath != "" {
		sf, err := os.Create(scorePath)
		if err != nil {
			ef.Close()
			return nil, err
		}
		fw.scoreFile = sf
		fw.scoreEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// WriteEvent logs a single event row.
func (f *FileWriter) WriteEvent(row EventRow) error {
	return f.eventEnc.Encode(row)
}

// WriteEvents logs multiple event rows.
func (f *FileWriter) WriteEvents(rows []EventRow) error {
	for _, r := range rows {
		if err := f.WriteEvent(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteScore logs a score row, if enabled.
func (f *FileWriter) WriteScore(row ScoreRow) error {
	if f.scoreEnc == nil {
		return nil
	}
	return f.scoreEnc.Encode(row)
}

// Close closes the underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.eventFile != nil {
		if e := f.eventFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.scoreFile != nil {
		if e := f.scoreFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
