package main

import (
	"os"

	"hacklab-sim/internal/battle"
	"hacklab-sim/internal/scenario"
)

// newWriters sets up event and score writers based on flags and env vars.
// It returns the writers and a cleanup function to close any resources.
func newWriters(scn *scenario.Scenario, printOnly, colorOut bool, logFile string) (battle.EventWriter, battle.ScoreWriter, func(), error) {
	cleanup := func() {}

	writer, scoreWriter, err := baseWriters(scn, printOnly, colorOut)
	if err != nil {
		return nil, nil, nil, err
	}
	if logFile == "" {
		return writer, scoreWriter, cleanup, nil
	}

	fw, err := battle.NewFileWriter(logFile, logFile+".scores")
	if err != nil {
		return nil, nil, nil, err
	}
	mw := battle.NewMultiWriter(
		[]battle.EventWriter{writer, fw},
		[]battle.ScoreWriter{scoreWriter, fw},
	)
	cleanup = func() { fw.Close() }
	return mw, mw, cleanup, nil
}

// baseWriters chooses the underlying writers based on the printOnly flag and
// env vars. Without a GreptimeDB endpoint the battle prints to STDOUT.
func baseWriters(scn *scenario.Scenario, printOnly, colorOut bool) (battle.EventWriter, battle.ScoreWriter, error) {
	if printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		if colorOut {
			w := battle.NewColorStdoutWriter(scn)
			return w, w, nil
		}
		w := battle.NewStdoutWriter()
		return w, w, nil
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	w, err := battle.NewGreptimeDBWriter(endpoint, database)
	if err != nil {
		return nil, nil, err
	}
	return w, w, nil
}

// newEventWriter creates an event writer without score handling, for replay.
func newEventWriter(printOnly bool) (battle.EventWriter, error) {
	w, _, _, err := newWriters(nil, printOnly, false, "")
	return w, err
}
