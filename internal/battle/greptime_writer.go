package battle

import (
	"context"
	"log"
	"os"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// EventTableName holds the table used for battle events. Defaults to
// "battle_events" but can be overridden via the BATTLE_EVENT_TABLE
// environment variable.
var EventTableName = func() string {
	if env := os.Getenv("BATTLE_EVENT_TABLE"); env != "" {
		return env
	}
	return "battle_events"
}()

// ScoreTableName holds the table used for score rows, overridable via
// BATTLE_SCORE_TABLE.
var ScoreTableName = func() string {
	if env := os.Getenv("BATTLE_SCORE_TABLE"); env != "" {
		return env
	}
	return "battle_scores"
}()

// GreptimeDBWriter writes battle rows to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client *greptime.Client
	db     string
}

// NewGreptimeDBWriter creates a GreptimeDB writer and auto-creates the
// tables if needed.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	cfg := greptime.NewConfig(endpoint).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeDBWriter{client: client, db: database}, nil
}

// WriteEvent inserts a single event row.
func (w *GreptimeDBWriter) WriteEvent(row EventRow) error {
	return w.WriteEvents([]EventRow{row})
}

// WriteEvents inserts multiple event rows.
func (w *GreptimeDBWriter) WriteEvents(rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := table.New(EventTableName)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("battle_id", types.STRING)
	tbl.AddTagColumn("type", types.STRING)
	tbl.AddTagColumn("team", types.STRING)
	tbl.AddFieldColumn("event_id", types.STRING)
	tbl.AddFieldColumn("phase", types.STRING)
	tbl.AddFieldColumn("message", types.STRING)
	tbl.AddFieldColumn("points", types.FLOAT)
	tbl.AddFieldColumn("attack_id", types.STRING)
	tbl.AddFieldColumn("defense_id", types.STRING)
	tbl.AddFieldColumn("severity", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.BattleID, r.Type, r.Team, r.EventID, r.Phase,
			r.Message, r.Points, r.AttackID, r.DefenseID, r.Severity, r.Timestamp); err != nil {
			return err
		}
	}

	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		log.Printf("[GreptimeDBWriter] event write failed: %v", err)
		return err
	}
	return nil
}

// WriteScore inserts a score row.
func (w *GreptimeDBWriter) WriteScore(row ScoreRow) error {
	tbl, err := table.New(ScoreTableName)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("battle_id", types.STRING)
	tbl.AddFieldColumn("phase", types.STRING)
	tbl.AddFieldColumn("red_points", types.FLOAT)
	tbl.AddFieldColumn("blue_points", types.FLOAT)
	tbl.AddFieldColumn("advantage", types.STRING)
	tbl.AddFieldColumn("total_attacks", types.INT)
	tbl.AddFieldColumn("total_blocks", types.INT)
	tbl.AddFieldColumn("success_rate", types.FLOAT)
	tbl.AddFieldColumn("compromised", types.INT)
	tbl.AddFieldColumn("paused", types.BOOLEAN)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	if err := tbl.AddRow(row.BattleID, row.Phase, row.RedPoints, row.BluePoints,
		row.Advantage, int64(row.TotalAttacks), int64(row.TotalBlocks),
		row.SuccessRate, int64(row.Compromised), row.Paused, row.Timestamp); err != nil {
		return err
	}

	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		log.Printf("[GreptimeDBWriter] score write failed: %v", err)
		return err
	}
	return nil
}
