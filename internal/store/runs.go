package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blackwell-systems/renderlens/internal/analyzer"
	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

// SaveResult persists one analysis result atomically and returns the run ID.
func (db *DB) SaveResult(res *analyzer.Result) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	s := res.Summary
	out, err := tx.Exec(
		`INSERT INTO runs
		(trace_id, name, url, adapter_type, platform, saved_at, duration_ms,
		 total_frames, dropped_frames, avg_fps, p95_frame_time_ms, max_frame_time_ms, frame_budget_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.URL, s.Meta.AdapterType, s.Meta.Platform,
		time.Now().UTC().Format(time.RFC3339), s.DurationMs,
		s.FrameMetrics.TotalFrames, s.FrameMetrics.DroppedFrames, s.FrameMetrics.AvgFps,
		s.FrameMetrics.P95FrameTimeMs, s.FrameMetrics.MaxFrameTimeMs, s.FrameMetrics.FrameBudgetMs,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := out.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, d := range res.Detections {
		payload, err := json.Marshal(d)
		if err != nil {
			return 0, fmt.Errorf("encoding detection: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO detections
			(run_id, type, severity, confidence, description, impact_score, duration_ms,
			 occurrences, frame_budget_impact, speedup_pct, fix_priority,
			 location_selector, location_file, location_line, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, string(d.Type), string(d.Severity), string(d.Metrics.Confidence),
			d.Description, d.Metrics.ImpactScore, d.Metrics.DurationMs,
			d.Metrics.Occurrences, d.Metrics.FrameBudgetImpact, d.Metrics.EstimatedSpeedupPct,
			d.Metrics.Risk.FixPriority, d.Location.Selector, d.Location.File, d.Location.Line,
			string(payload),
		); err != nil {
			return 0, fmt.Errorf("inserting detection: %w", err)
		}
	}

	for _, w := range res.Warnings {
		if _, err := tx.Exec(
			"INSERT INTO warnings (run_id, code, message) VALUES (?, ?, ?)",
			runID, w.Code, w.Message,
		); err != nil {
			return 0, fmt.Errorf("inserting warning: %w", err)
		}
	}

	return runID, tx.Commit()
}

const runColumns = `id, trace_id, name, url, adapter_type, platform, saved_at,
	duration_ms, total_frames, dropped_frames, avg_fps, p95_frame_time_ms,
	max_frame_time_ms, frame_budget_ms`

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(id int64) (*Run, error) {
	row := db.conn.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	return scanRun(row)
}

// GetLatestRun returns the most recent run, or nil if none exist.
func (db *DB) GetLatestRun() (*Run, error) {
	row := db.conn.QueryRow("SELECT " + runColumns + " FROM runs ORDER BY id DESC LIMIT 1")
	return scanRun(row)
}

// GetRunN returns the Nth most recent run (1 = latest, 2 = previous, etc.).
func (db *DB) GetRunN(n int) (*Run, error) {
	row := db.conn.QueryRow(
		"SELECT "+runColumns+" FROM runs ORDER BY id DESC LIMIT 1 OFFSET ?", n-1,
	)
	return scanRun(row)
}

// GetLatestRunByName returns the most recent run with the given trace name,
// or nil if none exist. The ingest loop uses it as the regression baseline.
func (db *DB) GetLatestRunByName(name string) (*Run, error) {
	row := db.conn.QueryRow(
		"SELECT "+runColumns+" FROM runs WHERE name = ? ORDER BY id DESC LIMIT 1", name,
	)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query("SELECT "+runColumns+" FROM runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRunRows(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	var url, platform sql.NullString
	var savedAt string
	err := row.Scan(
		&r.ID, &r.TraceID, &r.Name, &url, &r.AdapterType, &platform, &savedAt,
		&r.DurationMs, &r.TotalFrames, &r.DroppedFrames, &r.AvgFps,
		&r.P95FrameTimeMs, &r.MaxFrameTimeMs, &r.FrameBudgetMs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.URL = url.String
	r.Platform = platform.String
	r.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
	return &r, nil
}

func scanRunRows(rows *sql.Rows) (*Run, error) {
	var r Run
	var url, platform sql.NullString
	var savedAt string
	if err := rows.Scan(
		&r.ID, &r.TraceID, &r.Name, &url, &r.AdapterType, &platform, &savedAt,
		&r.DurationMs, &r.TotalFrames, &r.DroppedFrames, &r.AvgFps,
		&r.P95FrameTimeMs, &r.MaxFrameTimeMs, &r.FrameBudgetMs,
	); err != nil {
		return nil, err
	}
	r.URL = url.String
	r.Platform = platform.String
	r.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
	return &r, nil
}

// GetDetections returns all detections for a run ordered by impact score.
func (db *DB) GetDetections(runID int64) ([]DetectionRow, error) {
	rows, err := db.conn.Query(
		`SELECT id, run_id, type, severity, confidence, description, impact_score,
		 duration_ms, occurrences, frame_budget_impact, speedup_pct, fix_priority,
		 location_selector, location_file, location_line, payload
		 FROM detections WHERE run_id = ? ORDER BY impact_score DESC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []DetectionRow
	for rows.Next() {
		var d DetectionRow
		var selector, file sql.NullString
		var line sql.NullInt64
		if err := rows.Scan(
			&d.ID, &d.RunID, &d.Type, &d.Severity, &d.Confidence, &d.Description,
			&d.ImpactScore, &d.DurationMs, &d.Occurrences, &d.FrameBudgetImpact,
			&d.SpeedupPct, &d.FixPriority, &selector, &file, &line, &d.Payload,
		); err != nil {
			return nil, err
		}
		d.LocationSelector = selector.String
		d.LocationFile = file.String
		d.LocationLine = int(line.Int64)
		out = append(out, d)
	}
	return out, rows.Err()
}

// LoadResult reconstructs a full analysis result from a persisted run. The
// detections round-trip through their JSON payloads so detail structs and
// evidence survive intact.
func (db *DB) LoadResult(runID int64) (*analyzer.Result, error) {
	run, err := db.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run %d not found", runID)
	}

	res := &analyzer.Result{
		Summary: analyzer.Summary{
			ID:         run.TraceID,
			Name:       run.Name,
			URL:        run.URL,
			DurationMs: run.DurationMs,
			FrameMetrics: trace.FrameMetricsSummary{
				TotalFrames:    run.TotalFrames,
				DroppedFrames:  run.DroppedFrames,
				AvgFps:         run.AvgFps,
				P95FrameTimeMs: run.P95FrameTimeMs,
				MaxFrameTimeMs: run.MaxFrameTimeMs,
				FrameBudgetMs:  run.FrameBudgetMs,
			},
			Meta: trace.SnapshotMetadata{
				AdapterType: run.AdapterType,
				Platform:    run.Platform,
			},
		},
	}

	rows, err := db.GetDetections(runID)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		var d finding.Detection
		if err := json.Unmarshal([]byte(r.Payload), &d); err != nil {
			return nil, fmt.Errorf("decoding detection %d: %w", r.ID, err)
		}
		res.Detections = append(res.Detections, d)
	}
	res.Summary.Hotspots = finding.GroupHotspots(res.Detections)

	wrows, err := db.conn.Query("SELECT code, message FROM warnings WHERE run_id = ?", runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = wrows.Close() }()
	for wrows.Next() {
		var w analyzer.Warning
		if err := wrows.Scan(&w.Code, &w.Message); err != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, w)
	}
	return res, wrows.Err()
}
