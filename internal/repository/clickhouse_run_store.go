package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SleepSim/internal/domain/models"
	domrepo "SleepSim/internal/domain/repository"
	"SleepSim/internal/services/twoprocess"
	pkgch "SleepSim/pkg/clickhouse"
	applogger "SleepSim/pkg/logger"
)

// CHRunStore implements RunStore backed by ClickHouse: one row per run, one per period and,
// when enabled, one per trajectory step.
type CHRunStore struct {
	ch         *pkgch.Client
	db         *sql.DB
	database   string
	trajectory bool
	l          *applogger.Logger
}

var _ domrepo.RunStore = (*CHRunStore)(nil)

// NewCHRunStore takes ownership of ch; Close closes it.
func NewCHRunStore(ch *pkgch.Client, database string, storeTrajectory bool, l *applogger.Logger) *CHRunStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHRunStore{
		ch:         ch,
		db:         ch.DB(),
		database:   database,
		trajectory: storeTrajectory,
		l:          l.Component("run_store"),
	}
}

func (s *CHRunStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, schema(s.database))
}

func schema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.runs (
			id String,
			request_id String,
			scenario LowCardinality(String),
			created_at DateTime64(3, 'UTC'),
			parameters String,
			grid_start Float64,
			grid_end Float64,
			grid_step Float64,
			points UInt32,
			initial_pressure Float64,
			initial_awake Bool,
			skip_first_wake Bool,
			onsets Array(Float64),
			offsets Array(Float64),
			total_sleep Float64
		) ENGINE = ReplacingMergeTree
		ORDER BY id`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.periods (
			run_id String,
			idx UInt32,
			onset_h Float64,
			offset_h Float64,
			onset_index UInt32,
			offset_index UInt32,
			synthetic_onset Bool,
			synthetic_offset Bool
		) ENGINE = ReplacingMergeTree
		ORDER BY (run_id, idx)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.trajectory (
			run_id String,
			idx UInt32,
			t Float64,
			pressure Float64,
			upper Float64,
			lower Float64,
			circadian Float64,
			awake Bool
		) ENGINE = MergeTree
		ORDER BY (run_id, idx)`, database),
	}
}

func (s *CHRunStore) SaveRun(ctx context.Context, run *models.SimulationRun) error {
	start := time.Now()
	row, err := runRow(run)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO %s.runs (id, request_id, scenario, created_at, parameters, grid_start, grid_end,
		grid_step, points, initial_pressure, initial_awake, skip_first_wake, onsets, offsets, total_sleep)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.database)
	if _, err := s.db.ExecContext(ctx, q, row...); err != nil {
		return fmt.Errorf("clickhouse insert run: %w", err)
	}

	q = fmt.Sprintf(`INSERT INTO %s.periods (run_id, idx, onset_h, offset_h, onset_index, offset_index,
		synthetic_onset, synthetic_offset)`, s.database)
	if err := s.ch.InsertBatch(ctx, q, periodRows(run)); err != nil {
		return fmt.Errorf("clickhouse insert periods: %w", err)
	}

	if s.trajectory && run.Trajectory != nil {
		q = fmt.Sprintf("INSERT INTO %s.trajectory (run_id, idx, t, pressure, upper, lower, circadian, awake)", s.database)
		if err := s.ch.InsertBatch(ctx, q, trajectoryRows(run)); err != nil {
			return fmt.Errorf("clickhouse insert trajectory: %w", err)
		}
	}

	s.l.Debug("clickhouse save_run ok",
		applogger.String("run_id", run.ID),
		applogger.Int("periods", len(run.Periods)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *CHRunStore) GetRun(ctx context.Context, id string) (*models.SimulationRun, error) {
	q := fmt.Sprintf(`SELECT id, request_id, scenario, created_at, parameters, grid_start, grid_end, grid_step,
		points, initial_pressure, initial_awake, skip_first_wake, onsets, offsets, total_sleep
		FROM %s.runs FINAL WHERE id = ? LIMIT 1`, s.database)

	var (
		run    models.SimulationRun
		params string
		points uint32
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&run.ID, &run.RequestID, &run.Scenario, &run.CreatedAt, &params,
		&run.Grid.Start, &run.Grid.End, &run.Grid.Step, &points,
		&run.InitialPressure, &run.InitialAwake, &run.SkipFirstWake,
		&run.Onsets, &run.Offsets, &run.TotalSleep,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domrepo.ErrRunNotFound
	}
	if err != nil {
		s.l.Error("clickhouse get_run query error", applogger.String("run_id", id), applogger.Error(err))
		return nil, fmt.Errorf("clickhouse get run: %w", err)
	}
	run.Grid.Points = int(points)
	if err := json.Unmarshal([]byte(params), &run.Parameters); err != nil {
		return nil, fmt.Errorf("decode run parameters: %w", err)
	}

	periods, err := s.periods(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Periods = periods
	return &run, nil
}

func (s *CHRunStore) periods(ctx context.Context, runID string) ([]twoprocess.Period, error) {
	q := fmt.Sprintf(`SELECT onset_h, offset_h, onset_index, offset_index, synthetic_onset, synthetic_offset
		FROM %s.periods FINAL WHERE run_id = ? ORDER BY idx ASC`, s.database)
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("clickhouse get periods: %w", err)
	}
	defer rows.Close()

	out := []twoprocess.Period{}
	for rows.Next() {
		var (
			p         twoprocess.Period
			onI, offI uint32
		)
		if err := rows.Scan(&p.Onset, &p.Offset, &onI, &offI, &p.SyntheticOnset, &p.SyntheticOffset); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		p.OnsetIndex, p.OffsetIndex = int(onI), int(offI)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHRunStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHRunStore) Close() error {
	return s.ch.Close()
}

func runRow(run *models.SimulationRun) ([]any, error) {
	params, err := json.Marshal(run.Parameters)
	if err != nil {
		return nil, fmt.Errorf("encode run parameters: %w", err)
	}
	onsets, offsets := run.Onsets, run.Offsets
	if onsets == nil {
		onsets = []float64{}
	}
	if offsets == nil {
		offsets = []float64{}
	}
	return []any{
		run.ID,
		run.RequestID,
		run.Scenario,
		run.CreatedAt,
		string(params),
		run.Grid.Start,
		run.Grid.End,
		run.Grid.Step,
		uint32(run.Grid.Points),
		run.InitialPressure,
		run.InitialAwake,
		run.SkipFirstWake,
		onsets,
		offsets,
		run.TotalSleep,
	}, nil
}

func periodRows(run *models.SimulationRun) [][]any {
	rows := make([][]any, len(run.Periods))
	for i, p := range run.Periods {
		rows[i] = []any{
			run.ID,
			uint32(i),
			p.Onset,
			p.Offset,
			uint32(p.OnsetIndex),
			uint32(p.OffsetIndex),
			p.SyntheticOnset,
			p.SyntheticOffset,
		}
	}
	return rows
}

func trajectoryRows(run *models.SimulationRun) [][]any {
	tr := run.Trajectory
	rows := make([][]any, len(tr.Time))
	for i := range tr.Time {
		rows[i] = []any{
			run.ID,
			uint32(i),
			tr.Time[i],
			tr.Pressure[i],
			tr.Upper[i],
			tr.Lower[i],
			tr.Circadian[i],
			tr.Awake[i],
		}
	}
	return rows
}
