package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"StockAnalyzer/internal/model"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists analysis runs to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			symbol        TEXT    NOT NULL,
			row_count     INTEGER NOT NULL,
			first_date    TEXT,
			last_date     TEXT,
			average_close REAL,
			std_dev       REAL,
			advisory      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON analysis_runs(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS series_rows (
			run_id         INTEGER NOT NULL REFERENCES analysis_runs(id),
			date           TEXT    NOT NULL,
			open           REAL,
			high           REAL,
			low            REAL,
			close          REAL,
			volume         REAL,
			moving_average REAL,
			rsi            REAL,
			ema_short      REAL,
			ema_long       REAL,
			macd           REAL,
			signal         REAL,
			std_dev        REAL,
			PRIMARY KEY (run_id, date)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordAnalysis writes the run summary and every series row in one
// transaction and returns the run id. Undefined values are stored as NULL.
func (r *SQLiteRecorder) RecordAnalysis(a *model.Analysis) (int64, error) {
	if a == nil || a.Series == nil {
		return 0, errors.New("record analysis: nil analysis")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s := a.Series
	ts := a.RanAt
	if ts.IsZero() {
		ts = time.Now()
	}
	var first, last sql.NullString
	if s.Len() > 0 {
		first = sql.NullString{String: s.Bar(0).Time.Format(time.DateOnly), Valid: true}
		last = sql.NullString{String: s.Bar(s.Len() - 1).Time.Format(time.DateOnly), Valid: true}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO analysis_runs
		(timestamp, symbol, row_count, first_date, last_date, average_close, std_dev, advisory)
		VALUES (?,?,?,?,?,?,?,?)`,
		ts.Unix(), s.Symbol, s.Len(), first, last,
		nullable(a.AverageClose), nullable(a.StdDev), a.Advisory,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	// derived columns follow model.DerivedColumns order
	stmt, err := tx.Prepare(`INSERT INTO series_rows
		(run_id, date, open, high, low, close, volume,
		 moving_average, rsi, ema_short, ema_long, macd, signal, std_dev)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare rows: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < s.Len(); i++ {
		b := s.Bar(i)
		args := []any{runID, b.Time.Format(time.DateOnly), b.Open, b.High, b.Low, b.Close, b.Volume}
		for _, col := range model.DerivedColumns() {
			v, _ := s.Value(col, i)
			args = append(args, nullable(v))
		}
		if _, err := stmt.Exec(args...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	r.logger.Debug().Int64("run_id", runID).Str("symbol", s.Symbol).Int("rows", s.Len()).Msg("analysis recorded")
	return runID, nil
}

func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: model.IsDefined(v)}
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
