package storage

// sqlite.go — durable position store on pure-Go SQLite.
//
// Tables:
//   - `positions`: the core ledger records, one row per position. A partial
//     unique index on (venue, market_id) WHERE status='OPEN' enforces the
//     single-open-position invariant at the schema level; the insert itself
//     uses INSERT..SELECT WHERE NOT EXISTS so the duplicate check and the
//     write are one atomic statement.
//   - `market_snapshots`: one row per observed price during refresh.
//   - `cycles`: one lightweight summary row per scan cycle.
//   - Prune on startup: snapshots > 14d, cycles > 30d.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/surebet/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    venue         TEXT     NOT NULL,
    market_id     TEXT     NOT NULL,
    question      TEXT     NOT NULL,
    side          TEXT     NOT NULL,
    entry_price   REAL     NOT NULL CHECK (entry_price > 0),
    notional      REAL     NOT NULL CHECK (notional > 0),
    entry_time    TEXT     NOT NULL,
    current_price REAL,
    status        TEXT     NOT NULL DEFAULT 'OPEN',
    exit_time     TEXT,
    exit_price    REAL,
    outcome       TEXT,
    profit_loss   REAL,
    fee_paid      REAL,
    notes         TEXT     NOT NULL DEFAULT ''
);

-- At most one OPEN position per (venue, market_id)
CREATE UNIQUE INDEX IF NOT EXISTS idx_positions_open_market
    ON positions(venue, market_id) WHERE status = 'OPEN';
CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);

CREATE TABLE IF NOT EXISTS market_snapshots (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    market_id TEXT NOT NULL,
    venue     TEXT NOT NULL,
    price     REAL NOT NULL,
    timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_market ON market_snapshots(market_id, timestamp DESC);

CREATE TABLE IF NOT EXISTS cycles (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id      TEXT    NOT NULL,
    scanned_at    TEXT    NOT NULL,
    opportunities INTEGER NOT NULL DEFAULT 0,
    entered       INTEGER NOT NULL DEFAULT 0,
    settled       INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_cycles_at ON cycles(scanned_at DESC);
`

const (
	retentionSnapshots = 14 * 24 * time.Hour
	retentionCycles    = 30 * 24 * time.Hour
)

// SQLiteStore implements ports.PositionStore using SQLite (pure Go, no CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path, applies
// the schema and prunes old snapshot/cycle rows.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// InsertPosition creates a new OPEN position. The WHERE NOT EXISTS clause
// makes the duplicate check atomic with the write: if an OPEN row for the
// same (venue, market_id) exists, zero rows are inserted and
// domain.ErrDuplicateMarket comes back.
func (s *SQLiteStore) InsertPosition(ctx context.Context, p domain.Position) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (venue, market_id, question, side, entry_price,
		                       notional, entry_time, current_price, status)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, 'OPEN'
		WHERE NOT EXISTS (
			SELECT 1 FROM positions WHERE venue = ? AND market_id = ? AND status = 'OPEN'
		)`,
		p.Venue, p.MarketID, p.Question, p.Side, p.EntryPrice,
		p.Notional, formatTime(p.EntryTime), p.EntryPrice,
		p.Venue, p.MarketID,
	)
	if err != nil {
		return 0, fmt.Errorf("storage.InsertPosition: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storage.InsertPosition: rows affected: %w", err)
	}
	if rows == 0 {
		return 0, domain.ErrDuplicateMarket
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage.InsertPosition: last insert id: %w", err)
	}
	return id, nil
}

// GetPosition returns the position with the given id.
func (s *SQLiteStore) GetPosition(ctx context.Context, id int64) (domain.Position, error) {
	row := s.db.QueryRowContext(ctx, selectPositions+` WHERE id = ?`, id)
	pos, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Position{}, domain.ErrUnknownPosition
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("storage.GetPosition: %d: %w", id, err)
	}
	return pos, nil
}

// UpdatePrice sets the last-observed price on an OPEN position. Returns
// false when nothing matched (closed or unknown id).
func (s *SQLiteStore) UpdatePrice(ctx context.Context, id int64, price float64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE positions SET current_price = ? WHERE id = ? AND status = 'OPEN'`,
		price, id,
	)
	if err != nil {
		return false, fmt.Errorf("storage.UpdatePrice: %d: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage.UpdatePrice: rows affected: %w", err)
	}
	return rows > 0, nil
}

// ClosePosition writes all settlement fields and flips the status in one
// statement, guarded on status = 'OPEN' so settlement is idempotent and the
// fields are written exactly once.
func (s *SQLiteStore) ClosePosition(ctx context.Context, id int64, exitPrice float64, outcome domain.Outcome, profitLoss, feePaid float64, notes string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE positions
		SET status      = 'CLOSED',
		    exit_time   = ?,
		    exit_price  = ?,
		    outcome     = ?,
		    profit_loss = ?,
		    fee_paid    = ?,
		    notes       = ?
		WHERE id = ? AND status = 'OPEN'`,
		formatTime(time.Now().UTC()), exitPrice, outcome, profitLoss, feePaid, notes, id,
	)
	if err != nil {
		return false, fmt.Errorf("storage.ClosePosition: %d: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage.ClosePosition: rows affected: %w", err)
	}
	return rows > 0, nil
}

// OpenPositions returns all OPEN positions, newest entries first.
func (s *SQLiteStore) OpenPositions(ctx context.Context) ([]domain.Position, error) {
	return s.queryPositions(ctx, selectPositions+` WHERE status = 'OPEN' ORDER BY entry_time DESC, id DESC`)
}

// ClosedPositions returns all CLOSED positions, most recently settled first.
func (s *SQLiteStore) ClosedPositions(ctx context.Context) ([]domain.Position, error) {
	return s.queryPositions(ctx, selectPositions+` WHERE status = 'CLOSED' ORDER BY exit_time DESC, id DESC`)
}

// Stats aggregates over all CLOSED positions. With none, every field is zero.
func (s *SQLiteStore) Stats(ctx context.Context) (domain.Stats, error) {
	var (
		stats    domain.Stats
		invested float64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN outcome = 'WON'  THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN outcome = 'LOST' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(profit_loss), 0),
		       COALESCE(SUM(fee_paid), 0),
		       COALESCE(SUM(notional), 0)
		FROM positions WHERE status = 'CLOSED'`,
	).Scan(&stats.TotalTrades, &stats.Wins, &stats.Losses,
		&stats.TotalPnL, &stats.TotalFees, &invested)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("storage.Stats: %w", err)
	}

	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.TotalTrades) * 100
		stats.AvgProfit = stats.TotalPnL / float64(stats.TotalTrades)
	}
	if invested > 0 {
		stats.ROI = stats.TotalPnL / invested * 100
	}
	return stats, nil
}

// SaveSnapshot records one observed price point.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap domain.MarketSnapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO market_snapshots (market_id, venue, price, timestamp) VALUES (?, ?, ?, ?)`,
		snap.MarketID, snap.Venue, snap.Price, formatTime(snap.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot: %s: %w", snap.MarketID, err)
	}
	return nil
}

// SaveCycle records the per-cycle summary row.
func (s *SQLiteStore) SaveCycle(ctx context.Context, c domain.CycleSummary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles (cycle_id, scanned_at, opportunities, entered, settled) VALUES (?, ?, ?, ?, ?)`,
		c.CycleID, formatTime(c.ScannedAt), c.Opportunities, c.Entered, c.Settled,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveCycle: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// pruneOld deletes snapshot and cycle rows past retention. Positions are
// never deleted.
func (s *SQLiteStore) pruneOld(ctx context.Context) {
	now := time.Now().UTC()
	s.db.ExecContext(ctx, `DELETE FROM market_snapshots WHERE timestamp < ?`,
		formatTime(now.Add(-retentionSnapshots)))
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE scanned_at < ?`,
		formatTime(now.Add(-retentionCycles)))
}

const selectPositions = `
	SELECT id, venue, market_id, question, side, entry_price, notional,
	       entry_time, current_price, status, exit_time, exit_price, outcome,
	       profit_loss, fee_paid, notes
	FROM positions`

func (s *SQLiteStore) queryPositions(ctx context.Context, query string, args ...any) ([]domain.Position, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.queryPositions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.queryPositions: scan: %w", err)
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (domain.Position, error) {
	var (
		pos          domain.Position
		entryTime    string
		currentPrice sql.NullFloat64
		exitTime     sql.NullString
		exitPrice    sql.NullFloat64
		outcome      sql.NullString
		profitLoss   sql.NullFloat64
		feePaid      sql.NullFloat64
	)
	err := row.Scan(&pos.ID, &pos.Venue, &pos.MarketID, &pos.Question, &pos.Side,
		&pos.EntryPrice, &pos.Notional, &entryTime, &currentPrice, &pos.Status,
		&exitTime, &exitPrice, &outcome, &profitLoss, &feePaid, &pos.Notes)
	if err != nil {
		return domain.Position{}, err
	}

	pos.EntryTime = parseTime(entryTime)
	if currentPrice.Valid {
		pos.CurrentPrice = &currentPrice.Float64
	}
	if exitTime.Valid {
		t := parseTime(exitTime.String)
		pos.ExitTime = &t
	}
	if exitPrice.Valid {
		pos.ExitPrice = &exitPrice.Float64
	}
	if outcome.Valid {
		o := domain.Outcome(outcome.String)
		pos.Outcome = &o
	}
	if profitLoss.Valid {
		pos.ProfitLoss = &profitLoss.Float64
	}
	if feePaid.Valid {
		pos.FeePaid = &feePaid.Float64
	}
	return pos, nil
}

// Times are stored as RFC 3339 strings in UTC so lexical ordering matches
// chronological ordering.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
