package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"FundingSentinel/internal/model"
)

// SQLiteRecorder persists leads, directives and PnL to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for concurrent reads while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS leads (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			funding_rate REAL,
			side         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leads_ts ON leads(timestamp)`,

		`CREATE TABLE IF NOT EXISTS directives (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			side         TEXT,
			risky        INTEGER,
			profile      TEXT,
			funding_rate REAL,
			boundary     INTEGER,
			open_at      INTEGER,
			close_at     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_directives_ts ON directives(timestamp)`,

		`CREATE TABLE IF NOT EXISTS pnl_records (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			position_id TEXT,
			symbol      TEXT NOT NULL,
			side        TEXT,
			closed_at   INTEGER,
			pnl         REAL,
			entry_price REAL,
			close_price REAL,
			open_fee    REAL,
			close_fee   REAL,
			net_profit  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pnl_ts ON pnl_records(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordLead(lead *model.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO leads (timestamp, symbol, funding_rate, side)
		VALUES (?,?,?,?)`,
		lead.ObservedAt.Unix(), lead.Symbol, lead.FundingRatePercent, string(lead.Side),
	)
	return err
}

func (r *SQLiteRecorder) RecordDirective(evt *DirectiveEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	risky := 0
	if evt.Risky {
		risky = 1
	}
	_, err := r.db.Exec(`INSERT INTO directives
		(timestamp, symbol, side, risky, profile, funding_rate, boundary, open_at, close_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, string(evt.Side), risky, string(evt.Profile),
		evt.FundingRatePercent, evt.Boundary.Unix(), evt.OpenAt.Unix(), evt.CloseAt.Unix(),
	)
	return err
}

func (r *SQLiteRecorder) RecordPnL(rec *model.PnLRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO pnl_records
		(timestamp, position_id, symbol, side, closed_at, pnl, entry_price, close_price, open_fee, close_fee, net_profit)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.PositionID, rec.Symbol, string(rec.Side), rec.ClosedAt.Unix(),
		rec.PnL, rec.EntryPrice, rec.ClosePrice, rec.OpenFee, rec.CloseFee, rec.NetProfit,
	)
	return err
}

func (r *SQLiteRecorder) RecentLeads(limit int) ([]model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, symbol, funding_rate, side
		FROM leads ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var ts int64
		var lead model.Lead
		var side string
		if err := rows.Scan(&ts, &lead.Symbol, &lead.FundingRatePercent, &side); err != nil {
			return nil, err
		}
		lead.ObservedAt = time.Unix(ts, 0)
		lead.Side = model.Side(side)
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
