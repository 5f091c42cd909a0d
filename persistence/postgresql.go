// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/wfunc/sweeper/models"
)

const queryTimeout = 5 * time.Second

// PostgreSQL is the raw-SQL archive over lib/pq.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(opts Options) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", opts.dsn())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tables: %w", err)
	}

	return &PostgreSQL{db: db}, nil
}

// initTables creates a schema compatible with the GORM archive so either
// driver can read what the other wrote.
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_records (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            record_id TEXT UNIQUE NOT NULL,
            room_code TEXT NOT NULL,
            owner_id TEXT NOT NULL,
            members JSONB,
            "rows" BIGINT NOT NULL,
            cols BIGINT NOT NULL,
            mines BIGINT NOT NULL,
            status TEXT NOT NULL,
            moves BIGINT DEFAULT 0,
            started_at TIMESTAMPTZ NOT NULL,
            finished_at TIMESTAMPTZ NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_game_records_room_code ON game_records(room_code);
        CREATE INDEX IF NOT EXISTS idx_game_records_status ON game_records(status);
        CREATE INDEX IF NOT EXISTS idx_game_records_finished_at ON game_records(finished_at);
    `)
	return err
}

func (p *PostgreSQL) SaveGameRecord(ctx context.Context, record *models.GameRecord) error {
	members, err := json.Marshal(record.Members)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
        INSERT INTO game_records
            (record_id, room_code, owner_id, members, "rows", cols, mines, status, moves, started_at, finished_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	_, err = p.db.ExecContext(ctx, query,
		record.ID, record.RoomCode, record.OwnerID, members,
		record.Rows, record.Cols, record.Mines,
		record.Status, record.Moves, record.StartedAt, record.FinishedAt)
	return err
}

const selectRecord = `
    SELECT record_id, room_code, owner_id, members, "rows", cols, mines, status, moves, started_at, finished_at
    FROM game_records
    WHERE deleted_at IS NULL`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.GameRecord, error) {
	var (
		r       models.GameRecord
		members []byte
	)
	err := row.Scan(&r.ID, &r.RoomCode, &r.OwnerID, &members,
		&r.Rows, &r.Cols, &r.Mines, &r.Status, &r.Moves, &r.StartedAt, &r.FinishedAt)
	if err != nil {
		return nil, err
	}
	if len(members) > 0 {
		if err := json.Unmarshal(members, &r.Members); err != nil {
			return nil, fmt.Errorf("decode members of %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

func (p *PostgreSQL) LoadGameRecord(ctx context.Context, id string) (*models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	record, err := scanRecord(p.db.QueryRowContext(ctx, selectRecord+` AND record_id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	return record, err
}

func (p *PostgreSQL) RecentGameRecords(ctx context.Context, limit int) ([]models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, selectRecord+` ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (p *PostgreSQL) GameStats(ctx context.Context) (*models.GameStats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var stats models.GameStats
	err := p.db.QueryRowContext(ctx, `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN status = 'won' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN status = 'lost' THEN 1 ELSE 0 END), 0),
            COALESCE(AVG(moves), 0)
        FROM game_records
        WHERE deleted_at IS NULL`,
	).Scan(&stats.TotalGames, &stats.Wins, &stats.Losses, &stats.AverageMoves)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
