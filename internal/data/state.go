package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// stateRepo implements the bot state repository
type stateRepo struct {
	db *sql.DB
}

var stateSchema = []string{
	`CREATE TABLE IF NOT EXISTS bot_state (
		bot TEXT PRIMARY KEY,
		chance INTEGER NOT NULL DEFAULT 0,
		last_mention TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bot_terms (
		bot TEXT NOT NULL,
		position INTEGER NOT NULL,
		term TEXT NOT NULL,
		PRIMARY KEY (bot, term)
	)`,
	`CREATE TABLE IF NOT EXISTS bot_admins (
		bot TEXT NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (bot, name)
	)`,
	`CREATE TABLE IF NOT EXISTS bot_alarms (
		bot TEXT NOT NULL,
		alarm_key TEXT NOT NULL,
		message_id TEXT NOT NULL,
		screen_name TEXT NOT NULL,
		PRIMARY KEY (bot, alarm_key, message_id)
	)`,
}

// NewStateRepo opens (or creates) the SQLite state database
func NewStateRepo(dbPath string) (repo.StateRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; sqlite locks the whole file anyway
	db.SetMaxOpenConns(1)

	for _, stmt := range stateSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}

	return &stateRepo{db: db}, nil
}

// Load returns the bot's state, or a fresh state if none was saved
func (r *stateRepo) Load(ctx context.Context, bot string) (*domain.BotState, error) {
	state := domain.NewBotState()

	err := r.db.QueryRowContext(ctx,
		`SELECT chance, last_mention FROM bot_state WHERE bot = ?`, bot,
	).Scan(&state.Chance, &state.LastMention)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query state: %w", err)
	}

	if state.Terms, err = r.queryStrings(ctx,
		`SELECT term FROM bot_terms WHERE bot = ? ORDER BY position`, bot); err != nil {
		return nil, fmt.Errorf("failed to query terms: %w", err)
	}
	if state.Admins, err = r.queryStrings(ctx,
		`SELECT name FROM bot_admins WHERE bot = ? ORDER BY name`, bot); err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT alarm_key, message_id, screen_name FROM bot_alarms WHERE bot = ?`, bot)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarms: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, msgID, name string
		if err := rows.Scan(&key, &msgID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan alarm: %w", err)
		}
		state.AddAlarm(key, msgID, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alarms: %w", err)
	}

	return state, nil
}

func (r *stateRepo) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Save replaces the bot's persisted state in one transaction
func (r *stateRepo) Save(ctx context.Context, bot string, state *domain.BotState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO bot_state (bot, chance, last_mention, updated_at)
		VALUES (?, ?, ?, ?)
	`, bot, state.Chance, state.LastMention, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	for _, table := range []string{"bot_terms", "bot_admins", "bot_alarms"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE bot = ?`, bot); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, term := range state.Terms {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bot_terms (bot, position, term) VALUES (?, ?, ?)`, bot, i, term); err != nil {
			return fmt.Errorf("failed to save term: %w", err)
		}
	}
	for _, name := range state.Admins {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO bot_admins (bot, name) VALUES (?, ?)`, bot, name); err != nil {
			return fmt.Errorf("failed to save admin: %w", err)
		}
	}
	for key, reqs := range state.Alarms {
		for msgID, name := range reqs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO bot_alarms (bot, alarm_key, message_id, screen_name) VALUES (?, ?, ?, ?)`,
				bot, key, msgID, name); err != nil {
				return fmt.Errorf("failed to save alarm: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}

// Close closes the database
func (r *stateRepo) Close() error {
	return r.db.Close()
}
