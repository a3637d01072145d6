// Package store: SQLite хранилище отчётов и истории поиска.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ilkoid/saigon-traffic/pkg/reports"
	"github.com/ilkoid/saigon-traffic/pkg/search"
)

// Store реализует reports.Repository и search.History поверх одной БД.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ reports.Repository = (*Store)(nil)
	_ search.History     = (*Store)(nil)
)

// Open открывает (и при необходимости создаёт) БД по пути dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := InitDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close закрывает соединение с БД.
func (s *Store) Close() error {
	return s.db.Close()
}

// InitDB открывает SQLite БД и создаёт таблицы, если их нет.
func InitDB(dbPath string) (*sql.DB, error) {
	// Каталог для файла БД
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Каждое соединение к :memory:: своя БД
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL для конкурентного чтения во время записи
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS hazards (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			lat REAL NOT NULL,
			lng REAL NOT NULL,
			cause TEXT NOT NULL,
			severity INTEGER NOT NULL,
			notes TEXT NOT NULL,
			reported_at TIMESTAMP NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			image_key TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS incidents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			lat REAL NOT NULL,
			lng REAL NOT NULL,
			description TEXT NOT NULL,
			type TEXT NOT NULL,
			impact INTEGER NOT NULL,
			reported_at TIMESTAMP NOT NULL,
			verified INTEGER NOT NULL DEFAULT 0,
			image_url TEXT NOT NULL DEFAULT '',
			image_key TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS search_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL UNIQUE,
			frequency INTEGER DEFAULT 1,
			result_count INTEGER NOT NULL DEFAULT 0,
			last_searched TIMESTAMP NOT NULL
		);`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}
