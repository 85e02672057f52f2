package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/binhbb2204/nocturne/pkg/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// Open opens (creating if needed) a SQLite database with the schema applied.
func Open(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err = createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return db, nil
}

// InitDatabase opens dbPath and installs it as the package-level DB.
func InitDatabase(dbPath string) error {
	db, err := Open(dbPath)
	if err != nil {
		return err
	}
	DB = db
	logger.Info("database_connected", "path", dbPath)
	return nil
}

func createTables(db *sql.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS accounts (
        id TEXT PRIMARY KEY,
        email TEXT UNIQUE NOT NULL,
        display_name TEXT NOT NULL DEFAULT '',
        photo_url TEXT NOT NULL DEFAULT '',
        password_hash TEXT NOT NULL,
        created_at INTEGER NOT NULL
    );

    CREATE TABLE IF NOT EXISTS novels (
        id TEXT PRIMARY KEY,
        author_id TEXT NOT NULL,
        author_name TEXT NOT NULL DEFAULT '',
        title TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        cover_url TEXT NOT NULL DEFAULT '',
        tags TEXT NOT NULL DEFAULT '[]',
        category TEXT NOT NULL DEFAULT '',
        created_at INTEGER NOT NULL,
        updated_at INTEGER NOT NULL,
        is_published INTEGER NOT NULL DEFAULT 0,
        chapter_count INTEGER NOT NULL DEFAULT 0,
        rating REAL
    );

    CREATE TABLE IF NOT EXISTS chapters (
        id TEXT NOT NULL,
        novel_id TEXT NOT NULL,
        title TEXT NOT NULL DEFAULT '',
        content TEXT,
        chapter_order INTEGER NOT NULL,
        last_updated INTEGER NOT NULL,
        PRIMARY KEY (novel_id, id),
        FOREIGN KEY (novel_id) REFERENCES novels(id)
    );

    CREATE TABLE IF NOT EXISTS user_data (
        uid TEXT PRIMARY KEY,
        tokens INTEGER NOT NULL DEFAULT 0
    );

    CREATE TABLE IF NOT EXISTS user_library (
        uid TEXT NOT NULL,
        novel_id TEXT NOT NULL,
        added_at INTEGER NOT NULL,
        PRIMARY KEY (uid, novel_id)
    );

    CREATE INDEX IF NOT EXISTS idx_novels_author ON novels(author_id);
    CREATE INDEX IF NOT EXISTS idx_chapters_novel ON chapters(novel_id, chapter_order);
    `

	if _, err := db.Exec(schema); err != nil {
		return err
	}
	// Chapters written before multi-page authoring only carry content.
	return ensureColumn(db, "chapters", "pages", `ALTER TABLE chapters ADD COLUMN pages TEXT;`)
}

func ensureColumn(db *sql.DB, table, column, ddl string) error {
	rows, err := db.Query(`PRAGMA table_info(` + table + `);`)
	if err != nil {
		return err
	}
	found := false
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		if strings.EqualFold(name, column) {
			found = true
			break
		}
	}
	rows.Close()
	if found {
		return nil
	}
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("adding %s.%s column: %w", table, column, err)
	}
	logger.Info("database_column_added", "table", table, "column", column)
	return nil
}

func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
