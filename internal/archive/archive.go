// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists digest runs in a local SQLite database so
// past digests and their ranked papers can be reviewed later.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-digest/internal/match"
)

const (
	archiveDir = "archive"
	dbFile     = "digest.db"
)

// Store manages the digest archive SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive database at
// dataDir/archive/digest.db, creating the schema if needed.
func Open(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, archiveDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			date TEXT PRIMARY KEY,
			paper_count INTEGER NOT NULL,
			digest TEXT NOT NULL,
			sent INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS run_papers (
			run_date TEXT NOT NULL REFERENCES runs(date) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			id TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			score REAL,
			matched TEXT,
			PRIMARY KEY (run_date, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_papers_id ON run_papers(id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun records one pipeline run: the ranked papers and the digest
// text. Re-running the same date replaces the previous record.
func (s *Store) SaveRun(ctx context.Context, date string, matches []match.Match, digest string, sent bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	sentInt := 0
	if sent {
		sentInt = 1
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (date, paper_count, digest, sent) VALUES (?, ?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET
			paper_count=excluded.paper_count, digest=excluded.digest, sent=excluded.sent`,
		date, len(matches), digest, sentInt,
	); err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_papers WHERE run_date = ?`, date); err != nil {
		return fmt.Errorf("clearing old run papers: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_papers (run_date, position, id, title, authors, score, matched)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range matches {
		authorsJSON, _ := json.Marshal(m.Paper.Authors)
		if _, err := stmt.ExecContext(ctx,
			date, i+1, m.Paper.ID, m.Paper.Title, string(authorsJSON),
			m.Paper.RelevanceScore, strings.Join(m.Detail.AllMatched, ","),
		); err != nil {
			return fmt.Errorf("inserting run paper %s: %w", m.Paper.ID, err)
		}
	}

	return tx.Commit()
}

// Run summarizes one archived pipeline run.
type Run struct {
	Date       string `json:"date"`
	PaperCount int    `json:"paper_count"`
	Sent       bool   `json:"sent"`
}

// RunPaper is one ranked paper within an archived run.
type RunPaper struct {
	Position int      `json:"position"`
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Score    float64  `json:"score"`
	Matched  []string `json:"matched"`
}

// History returns archived runs, newest first, capped at limit
// (limit <= 0 returns all).
func (s *Store) History(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT date, paper_count, sent FROM runs ORDER BY date DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var sent int
		if err := rows.Scan(&r.Date, &r.PaperCount, &sent); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Sent = sent != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Digest returns the archived digest text for one date.
func (s *Store) Digest(ctx context.Context, date string) (string, error) {
	var digest string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM runs WHERE date = ?`, date).Scan(&digest)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no archived run for %s", date)
	}
	if err != nil {
		return "", fmt.Errorf("querying digest: %w", err)
	}
	return digest, nil
}

// Papers returns the ranked papers of one archived run, in rank order.
func (s *Store) Papers(ctx context.Context, date string) ([]RunPaper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, id, title, authors, score, matched
		 FROM run_papers WHERE run_date = ? ORDER BY position`, date)
	if err != nil {
		return nil, fmt.Errorf("querying run papers: %w", err)
	}
	defer rows.Close()

	var papers []RunPaper
	for rows.Next() {
		var (
			p           RunPaper
			authorsJSON sql.NullString
			matched     sql.NullString
		)
		if err := rows.Scan(&p.Position, &p.ID, &p.Title, &authorsJSON, &p.Score, &matched); err != nil {
			return nil, fmt.Errorf("scanning run paper: %w", err)
		}
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &p.Authors)
		}
		if matched.Valid && matched.String != "" {
			p.Matched = strings.Split(matched.String, ",")
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}
