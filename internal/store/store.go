// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists publications and their citation links in SQLite.
// The store is the local publication cache: it answers source lookups and
// receives write-through from remote sources.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/roadmap-engine/internal/source"
	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "data/publications.db"

// maxParams keeps IN lists below SQLite's host parameter limit.
const maxParams = 500

// Store is a SQLite-backed publication store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
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
		`CREATE TABLE IF NOT EXISTS publications (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			abstract TEXT,
			year INTEGER NOT NULL,
			venue TEXT,
			authors TEXT,
			citation_count INTEGER,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS links (
			citing_id TEXT NOT NULL,
			cited_id TEXT NOT NULL,
			PRIMARY KEY (citing_id, cited_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_links_cited ON links(cited_id)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_year ON publications(year)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the publication with id or a *source.NotFoundError.
func (s *Store) Get(ctx context.Context, id string) (*types.Publication, error) {
	pubs, err := s.GetBulk(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(pubs) == 0 {
		return nil, &source.NotFoundError{ID: id}
	}
	return pubs[0], nil
}

// GetBulk returns the stored publications among ids, in request order.
func (s *Store) GetBulk(ctx context.Context, ids []string) ([]*types.Publication, error) {
	byID := make(map[string]*types.Publication, len(ids))
	for start := 0; start < len(ids); start += maxParams {
		chunk := ids[start:min(start+maxParams, len(ids))]
		if err := s.load(ctx, chunk, byID); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(ids))
	out := make([]*types.Publication, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) load(ctx context.Context, ids []string, byID map[string]*types.Publication) error {
	if len(ids) == 0 {
		return nil
	}
	in, args := inList(ids)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, abstract, year, venue, authors, citation_count
		 FROM publications WHERE id IN (`+in+`)`, args...)
	if err != nil {
		return fmt.Errorf("querying publications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                      types.Publication
			abstract, venue, auths sql.NullString
			citationCount          sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Title, &abstract, &p.Year, &venue, &auths, &citationCount); err != nil {
			return fmt.Errorf("scanning publication: %w", err)
		}
		p.Abstract = abstract.String
		p.Venue = venue.String
		p.CitationCount = int(citationCount.Int64)
		if auths.String != "" {
			if err := json.Unmarshal([]byte(auths.String), &p.Authors); err != nil {
				return fmt.Errorf("decoding authors of %s: %w", p.ID, err)
			}
		}
		p.EnsureSets()
		byID[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating publications: %w", err)
	}
	if len(byID) == 0 {
		return nil
	}

	// Both link directions, for the publications found in this chunk.
	links, err := s.db.QueryContext(ctx,
		`SELECT citing_id, cited_id FROM links
		 WHERE citing_id IN (`+in+`) OR cited_id IN (`+in+`)`, append(args, args...)...)
	if err != nil {
		return fmt.Errorf("querying links: %w", err)
	}
	defer links.Close()

	for links.Next() {
		var citing, cited string
		if err := links.Scan(&citing, &cited); err != nil {
			return fmt.Errorf("scanning link: %w", err)
		}
		if p, ok := byID[citing]; ok {
			p.References.Add(cited)
		}
		if p, ok := byID[cited]; ok {
			p.Citations.Add(citing)
		}
	}
	return links.Err()
}

// Put upserts publications and records their references and citations as
// links. Existing links are kept; sources often return partial lists.
func (s *Store) Put(ctx context.Context, pubs ...*types.Publication) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx,
		`INSERT INTO publications (id, title, abstract, year, venue, authors, citation_count, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, abstract=excluded.abstract, year=excluded.year,
			venue=excluded.venue, authors=excluded.authors,
			citation_count=excluded.citation_count, updated_at=excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer upsert.Close()

	link, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO links (citing_id, cited_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing link insert: %w", err)
	}
	defer link.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range pubs {
		if err := p.Validate(); err != nil {
			return err
		}
		authors, _ := json.Marshal(p.Authors)
		if _, err := upsert.ExecContext(ctx,
			p.ID, p.Title, p.Abstract, p.Year, p.Venue, string(authors), p.CitationCount, now,
		); err != nil {
			return fmt.Errorf("upserting %s: %w", p.ID, err)
		}
		for ref := range p.References {
			if ref == p.ID {
				continue
			}
			if _, err := link.ExecContext(ctx, p.ID, ref); err != nil {
				return fmt.Errorf("inserting link %s -> %s: %w", p.ID, ref, err)
			}
		}
		for cit := range p.Citations {
			if cit == p.ID {
				continue
			}
			if _, err := link.ExecContext(ctx, cit, p.ID); err != nil {
				return fmt.Errorf("inserting link %s -> %s: %w", cit, p.ID, err)
			}
		}
	}
	return tx.Commit()
}

// Stats summarizes the store contents.
type Stats struct {
	Publications int
	Links        int
	MinYear      int
	MaxYear      int
}

// Stats counts stored publications and links.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var minYear, maxYear sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*), min(year), max(year) FROM publications`,
	).Scan(&st.Publications, &minYear, &maxYear); err != nil {
		return st, fmt.Errorf("counting publications: %w", err)
	}
	st.MinYear, st.MaxYear = int(minYear.Int64), int(maxYear.Int64)
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM links`).Scan(&st.Links); err != nil {
		return st, fmt.Errorf("counting links: %w", err)
	}
	return st, nil
}

// Search returns publications whose title contains every word of query,
// most cited first. It helps find seed ids.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]*types.Publication, error) {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		limit = 20
	}

	var conds []string
	var args []any
	for _, w := range words {
		conds = append(conds, `lower(title) LIKE ?`)
		args = append(args, "%"+w+"%")
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM publications WHERE `+strings.Join(conds, " AND ")+`
		 ORDER BY citation_count DESC, id LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("searching publications: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.GetBulk(ctx, ids)
}

func inList(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

// Import loads a dataset file (see source.ReadDataset) into the store and
// returns the number of publications written.
func (s *Store) Import(ctx context.Context, path string) (int, error) {
	pubs, err := source.ReadDataset(path)
	if err != nil {
		return 0, err
	}
	const batch = 1000
	for start := 0; start < len(pubs); start += batch {
		if err := s.Put(ctx, pubs[start:min(start+batch, len(pubs))]...); err != nil {
			return start, fmt.Errorf("importing %s: %w", path, err)
		}
	}
	return len(pubs), nil
}
