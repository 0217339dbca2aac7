// Package world moves entity placements between a SQLite database and a
// [spatial.Index].
package world

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/calvinalkan/slabtable/pkg/spatial"
)

// Placement is an entity at a cell.
type Placement struct {
	ID  int64
	Pos spatial.Coord
}

const schema = `
	CREATE TABLE IF NOT EXISTS entities (
		id INTEGER PRIMARY KEY,
		x  INTEGER NOT NULL,
		y  INTEGER NOT NULL,
		z  INTEGER NOT NULL
	)`

// sqliteDSN returns a file: URI for path. Each path segment is escaped so
// '?', '#' and '%' in file names are not read as URI syntax.
func sqliteDSN(path string, readOnly bool) string {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	dsn := "file:" + strings.Join(segments, "/")
	if readOnly {
		dsn += "?mode=ro"
	}

	return dsn
}

func openSQLite(ctx context.Context, path string, readOnly bool) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("open sqlite: path is empty")
	}

	db, err := sql.Open("sqlite3", sqliteDSN(path, readOnly))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	return db, nil
}

// LoadPlacements reads every row of the entities table, ordered by id.
func LoadPlacements(ctx context.Context, path string) ([]Placement, error) {
	db, err := openSQLite(ctx, path, true)
	if err != nil {
		return nil, err
	}

	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, "SELECT id, x, y, z FROM entities ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var out []Placement

	for rows.Next() {
		var p Placement

		err = rows.Scan(&p.ID, &p.Pos.X, &p.Pos.Y, &p.Pos.Z)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}

		out = append(out, p)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}

	return out, nil
}

// WritePlacements creates the entities table if needed and inserts
// placements in one transaction. Existing ids are replaced.
func WritePlacements(ctx context.Context, path string, placements []Placement) error {
	db, err := openSQLite(ctx, path, false)
	if err != nil {
		return err
	}

	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write txn: %w", err)
	}

	committed := false

	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO entities (id, x, y, z) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}

	defer func() { _ = insert.Close() }()

	for _, p := range placements {
		_, err = insert.ExecContext(ctx, p.ID, p.Pos.X, p.Pos.Y, p.Pos.Z)
		if err != nil {
			return fmt.Errorf("insert entity %d: %w", p.ID, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit write txn: %w", err)
	}

	committed = true

	return nil
}

// Populate places every placement in idx and returns the number placed.
// It stops at the first failure, typically a full index.
func Populate(idx *spatial.Index[int64], placements []Placement) (int, error) {
	for i, p := range placements {
		err := idx.Place(p.Pos, p.ID)
		if err != nil {
			return i, fmt.Errorf("entity %d: %w", p.ID, err)
		}
	}

	return len(placements), nil
}
