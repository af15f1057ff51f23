// Package sqlite implements the blob store over a local SQLite database.
// File content is kept inline in the files table; metadata columns mirror
// the store.Metadata document so queries translate to plain WHERE clauses.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/modelvault/modelvault/internal/common"
	"github.com/modelvault/modelvault/internal/dbx"
	"github.com/modelvault/modelvault/internal/store"
	"github.com/modelvault/modelvault/internal/store/sqlite/migrations"
)

type Store struct {
	db *sql.DB
}

// New wraps an already-open database handle. Callers are expected to have
// run migrations (see Open).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens the SQLite database at dsn and brings the schema up to date.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return New(db), nil
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// whereClause translates a query into a WHERE fragment and its args.
// Empty fields are omitted; an empty query matches everything.
func whereClause(q store.Query) (string, []any) {
	var conds []string
	var args []any

	if q.Name != "" {
		conds = append(conds, "filename=?")
		args = append(args, q.Name)
	}
	if q.Owner != "" {
		conds = append(conds, "owner=?")
		args = append(args, q.Owner)
	}
	if q.Project != "" {
		conds = append(conds, "project=?")
		args = append(args, q.Project)
	}
	if q.FileType != "" {
		conds = append(conds, "file_type=?")
		args = append(args, q.FileType)
	}
	if q.Version != 0 {
		conds = append(conds, "version_number=?")
		args = append(args, q.Version)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const descriptorColumns = "id, filename, length, uploaded_at, owner, project, file_type, version_number, version_description, extra"

func scanDescriptor(scan func(dest ...any) error) (*store.FileDescriptor, error) {
	var d store.FileDescriptor
	var extra string
	if err := scan(&d.ID, &d.Name, &d.Length, &d.UploadedAt,
		&d.Metadata.Owner, &d.Metadata.Project, &d.Metadata.FileType,
		&d.Metadata.VersionNumber, &d.Metadata.VersionDescription, &extra); err != nil {
		return nil, err
	}
	if extra != "" && extra != "{}" {
		if err := json.Unmarshal([]byte(extra), &d.Metadata.Extra); err != nil {
			return nil, fmt.Errorf("failed to decode extra metadata: %w", err)
		}
	}
	return &d, nil
}

func (s *Store) Upload(ctx context.Context, name string, r io.Reader, md store.Metadata) (string, error) {
	if r == nil {
		return "", common.ErrEmptyPayload
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload stream: %w", err)
	}
	if len(content) == 0 {
		return "", common.ErrEmptyPayload
	}

	extra := "{}"
	if len(md.Extra) > 0 {
		b, err := json.Marshal(md.Extra)
		if err != nil {
			return "", fmt.Errorf("failed to encode extra metadata: %w", err)
		}
		extra = string(b)
	}

	id := uuid.NewString()
	query := `INSERT INTO files (id, filename, content, length, uploaded_at, owner, project, file_type, version_number, version_description, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		id, name, content, int64(len(content)), time.Now().UTC(),
		md.Owner, md.Project, md.FileType, md.VersionNumber, md.VersionDescription, extra)
	if err != nil {
		return "", fmt.Errorf("failed to insert file: %w", err)
	}
	return id, nil
}

func (s *Store) FindOne(ctx context.Context, q store.Query) (*store.FileDescriptor, error) {
	where, args := whereClause(q)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+descriptorColumns+" FROM files"+where+" ORDER BY version_number, id LIMIT 1", args...)

	d, err := scanDescriptor(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return d, nil
}

func (s *Store) FindMany(ctx context.Context, q store.Query) ([]*store.FileDescriptor, error) {
	where, args := whereClause(q)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+descriptorColumns+" FROM files"+where+" ORDER BY project, filename, file_type, version_number", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*store.FileDescriptor
	for rows.Next() {
		d, err := scanDescriptor(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) OpenContent(ctx context.Context, q store.Query) (io.ReadCloser, *store.FileDescriptor, error) {
	where, args := whereClause(q)
	row := s.db.QueryRowContext(ctx,
		"SELECT content, "+descriptorColumns+" FROM files"+where+" ORDER BY version_number, id LIMIT 1", args...)

	var content []byte
	var d store.FileDescriptor
	var extra string
	err := row.Scan(&content, &d.ID, &d.Name, &d.Length, &d.UploadedAt,
		&d.Metadata.Owner, &d.Metadata.Project, &d.Metadata.FileType,
		&d.Metadata.VersionNumber, &d.Metadata.VersionDescription, &extra)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, common.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to select file content: %w", err)
	}
	if extra != "" && extra != "{}" {
		if err := json.Unmarshal([]byte(extra), &d.Metadata.Extra); err != nil {
			return nil, nil, fmt.Errorf("failed to decode extra metadata: %w", err)
		}
	}
	return io.NopCloser(bytes.NewReader(content)), &d, nil
}

// applyPatch merges the patch into a single row addressed by id. Keys absent
// from the patch keep their stored values.
func applyPatch(ctx context.Context, tx dbx.DBTX, id string, p store.Patch) error {
	if p.Name != "" {
		if _, err := tx.ExecContext(ctx, "UPDATE files SET filename=? WHERE id=?", p.Name, id); err != nil {
			return fmt.Errorf("failed to rename file: %w", err)
		}
	}
	if p.Description != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE files SET version_description=? WHERE id=?", *p.Description, id); err != nil {
			return fmt.Errorf("failed to update description: %w", err)
		}
	}
	if len(p.Extra) > 0 {
		var raw string
		if err := tx.QueryRowContext(ctx, "SELECT extra FROM files WHERE id=?", id).Scan(&raw); err != nil {
			return fmt.Errorf("failed to read extra metadata: %w", err)
		}
		merged := map[string]string{}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &merged); err != nil {
				return fmt.Errorf("failed to decode extra metadata: %w", err)
			}
		}
		for k, v := range p.Extra {
			merged[k] = v
		}
		b, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to encode extra metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE files SET extra=? WHERE id=?", string(b), id); err != nil {
			return fmt.Errorf("failed to update extra metadata: %w", err)
		}
	}
	return nil
}

func (s *Store) matchIDs(ctx context.Context, q store.Query, limit int) ([]string, error) {
	where, args := whereClause(q)
	query := "SELECT id FROM files" + where + " ORDER BY version_number, id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select matching files: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) UpdateOne(ctx context.Context, q store.Query, p store.Patch) error {
	return s.update(ctx, q, p, 1)
}

func (s *Store) UpdateMany(ctx context.Context, q store.Query, p store.Patch) error {
	return s.update(ctx, q, p, 0)
}

func (s *Store) update(ctx context.Context, q store.Query, p store.Patch, limit int) error {
	if p.IsZero() {
		return nil
	}
	ids, err := s.matchIDs(ctx, q, limit)
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, id := range ids {
			if err := applyPatch(ctx, tx, id, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) DeleteOne(ctx context.Context, q store.Query) error {
	ids, err := s.matchIDs(ctx, q, 1)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM files WHERE id=?", ids[0]); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *Store) DeleteMany(ctx context.Context, q store.Query) error {
	where, args := whereClause(q)
	if _, err := s.db.ExecContext(ctx, "DELETE FROM files"+where, args...); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}
