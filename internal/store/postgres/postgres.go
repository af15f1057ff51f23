// Package postgres implements the blob store backing the server: metadata
// rows live in PostgreSQL, file content lives in an S3-compatible bucket
// keyed by the row id.
package postgres

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

	"github.com/modelvault/modelvault/internal/common"
	"github.com/modelvault/modelvault/internal/dbx"
	"github.com/modelvault/modelvault/internal/store"
)

// ContentStore stores raw file bytes under a store-assigned key.
// Implemented by the S3 client in this package; tests substitute an
// in-memory fake.
type ContentStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type Store struct {
	db      *sql.DB
	content ContentStore
}

func New(db *sql.DB, content ContentStore) *Store {
	return &Store{db: db, content: content}
}

func whereClause(q store.Query) (string, []any) {
	var conds []string
	var args []any

	add := func(col string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s=$%d", col, len(args)))
	}

	if q.Name != "" {
		add("filename", q.Name)
	}
	if q.Owner != "" {
		add("owner", q.Owner)
	}
	if q.Project != "" {
		add("project", q.Project)
	}
	if q.FileType != "" {
		add("file_type", q.FileType)
	}
	if q.Version != 0 {
		add("version_number", q.Version)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const descriptorColumns = "id, filename, length, uploaded_at, owner, project, file_type, version_number, version_description, extra::text"

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
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload stream: %w", err)
	}
	if len(data) == 0 {
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
	if err := s.content.Put(ctx, id, data); err != nil {
		return "", fmt.Errorf("failed to store content: %w", err)
	}

	query := `INSERT INTO model_files (id, filename, length, uploaded_at, owner, project, file_type, version_number, version_description, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)`
	_, err = s.db.ExecContext(ctx, query,
		id, name, int64(len(data)), time.Now().UTC(),
		md.Owner, md.Project, md.FileType, md.VersionNumber, md.VersionDescription, extra)
	if err != nil {
		// keep the stores consistent: drop the content object we just wrote
		if delErr := s.content.Delete(ctx, id); delErr != nil {
			return "", fmt.Errorf("failed to insert file: %v; content cleanup failed: %v", err, delErr)
		}
		return "", fmt.Errorf("failed to insert file: %w", err)
	}
	return id, nil
}

func (s *Store) FindOne(ctx context.Context, q store.Query) (*store.FileDescriptor, error) {
	where, args := whereClause(q)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+descriptorColumns+" FROM model_files"+where+" ORDER BY version_number, id LIMIT 1", args...)

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
		"SELECT "+descriptorColumns+" FROM model_files"+where+" ORDER BY project, filename, file_type, version_number", args...)
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
	d, err := s.FindOne(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.content.Get(ctx, d.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch content: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), d, nil
}

func applyPatch(ctx context.Context, tx dbx.DBTX, id string, p store.Patch) error {
	if p.Name != "" {
		if _, err := tx.ExecContext(ctx, "UPDATE model_files SET filename=$1 WHERE id=$2", p.Name, id); err != nil {
			return fmt.Errorf("failed to rename file: %w", err)
		}
	}
	if p.Description != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE model_files SET version_description=$1 WHERE id=$2", *p.Description, id); err != nil {
			return fmt.Errorf("failed to update description: %w", err)
		}
	}
	if len(p.Extra) > 0 {
		var raw string
		if err := tx.QueryRowContext(ctx, "SELECT extra::text FROM model_files WHERE id=$1", id).Scan(&raw); err != nil {
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
		if _, err := tx.ExecContext(ctx, "UPDATE model_files SET extra=$1::jsonb WHERE id=$2", string(b), id); err != nil {
			return fmt.Errorf("failed to update extra metadata: %w", err)
		}
	}
	return nil
}

func (s *Store) matchIDs(ctx context.Context, q store.Query, limit int) ([]string, error) {
	where, args := whereClause(q)
	query := "SELECT id FROM model_files" + where + " ORDER BY version_number, id"
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

func (s *Store) deleteByIDs(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM model_files WHERE id=$1", id); err != nil {
			return fmt.Errorf("failed to delete file: %w", err)
		}
		if err := s.content.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete content: %w", err)
		}
	}
	return nil
}

func (s *Store) DeleteOne(ctx context.Context, q store.Query) error {
	ids, err := s.matchIDs(ctx, q, 1)
	if err != nil {
		return err
	}
	return s.deleteByIDs(ctx, ids)
}

func (s *Store) DeleteMany(ctx context.Context, q store.Query) error {
	ids, err := s.matchIDs(ctx, q, 0)
	if err != nil {
		return err
	}
	return s.deleteByIDs(ctx, ids)
}
