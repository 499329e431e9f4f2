package manifest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"iiifhub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Create stores the manifest, its file links and its Dublin Core row in one
// transaction.
func (r *Repo) Create(ctx context.Context, rec models.ManifestRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO manifests (id, label, description, manifest, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.Label, nullString(rec.Description), string(rec.Manifest), rec.CreatedAt); err != nil {
		return fmt.Errorf("insert manifest: %w", err)
	}

	for i, fileID := range rec.FileIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO manifest_files (manifest_id, file_id, position)
			VALUES (?, ?, ?)
		`, rec.ID, fileID, i); err != nil {
			return fmt.Errorf("link file %s: %w", fileID, err)
		}
	}

	if rec.Metadata != nil {
		m := rec.Metadata
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dublin_core_metadata (
				manifest_id, title, creator, subject, description, publisher, contributor,
				date, type, format, identifier, source, language, relation, coverage, rights
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.ID, m.Title, m.Creator, m.Subject, m.Description, m.Publisher, m.Contributor,
			m.Date, m.Type, m.Format, m.Identifier, m.Source, m.Language, m.Relation, m.Coverage, m.Rights); err != nil {
			return fmt.Errorf("insert dublin core: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit manifest: %w", err)
	}
	return nil
}

// UpsertMetadata replaces the Dublin Core row of an existing manifest,
// inserting it when the manifest was stored without one. The manifest
// document itself is left as assembled.
func (r *Repo) UpsertMetadata(ctx context.Context, manifestID string, m models.DescriptiveMetadata) error {
	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO dublin_core_metadata (
			manifest_id, title, creator, subject, description, publisher, contributor,
			date, type, format, identifier, source, language, relation, coverage, rights
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(manifest_id) DO UPDATE SET
			title = excluded.title, creator = excluded.creator, subject = excluded.subject,
			description = excluded.description, publisher = excluded.publisher,
			contributor = excluded.contributor, date = excluded.date, type = excluded.type,
			format = excluded.format, identifier = excluded.identifier, source = excluded.source,
			language = excluded.language, relation = excluded.relation,
			coverage = excluded.coverage, rights = excluded.rights
	`, manifestID, m.Title, m.Creator, m.Subject, m.Description, m.Publisher, m.Contributor,
		m.Date, m.Type, m.Format, m.Identifier, m.Source, m.Language, m.Relation, m.Coverage, m.Rights); err != nil {
		return fmt.Errorf("upsert dublin core: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when no manifest has the id.
func (r *Repo) GetByID(ctx context.Context, id string) (*models.ManifestRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT m.id, m.label, m.description, m.manifest, m.created_at,
			d.manifest_id, d.title, d.creator, d.subject, d.description, d.publisher, d.contributor,
			d.date, d.type, d.format, d.identifier, d.source, d.language, d.relation, d.coverage, d.rights
		FROM manifests m
		LEFT JOIN dublin_core_metadata d ON d.manifest_id = m.id
		WHERE m.id = ?
	`, id)

	var (
		rec         models.ManifestRecord
		description sql.NullString
		body        string
		dcID        sql.NullString
		dc          [15]sql.NullString
	)
	dest := []any{&rec.ID, &rec.Label, &description, &body, &rec.CreatedAt, &dcID}
	for i := range dc {
		dest = append(dest, &dc[i])
	}
	if err := row.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan manifest: %w", err)
	}
	rec.Description = description.String
	rec.Manifest = json.RawMessage(body)

	if dcID.Valid {
		var meta models.DescriptiveMetadata
		for i, name := range models.Elements {
			meta.Set(name, dc[i].String)
		}
		rec.Metadata = &meta
	}

	fileIDs, err := r.fileIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.FileIDs = fileIDs
	return &rec, nil
}

// GetManifestJSON returns the stored document, or nil when missing.
func (r *Repo) GetManifestJSON(ctx context.Context, id string) (json.RawMessage, error) {
	var body string
	err := r.DB.QueryRowContext(ctx, `SELECT manifest FROM manifests WHERE id = ?`, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get manifest json: %w", err)
	}
	return json.RawMessage(body), nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM manifests`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count manifests: %w", err)
	}
	return total, nil
}

// List returns records newest first, without the manifest documents.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]models.ManifestRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, label, description, created_at
		FROM manifests
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	defer rows.Close()

	out := make([]models.ManifestRecord, 0, limit)
	for rows.Next() {
		var (
			rec         models.ManifestRecord
			description sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Label, &description, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan manifest: %w", err)
		}
		rec.Description = description.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) fileIDs(ctx context.Context, manifestID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT file_id FROM manifest_files WHERE manifest_id = ? ORDER BY position
	`, manifestID)
	if err != nil {
		return nil, fmt.Errorf("list manifest files: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan manifest file: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// isForeignKeyViolation reports whether err came from a row referencing a
// missing parent.
func isForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
