package upload

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"iiifhub/pkg/models"
)

type FileRepo struct {
	DB *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{DB: db}
}

func (r *FileRepo) Create(ctx context.Context, f models.FileRecord) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO files (id, filename, blob_id, file_type, size, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.Filename, f.BlobID, f.FileType, f.Size, f.Checksum, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when the row does not exist.
func (r *FileRepo) GetByID(ctx context.Context, id string) (*models.FileRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, filename, blob_id, file_type, size, checksum, created_at
		FROM files
		WHERE id = ?
	`, id)

	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return f, nil
}

func (r *FileRepo) List(ctx context.Context, limit, offset int) ([]models.FileRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, filename, blob_id, file_type, size, checksum, created_at
		FROM files
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	out := make([]models.FileRecord, 0, limit)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.FileRecord, error) {
	var (
		f        models.FileRecord
		fileType sql.NullString
		checksum sql.NullString
	)
	if err := s.Scan(&f.ID, &f.Filename, &f.BlobID, &fileType, &f.Size, &checksum, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.FileType = fileType.String
	f.Checksum = checksum.String
	return &f, nil
}
