package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// File represents a stored upload. Content is only populated by the
// byte-fetching lookups.
type File struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	ContentHash  string    `json:"content_hash"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	Content      []byte    `json:"-"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// InsertFile stores a new file record with its raw bytes and returns its ID
func (db *DB) InsertFile(ctx context.Context, f *File) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO files (filename, original_name, content_hash, file_size, mime_type, content)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		f.Filename, f.OriginalName, f.ContentHash, f.FileSize, f.MimeType, f.Content,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert file: %w", err)
	}
	return id, nil
}

// GetFileByID retrieves file metadata by ID, or nil if absent
func (db *DB) GetFileByID(ctx context.Context, id uuid.UUID) (*File, error) {
	var f File
	err := db.pool.QueryRow(ctx,
		`SELECT id, filename, original_name, content_hash, file_size, mime_type, uploaded_at
		 FROM files WHERE id = $1`,
		id,
	).Scan(&f.ID, &f.Filename, &f.OriginalName, &f.ContentHash, &f.FileSize, &f.MimeType, &f.UploadedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return &f, nil
}

// GetFileByHash retrieves file metadata by content hash, or nil if absent.
// Used for upload deduplication.
func (db *DB) GetFileByHash(ctx context.Context, contentHash string) (*File, error) {
	var f File
	err := db.pool.QueryRow(ctx,
		`SELECT id, filename, original_name, content_hash, file_size, mime_type, uploaded_at
		 FROM files WHERE content_hash = $1`,
		contentHash,
	).Scan(&f.ID, &f.Filename, &f.OriginalName, &f.ContentHash, &f.FileSize, &f.MimeType, &f.UploadedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get file by hash: %w", err)
	}
	return &f, nil
}

// GetFileContent retrieves a file's raw bytes and mime type, or nil if absent
func (db *DB) GetFileContent(ctx context.Context, id uuid.UUID) (*File, error) {
	var f File
	err := db.pool.QueryRow(ctx,
		`SELECT id, filename, original_name, content_hash, file_size, mime_type, content, uploaded_at
		 FROM files WHERE id = $1`,
		id,
	).Scan(&f.ID, &f.Filename, &f.OriginalName, &f.ContentHash, &f.FileSize, &f.MimeType, &f.Content, &f.UploadedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get file content: %w", err)
	}
	return &f, nil
}
