package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
)

const documentColumns = `id, user_id, lead_id, document_type, original_name, storage_key, content_type, size, status, uploaded_at`

type DocumentRepository struct {
	DB *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

func (r *DocumentRepository) Create(ctx context.Context, d *entity.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.DB.ExecContext(ctx, query,
		d.ID,
		d.UserID,
		d.LeadID,
		d.DocumentType,
		d.OriginalName,
		d.StorageKey,
		d.ContentType,
		d.Size,
		d.Status,
		d.UploadedAt,
	)
	return err
}

func (r *DocumentRepository) ListByUser(ctx context.Context, userID string) ([]entity.Document, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE user_id = $1 ORDER BY uploaded_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []entity.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*entity.Document, error) {
	d, err := scanDocument(r.DB.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrDocumentNotFound
	}
	return d, err
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrDocumentNotFound)
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var d entity.Document
	var leadID sql.NullString
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&leadID,
		&d.DocumentType,
		&d.OriginalName,
		&d.StorageKey,
		&d.ContentType,
		&d.Size,
		&d.Status,
		&d.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	d.LeadID = leadID.String
	return &d, nil
}
