package entity

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrFileTypeForbidden = errors.New("only images, PDFs, and Word documents are allowed")
)

var allowedDocumentExt = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type Document struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	LeadID       string    `json:"leadId,omitempty"`
	DocumentType string    `json:"documentType"`
	OriginalName string    `json:"originalName"`
	StorageKey   string    `json:"-"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	Status       string    `json:"status"` // pending, approved, rejected
	UploadedAt   time.Time `json:"uploadedAt"`
}

// NewDocument checks the file extension and builds the storage key.
func NewDocument(userID, leadID, docType, originalName string, size int64) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	contentType, ok := allowedDocumentExt[ext]
	if !ok {
		return nil, ErrFileTypeForbidden
	}
	if docType == "" {
		docType = "other"
	}
	id := uuid.New().String()
	return &Document{
		ID:           id,
		UserID:       userID,
		LeadID:       leadID,
		DocumentType: docType,
		OriginalName: filepath.Base(originalName),
		StorageKey:   userID + "/" + id + ext,
		ContentType:  contentType,
		Size:         size,
		Status:       "pending",
		UploadedAt:   time.Now(),
	}, nil
}

type DocumentRepositoryInterface interface {
	Create(ctx context.Context, d *Document) error
	ListByUser(ctx context.Context, userID string) ([]Document, error)
	FindByID(ctx context.Context, id string) (*Document, error)
	Delete(ctx context.Context, id string) error
}

// BlobStore keeps uploaded document bytes.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
}
