// File path: internal/postgres/types.go
package postgres

import (
	"database/sql"
	"time"
)

// DocumentRecord is one row of document metadata with its extracted content.
type DocumentRecord struct {
	ID              int64          `db:"id" json:"id"`
	CompanyID       int64          `db:"company_id" json:"company_id"`
	Filename        string         `db:"filename" json:"filename"`
	ContentType     string         `db:"content_type" json:"content_type"`
	FileSize        string         `db:"file_size" json:"file_size,omitempty"`
	ParsedContent   sql.NullString `db:"parsed_content" json:"-"`
	DocumentSummary sql.NullString `db:"document_summary" json:"-"`
	BucketName      sql.NullString `db:"bucket_name" json:"-"`
	ObjectName      sql.NullString `db:"object_name" json:"-"`
	CreatedAt       sql.NullTime   `db:"created_at" json:"-"`
}

// Summary returns the document summary or "".
func (d DocumentRecord) Summary() string {
	if d.DocumentSummary.Valid {
		return d.DocumentSummary.String
	}
	return ""
}

// Content returns the parsed text content or "".
func (d DocumentRecord) Content() string {
	if d.ParsedContent.Valid {
		return d.ParsedContent.String
	}
	return ""
}

// Created returns the creation timestamp or the zero time.
func (d DocumentRecord) Created() time.Time {
	if d.CreatedAt.Valid {
		return d.CreatedAt.Time
	}
	return time.Time{}
}
