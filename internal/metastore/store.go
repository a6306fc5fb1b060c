// Package metastore persists projects and extraction records.
//
// Backends register a Factory under a kind name from their init functions;
// import metastore/all (or a single backend package) for side effects and
// call Open with the configured kind. All built-in backends share one
// database/sql implementation and differ only in their Dialect.
package metastore

import (
	"context"
	"time"
)

// Project groups uploads, extractions and one destination database.
type Project struct {
	ID        int64     `json:"project_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Extraction is one persisted oracle run over an upload.
type Extraction struct {
	ID          int64  `json:"extraction_id"`
	ProjectID   int64  `json:"project_id"`
	ERDiagram   string `json:"er_diagram"`
	SQLDDL      string `json:"sql_ddl"`
	RawResponse string `json:"-"`
	// ExtractionData is the selected row batches as JSON, or empty.
	ExtractionData   string    `json:"-"`
	SourceProvider   string    `json:"source"`
	DocumentName     string    `json:"document_name"`
	DocumentChecksum string    `json:"document_checksum"`
	CreatedAt        time.Time `json:"created_at"`
}

// DefaultProjectName is used when a project is created without a name.
const DefaultProjectName = "Untitled"

// Store is the metadata store contract.
type Store interface {
	Ping(ctx context.Context) error
	// Bootstrap creates the tables the store needs. It is idempotent.
	Bootstrap(ctx context.Context) error

	CreateProject(ctx context.Context, name string) (Project, error)
	GetProject(ctx context.Context, id int64) (Project, error)

	CreateExtraction(ctx context.Context, e Extraction) (Extraction, error)
	// GetExtraction reports NotFound when id exists under another project.
	GetExtraction(ctx context.Context, projectID, id int64) (Extraction, error)
	ListExtractions(ctx context.Context, projectID int64) ([]Extraction, error)

	Close() error
}
