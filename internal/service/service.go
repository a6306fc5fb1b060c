// Package service implements the doc2db operations behind the HTTP API:
// projects, uploads, extraction, schema application and preview.
//
// A Service owns no per-request state. Destinations are opened per call
// through the Locator and closed before the call returns.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"doc2db/internal/document"
	"doc2db/internal/errs"
	"doc2db/internal/filestore"
	"doc2db/internal/logger"
	"doc2db/internal/metastore"
	"doc2db/internal/metrics"
	"doc2db/internal/model"
	"doc2db/internal/oracle"
	"doc2db/internal/schema"
	"doc2db/internal/source"
	"doc2db/internal/storage"
	"doc2db/internal/storage/sqlite"
)

// Step names reported to metrics.
const (
	StepExtract     = "extract"
	StepOracle      = "oracle"
	StepSelect      = "select"
	StepApplySchema = "apply_schema"
	StepIngest      = "ingest"
	StepPreview     = "preview"
)

// Options wires a Service.
type Options struct {
	Metastore    metastore.Store
	Files        filestore.Store
	Oracle       oracle.Oracle
	Destinations sqlite.Locator

	Limits       filestore.Limits
	PreviewLimit int

	// LLMConfigured and Database are reported by Health only.
	LLMConfigured bool
	Database      string

	// Job labels every metric; defaults to "doc2db".
	Job string
	Log *logger.Logger
}

// Service is the application core.
type Service struct {
	meta     metastore.Store
	files    filestore.Store
	oracle   oracle.Oracle
	selector source.Selector
	dest     sqlite.Locator

	limits       filestore.Limits
	previewLimit int

	llmConfigured bool
	database      string

	job string
	log *logger.Logger
}

// New returns a Service. Metastore, Files and Oracle are required.
func New(opt Options) (*Service, error) {
	if opt.Metastore == nil || opt.Files == nil || opt.Oracle == nil {
		return nil, fmt.Errorf("service: metastore, filestore and oracle are required")
	}
	if strings.TrimSpace(opt.Destinations.Root) == "" {
		return nil, fmt.Errorf("service: destination root is required")
	}
	if opt.Limits.MaxBytes <= 0 {
		opt.Limits = filestore.DefaultLimits()
	}
	if opt.PreviewLimit <= 0 {
		opt.PreviewLimit = storage.DefaultPreviewLimit
	}
	if opt.Job == "" {
		opt.Job = "doc2db"
	}
	if opt.Log == nil {
		opt.Log = logger.Nop()
	}

	return &Service{
		meta:          opt.Metastore,
		files:         opt.Files,
		oracle:        opt.Oracle,
		selector:      source.Selector{Providers: source.Default(opt.Oracle), Log: opt.Log},
		dest:          opt.Destinations,
		limits:        opt.Limits,
		previewLimit:  opt.PreviewLimit,
		llmConfigured: opt.LLMConfigured,
		database:      opt.Database,
		job:           opt.Job,
		log:           opt.Log,
	}, nil
}

// step times fn and records it under name.
func (s *Service) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(s.job, name, err, time.Since(start))
	return err
}

// projectKey names a project's destination file.
func projectKey(id int64) string { return strconv.FormatInt(id, 10) }

// CreateProject creates a project. An empty name becomes "Untitled".
func (s *Service) CreateProject(ctx context.Context, name string) (metastore.Project, error) {
	p, err := s.meta.CreateProject(ctx, strings.TrimSpace(name))
	if err != nil {
		return metastore.Project{}, err
	}
	s.log.With().Int64("project_id", p.ID).Str("name", p.Name).Logger().Info("project created")
	return p, nil
}

// Upload validates and stores one file for an existing project.
func (s *Service) Upload(ctx context.Context, projectID int64, filename string, size int64, r io.Reader) (filestore.Object, error) {
	if err := filestore.Validate(filename, size, s.limits); err != nil {
		return filestore.Object{}, err
	}
	if _, err := s.meta.GetProject(ctx, projectID); err != nil {
		return filestore.Object{}, err
	}

	// Size may be unknown (-1); the reader is capped so the limit still holds.
	lr := &io.LimitedReader{R: r, N: s.limits.MaxBytes + 1}
	obj, err := s.files.Put(ctx, filestore.Upload{ProjectID: projectID, Filename: filename, Size: size, Reader: lr})
	if err != nil {
		return filestore.Object{}, err
	}
	if obj.Size > s.limits.MaxBytes {
		if derr := s.files.Delete(ctx, obj.Key); derr != nil {
			s.log.WarnWith("remove oversized upload", derr, map[string]any{"key": obj.Key})
		}
		return filestore.Object{}, errs.Newf(errs.ErrKindInvalidInput, "max size %d bytes", s.limits.MaxBytes)
	}

	s.log.InfoWith("upload stored", map[string]any{
		"project_id": projectID,
		"key":        obj.Key,
		"size":       obj.Size,
		"checksum":   obj.Checksum,
	})
	return obj, nil
}

// TableCount summarizes one selected batch.
type TableCount struct {
	Table    string `json:"table"`
	RowCount int    `json:"row_count"`
}

// ExtractResult is returned by Extract.
type ExtractResult struct {
	ProjectID        int64                `json:"project_id"`
	ExtractionID     int64                `json:"extraction_id"`
	ERDiagram        string               `json:"er_diagram"`
	SQLDDL           string               `json:"sql_ddl"`
	RawEntities      []model.Entity       `json:"raw_entities"`
	RawRelationships []model.Relationship `json:"raw_relationships"`
	TableData        []TableCount         `json:"table_data"`
	Source           string               `json:"source"`
}

// Extract runs the oracle over a stored upload, selects the row source,
// renders the schema and persists the extraction.
func (s *Service) Extract(ctx context.Context, projectID int64, uploadKey string) (ExtractResult, error) {
	var res ExtractResult
	err := s.step(StepExtract, func() error {
		var err error
		res, err = s.extract(ctx, projectID, uploadKey)
		return err
	})
	return res, err
}

func (s *Service) extract(ctx context.Context, projectID int64, uploadKey string) (ExtractResult, error) {
	key := strings.TrimSpace(uploadKey)
	if err := filestore.CheckKey(key); err != nil {
		return ExtractResult{}, err
	}
	if !strings.HasPrefix(key, projectKey(projectID)+"_") {
		return ExtractResult{}, errs.New(errs.ErrKindNotFound, "upload not found")
	}
	if _, err := s.meta.GetProject(ctx, projectID); err != nil {
		return ExtractResult{}, err
	}

	data, err := s.readUpload(ctx, key)
	if err != nil {
		return ExtractResult{}, err
	}
	doc, err := document.Load(key, data)
	if err != nil {
		return ExtractResult{}, err
	}
	log := s.log.With().Int64("project_id", projectID).Str("upload", key).Str("kind", string(doc.Kind)).Logger()

	var (
		x   model.Extraction
		raw string
	)
	err = s.step(StepOracle, func() error {
		var err error
		x, raw, err = s.oracle.Extract(ctx, doc)
		return err
	})
	if err != nil {
		log.WarnWith("oracle extract failed", err, nil)
		return ExtractResult{}, err
	}

	var (
		batches  []model.RowBatch
		provider string
	)
	_ = s.step(StepSelect, func() error {
		in := source.Input{Extraction: x, Document: doc}
		if doc.Kind == document.KindTabular {
			in.RawRows = doc.Rows
		}
		batches, provider = s.selector.Select(ctx, in)
		return nil
	})
	x.TableData = batches

	rec := metastore.Extraction{
		ProjectID:        projectID,
		ERDiagram:        schema.Diagram(x),
		SQLDDL:           schema.Render(x).String(),
		RawResponse:      raw,
		SourceProvider:   provider,
		DocumentName:     key,
		DocumentChecksum: filestore.Checksum(data),
	}
	if len(batches) > 0 {
		b, err := json.Marshal(batches)
		if err != nil {
			return ExtractResult{}, errs.Wrap(errs.ErrKindInvalidInput, "encode row batches", err)
		}
		rec.ExtractionData = string(b)
	}
	rec, err = s.meta.CreateExtraction(ctx, rec)
	if err != nil {
		return ExtractResult{}, err
	}

	log.InfoWith("extraction stored", map[string]any{
		"extraction_id": rec.ID,
		"entities":      len(x.Entities),
		"rows":          model.RowCount(batches),
		"source":        provider,
	})

	counts := make([]TableCount, 0, len(batches))
	for _, b := range batches {
		counts = append(counts, TableCount{Table: b.Table, RowCount: len(b.Rows)})
	}
	return ExtractResult{
		ProjectID:        projectID,
		ExtractionID:     rec.ID,
		ERDiagram:        rec.ERDiagram,
		SQLDDL:           rec.SQLDDL,
		RawEntities:      nonNil(x.Entities),
		RawRelationships: nonNil(x.Relationships),
		TableData:        counts,
		Source:           provider,
	}, nil
}

func (s *Service) readUpload(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.files.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, s.limits.MaxBytes+1))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "read upload", err)
	}
	if int64(len(data)) > s.limits.MaxBytes {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "upload exceeds %d bytes", s.limits.MaxBytes)
	}
	return data, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ApplyResult is returned by ApplySchema.
type ApplyResult struct {
	OK               bool   `json:"ok"`
	Message          string `json:"message"`
	RowsInserted     int    `json:"rows_inserted"`
	StatementsFailed int    `json:"statements_failed"`
}

// ApplySchema creates the project's destination if needed, applies the
// extraction's DDL and ingests its persisted rows. Failed statements and
// skipped rows are reported, not returned as errors.
func (s *Service) ApplySchema(ctx context.Context, projectID, extractionID int64) (ApplyResult, error) {
	ext, err := s.meta.GetExtraction(ctx, projectID, extractionID)
	if err != nil {
		return ApplyResult{}, err
	}

	dst, err := s.dest.Create(ctx, projectKey(projectID))
	if err != nil {
		return ApplyResult{}, errs.Wrap(errs.ErrKindConnectionFailed, "open destination", err)
	}
	defer dst.Close()

	log := s.log.With().Int64("project_id", projectID).Int64("extraction_id", extractionID).Logger()

	var applied storage.ApplyReport
	_ = s.step(StepApplySchema, func() error {
		applied = storage.ApplySchema(ctx, dst, ext.SQLDDL)
		if len(applied.Failures) > 0 {
			return fmt.Errorf("%d statements failed", len(applied.Failures))
		}
		return nil
	})
	metrics.RecordStatements(s.job, "executed", int64(applied.Executed))
	metrics.RecordStatements(s.job, "skipped", int64(applied.Skipped))
	metrics.RecordStatements(s.job, "failed", int64(len(applied.Failures)))
	for _, f := range applied.Failures {
		log.WarnWith("statement failed", f.Err, map[string]any{"statement": f.Statement})
	}

	var ingested storage.IngestReport
	if batches := model.DecodeRowBatches([]byte(ext.ExtractionData)); len(batches) > 0 {
		_ = s.step(StepIngest, func() error {
			ingested = storage.Ingest(ctx, dst, batches)
			return ctx.Err()
		})
		metrics.RecordRow(s.job, "inserted", int64(ingested.Inserted))
		metrics.RecordRow(s.job, "skipped", int64(ingested.Skipped()))
		if log.DebugEnabled() {
			for _, r := range ingested.Results {
				if r.Status == storage.Skipped {
					log.DebugWith("row skipped", map[string]any{"table": r.Table, "row": r.Row, "reason": r.Reason})
				}
			}
		}
	}

	log.InfoWith("schema applied", map[string]any{
		"executed":      applied.Executed,
		"failed":        len(applied.Failures),
		"rows_inserted": ingested.Inserted,
	})
	return ApplyResult{
		OK:               true,
		Message:          "DDL applied",
		RowsInserted:     ingested.Inserted,
		StatementsFailed: len(applied.Failures),
	}, nil
}

// Preview reads back every table of the project's destination. A project
// without a destination previews as an empty list.
func (s *Service) Preview(ctx context.Context, projectID int64) ([]storage.TablePreview, error) {
	var out []storage.TablePreview
	err := s.step(StepPreview, func() error {
		dst, err := s.dest.Open(ctx, projectKey(projectID))
		if errs.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		defer dst.Close()

		out, err = storage.Preview(ctx, dst, s.previewLimit)
		if err != nil {
			return errs.Wrap(errs.ErrKindQueryFailed, "preview", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// Extractions lists a project's extractions, oldest first.
func (s *Service) Extractions(ctx context.Context, projectID int64) ([]metastore.Extraction, error) {
	if _, err := s.meta.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.meta.ListExtractions(ctx, projectID)
}

// HealthReport is returned by Health.
type HealthReport struct {
	Status        string  `json:"status"`
	LLMConfigured bool    `json:"llm_configured"`
	DBOK          bool    `json:"db_ok"`
	DBError       *string `json:"db_error"`
	FilesOK       bool    `json:"files_ok"`
	Database      string  `json:"database"`
	DataDir       string  `json:"data_dir"`
}

// Health reports collaborator reachability. It never fails; problems are
// described in the report.
func (s *Service) Health(ctx context.Context) HealthReport {
	rep := HealthReport{
		Status:        "ok",
		LLMConfigured: s.llmConfigured,
		DBOK:          true,
		FilesOK:       true,
		Database:      s.database,
		DataDir:       s.dest.Root,
	}
	if err := s.meta.Ping(ctx); err != nil {
		msg := err.Error()
		rep.DBOK, rep.DBError = false, &msg
	}
	if err := s.files.Ping(ctx); err != nil {
		rep.FilesOK = false
		s.log.WarnWith("filestore ping failed", err, nil)
	}
	return rep
}
