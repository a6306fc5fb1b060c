package metastore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"doc2db/internal/errs"
)

var extractionCols = []string{
	"project_id", "er_diagram", "sql_ddl", "raw_response", "extraction_data",
	"source_provider", "document_name", "document_checksum", "created_at",
}

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db *sql.DB
	d  Dialect
}

var _ Store = (*SQLStore)(nil)

// OpenSQL opens dsn with the dialect's driver and pings it.
func OpenSQL(ctx context.Context, d Dialect, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "metastore %s: dsn must not be empty", d.Name)
	}
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "metastore "+d.Name+": open", err)
	}
	s := NewSQL(db, d)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQL wraps an open handle.
func NewSQL(db *sql.DB, d Dialect) *SQLStore {
	return &SQLStore{db: db, d: d}
}

// DB exposes the handle for backend-specific tuning.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "metastore "+s.d.Name+": ping", err)
	}
	return nil
}

func (s *SQLStore) Bootstrap(ctx context.Context) error {
	for _, stmt := range s.d.Bootstrap {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return s.mapError("bootstrap", err)
		}
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) CreateProject(ctx context.Context, name string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultProjectName
	}
	p := Project{Name: name, CreatedAt: now()}

	id, err := s.insert(ctx, "projects", []string{"name", "created_at"}, p.Name, p.CreatedAt)
	if err != nil {
		return Project{}, s.mapError("create project", err)
	}
	p.ID = id
	return p, nil
}

func (s *SQLStore) GetProject(ctx context.Context, id int64) (Project, error) {
	row := s.db.QueryRowContext(ctx, s.d.rebind("SELECT id, name, created_at FROM projects WHERE id = ?"), id)

	var (
		p  Project
		ts any
	)
	if err := row.Scan(&p.ID, &p.Name, &ts); err != nil {
		return Project{}, s.mapError(fmt.Sprintf("project %d", id), err)
	}
	t, err := scanTime(ts)
	if err != nil {
		return Project{}, s.mapError("project created_at", err)
	}
	p.CreatedAt = t
	return p, nil
}

func (s *SQLStore) CreateExtraction(ctx context.Context, e Extraction) (Extraction, error) {
	e.CreatedAt = now()
	id, err := s.insert(ctx, "extractions", extractionCols,
		e.ProjectID, e.ERDiagram, e.SQLDDL, e.RawResponse, e.ExtractionData,
		e.SourceProvider, e.DocumentName, e.DocumentChecksum, e.CreatedAt)
	if err != nil {
		return Extraction{}, s.mapError("create extraction", err)
	}
	e.ID = id
	return e, nil
}

func (s *SQLStore) GetExtraction(ctx context.Context, projectID, id int64) (Extraction, error) {
	q := s.d.rebind("SELECT id, " + strings.Join(extractionCols, ", ") +
		" FROM extractions WHERE id = ? AND project_id = ?")
	e, err := scanExtraction(s.db.QueryRowContext(ctx, q, id, projectID))
	if err != nil {
		return Extraction{}, s.mapError(fmt.Sprintf("extraction %d", id), err)
	}
	return e, nil
}

func (s *SQLStore) ListExtractions(ctx context.Context, projectID int64) ([]Extraction, error) {
	q := s.d.rebind("SELECT id, " + strings.Join(extractionCols, ", ") +
		" FROM extractions WHERE project_id = ? ORDER BY id")
	rows, err := s.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, s.mapError("list extractions", err)
	}
	defer rows.Close()

	out := []Extraction{}
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			return nil, s.mapError("scan extraction", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError("list extractions", err)
	}
	return out, nil
}

func (s *SQLStore) insert(ctx context.Context, table string, cols []string, args ...any) (int64, error) {
	q := s.d.insertSQL(table, cols)
	if s.d.InsertID == LastInsertID {
		res, err := s.db.ExecContext(ctx, q, args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
	var id int64
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&id)
	return id, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExtraction(sc scanner) (Extraction, error) {
	var (
		e  Extraction
		ts any
	)
	err := sc.Scan(&e.ID, &e.ProjectID, &e.ERDiagram, &e.SQLDDL, &e.RawResponse, &e.ExtractionData,
		&e.SourceProvider, &e.DocumentName, &e.DocumentChecksum, &ts)
	if err != nil {
		return Extraction{}, err
	}
	if e.CreatedAt, err = scanTime(ts); err != nil {
		return Extraction{}, err
	}
	return e, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// scanTime accepts the shapes drivers hand back for a timestamp column:
// time.Time, or its text form when the driver does not parse it.
func scanTime(v any) (time.Time, error) {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		s = t
	case []byte:
		s = string(t)
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func (s *SQLStore) mapError(op string, err error) error {
	msg := "metastore " + s.d.Name + ": " + op
	var netErr net.Error
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return errs.Wrap(errs.ErrKindNotFound, msg+" not found", err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone), errors.As(err, &netErr):
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	default:
		return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
	}
}
