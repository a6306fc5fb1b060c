package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks startup.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is logged and startup continues.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "metastore.dsn").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static checks over c. It does not mutate c.
func Validate(c Config) []Issue {
	var issues []Issue
	issues = append(issues, validateServer(c.Server)...)
	issues = append(issues, validateStorage(c.Storage)...)
	issues = append(issues, validateMetastore(c.Metastore)...)
	issues = append(issues, validateFilestore(c.Filestore)...)
	issues = append(issues, validateOracle(c.Oracle)...)
	issues = append(issues, validateUpload(c.Upload)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	issues = append(issues, validateLog(c.Log)...)
	return issues
}

func errorAt(path, msg string) Issue   { return Issue{Severity: SeverityError, Path: path, Message: msg} }
func warningAt(path, msg string) Issue { return Issue{Severity: SeverityWarning, Path: path, Message: msg} }

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func validateServer(s Server) []Issue {
	var issues []Issue
	if blank(s.Addr) {
		issues = append(issues, errorAt("server.addr", "server.addr must not be empty"))
	}
	if s.ShutdownTimeout <= 0 {
		issues = append(issues, warningAt("server.shutdown_timeout", "non-positive shutdown timeout drops in-flight requests"))
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	if blank(s.DataDir) {
		issues = append(issues, errorAt("storage.data_dir", "storage.data_dir must not be empty"))
	}
	if s.PreviewLimit <= 0 {
		issues = append(issues, errorAt("storage.preview_limit", "preview_limit must be positive"))
	}
	return issues
}

func validateMetastore(m Metastore) []Issue {
	var issues []Issue
	known := map[string]struct{}{"sqlite": {}, "postgres": {}, "mysql": {}, "mssql": {}}
	if _, ok := known[m.Kind]; !ok {
		issues = append(issues, errorAt("metastore.kind", fmt.Sprintf("unknown metastore kind %q", m.Kind)))
	}
	if blank(m.DSN) {
		issues = append(issues, errorAt("metastore.dsn", "metastore.dsn must not be empty"))
	}
	return issues
}

func validateFilestore(f Filestore) []Issue {
	var issues []Issue
	switch f.Kind {
	case "local":
		if blank(f.Dir) {
			issues = append(issues, errorAt("filestore.dir", "local filestore requires a directory"))
		}
	case "minio":
		if blank(f.Minio.Endpoint) {
			issues = append(issues, errorAt("filestore.minio.endpoint", "minio filestore requires an endpoint"))
		}
		if blank(f.Minio.Bucket) {
			issues = append(issues, errorAt("filestore.minio.bucket", "minio filestore requires a bucket"))
		}
		if blank(f.Minio.AccessKey) || blank(f.Minio.SecretKey) {
			issues = append(issues, warningAt("filestore.minio", "minio credentials are empty; anonymous access will be attempted"))
		}
	default:
		issues = append(issues, errorAt("filestore.kind", fmt.Sprintf("unknown filestore kind %q", f.Kind)))
	}
	return issues
}

func validateOracle(o Oracle) []Issue {
	var issues []Issue
	key := strings.TrimSpace(o.APIKey)
	if key == "" || strings.HasPrefix(key, "sk-placeholder") {
		issues = append(issues, warningAt("oracle.api_key", "OPENAI_API_KEY is not set; extraction requests will fail"))
	}
	if blank(o.Model) {
		issues = append(issues, errorAt("oracle.model", "oracle.model must not be empty"))
	}
	if o.MaxTokens <= 0 {
		issues = append(issues, errorAt("oracle.max_tokens", "max_tokens must be positive"))
	}
	if o.MaxRetries < 0 {
		issues = append(issues, errorAt("oracle.max_retries", "max_retries must not be negative"))
	}
	if o.Timeout <= 0 {
		issues = append(issues, warningAt("oracle.timeout", "no per-call timeout; the default is used"))
	}
	return issues
}

func validateUpload(u Upload) []Issue {
	var issues []Issue
	if u.MaxMB <= 0 {
		issues = append(issues, errorAt("upload.max_mb", "max_mb must be positive"))
	}
	if len(u.AllowedExt) == 0 {
		issues = append(issues, errorAt("upload.allowed_ext", "at least one extension must be allowed"))
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if blank(m.PushgatewayURL) {
			issues = append(issues, errorAt("metrics.pushgateway_url", "pushgateway backend requires a URL"))
		}
	case "datadog":
		if blank(m.Datadog.Addr) {
			issues = append(issues, errorAt("metrics.datadog.addr", "datadog backend requires an agent address"))
		}
	default:
		issues = append(issues, errorAt("metrics.backend", fmt.Sprintf("unknown metrics backend %q", m.Backend)))
	}
	if m.Backend != "" && m.Backend != "none" && m.FlushInterval <= 0 {
		issues = append(issues, warningAt("metrics.flush_interval", "metrics are only flushed at shutdown"))
	}
	return issues
}

func validateLog(l Log) []Issue {
	var issues []Issue
	switch strings.ToLower(l.Format) {
	case "", "json", "console":
	default:
		issues = append(issues, warningAt("log.format", fmt.Sprintf("unknown log format %q; json is used", l.Format)))
	}
	return issues
}
