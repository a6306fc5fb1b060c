// Package api exposes the service over HTTP with gin.
//
// Every error answers with {"detail": message} and the status derived from
// the error kind.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"doc2db/internal/filestore"
	"doc2db/internal/logger"
	"doc2db/internal/metastore"
	"doc2db/internal/service"
	"doc2db/internal/storage"
)

// Service is what the handlers need from the application core.
type Service interface {
	CreateProject(ctx context.Context, name string) (metastore.Project, error)
	Upload(ctx context.Context, projectID int64, filename string, size int64, r io.Reader) (filestore.Object, error)
	Extract(ctx context.Context, projectID int64, uploadKey string) (service.ExtractResult, error)
	ApplySchema(ctx context.Context, projectID, extractionID int64) (service.ApplyResult, error)
	Preview(ctx context.Context, projectID int64) ([]storage.TablePreview, error)
	Extractions(ctx context.Context, projectID int64) ([]metastore.Extraction, error)
	Health(ctx context.Context) service.HealthReport
}

var _ Service = (*service.Service)(nil)

// NewRouter builds the gin engine with CORS, recovery and access logging.
// maxUpload bounds multipart request bodies; zero disables the bound.
func NewRouter(svc Service, log *logger.Logger, maxUpload int64) *gin.Engine {
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{svc: svc, log: log, maxUpload: maxUpload}

	r := gin.New()
	r.Use(accessLog(log), recovery(log))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With"},
		MaxAge:          12 * time.Hour,
	}))
	if maxUpload > 0 {
		r.MaxMultipartMemory = maxUpload
	}

	api := r.Group("/api")
	{
		api.POST("/projects", h.CreateProject)
		api.GET("/projects/:id/extractions", h.ListExtractions)
		api.POST("/upload", h.Upload)
		api.POST("/extract", h.Extract)
		api.POST("/apply-schema", h.ApplySchema)
		api.GET("/preview/:project_id", h.Preview)
		api.GET("/health", h.Health)
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
	return r
}
