package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"doc2db/internal/errs"
	"doc2db/internal/logger"
)

// Handler serves the /api routes.
type Handler struct {
	svc       Service
	log       *logger.Logger
	maxUpload int64
}

type extractBody struct {
	UploadPath string `json:"upload_path"`
}

type applySchemaBody struct {
	ExtractionID *int64 `json:"extraction_id"`
}

// fail answers with the error envelope. Server-side kinds are logged and
// recorded on the gin context for the access log.
func (h *Handler) fail(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		logger.FromContext(c.Request.Context()).WarnWith("handler error", err, map[string]any{"status": status})
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail(err)})
}

func detail(err error) string {
	var e *errs.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

func badRequest(msg string) error { return errs.New(errs.ErrKindInvalidInput, msg) }

// int64Param parses a required positive id.
func int64Param(raw, name string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, badRequest(name + " required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid " + name)
	}
	return id, nil
}

// CreateProject handles POST /api/projects?name=
func (h *Handler) CreateProject(c *gin.Context) {
	p, err := h.svc.CreateProject(c.Request.Context(), c.Query("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_id": p.ID, "name": p.Name})
}

// Upload handles POST /api/upload?project_id= with a multipart "file".
func (h *Handler) Upload(c *gin.Context) {
	projectID, err := int64Param(c.Query("project_id"), "project_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.maxUpload > 0 {
		// Room for the multipart envelope on top of the file itself.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+1<<20)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		h.fail(c, badRequest("file required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, errs.Wrap(errs.ErrKindInvalidInput, "read upload", err))
		return
	}
	defer f.Close()

	obj, err := h.svc.Upload(c.Request.Context(), projectID, fh.Filename, fh.Size, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, obj)
}

// Extract handles POST /api/extract?project_id= with {"upload_path": key}.
func (h *Handler) Extract(c *gin.Context) {
	projectID, err := int64Param(c.Query("project_id"), "project_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var body extractBody
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.UploadPath) == "" {
		h.fail(c, badRequest("upload_path required"))
		return
	}

	res, err := h.svc.Extract(c.Request.Context(), projectID, body.UploadPath)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ApplySchema handles POST /api/apply-schema?project_id= with {"extraction_id": n}.
func (h *Handler) ApplySchema(c *gin.Context) {
	projectID, err := int64Param(c.Query("project_id"), "project_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var body applySchemaBody
	if err := c.ShouldBindJSON(&body); err != nil || body.ExtractionID == nil {
		h.fail(c, badRequest("extraction_id required"))
		return
	}

	res, err := h.svc.ApplySchema(c.Request.Context(), projectID, *body.ExtractionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListExtractions handles GET /api/projects/:id/extractions.
func (h *Handler) ListExtractions(c *gin.Context) {
	projectID, err := int64Param(c.Param("id"), "project id")
	if err != nil {
		h.fail(c, err)
		return
	}
	list, err := h.svc.Extractions(c.Request.Context(), projectID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"extractions": list})
}

// Preview handles GET /api/preview/:project_id.
func (h *Handler) Preview(c *gin.Context) {
	projectID, err := int64Param(c.Param("project_id"), "project_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	tables, err := h.svc.Preview(c.Request.Context(), projectID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

// Health handles GET /api/health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health(c.Request.Context()))
}
