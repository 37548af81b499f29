package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"customerdash/backend/services"
)

// ImportHandler accepts spreadsheet uploads.
type ImportHandler struct {
	imports  *services.ImportService
	maxBytes int64
	logger   *zap.Logger
}

func NewImportHandler(imports *services.ImportService, maxBytes int64, logger *zap.Logger) *ImportHandler {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &ImportHandler{imports: imports, maxBytes: maxBytes, logger: nopIfNil(logger)}
}

// Upload handles POST /imports with a multipart "file" field.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	result, err := h.imports.Import(r.Context(), header.Filename, header.Size, file)
	if err = absorbWarning(w, err); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Files handles GET /imports/files
func (h *ImportHandler) Files(w http.ResponseWriter, r *http.Request) {
	files, err := h.imports.Files(r.Context())
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}
