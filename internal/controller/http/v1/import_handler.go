package v1

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kurochkinivan/shipment_tracker/internal/domain"
	"github.com/kurochkinivan/shipment_tracker/internal/importer"
)

type ImportService interface {
	Import(ctx context.Context, uploader *domain.User, fileName string, payload []byte) (*domain.ImportRun, error)
}

type ImportRunsRepository interface {
	RunByID(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error)
	Runs(ctx context.Context, uploadedBy *uuid.UUID, limit, offset uint64) ([]*domain.ImportRun, int, error)
	RowErrors(ctx context.Context, runID uuid.UUID) ([]*domain.ImportRowError, error)
}

type ImportHandler struct {
	service        ImportService
	runs           ImportRunsRepository
	maxUploadBytes int64
}

func NewImportHandler(service ImportService, runs ImportRunsRepository, maxUploadBytes int64) *ImportHandler {
	return &ImportHandler{
		service:        service,
		runs:           runs,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	run, err := h.service.Import(r.Context(), user, header.Filename, payload)
	if err != nil {
		if errors.Is(err, importer.ErrUnsupportedFormat) || errors.Is(err, importer.ErrEmptyFile) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// ImportTemplate serves the canonical CSV header row operators fill in.
func (h *ImportHandler) ImportTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="shipment_import_template.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write(importer.TemplateHeader)
	writer.Flush()
}

type ListRunsResponse struct {
	Data       []*domain.ImportRun `json:"data"`
	Pagination Pagination          `json:"pagination"`
}

// ListRuns returns import history: management sees every run, a department
// user only their own uploads.
func (h *ImportHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	page, limit, err := parsePagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var uploadedBy *uuid.UUID
	if user.Role != domain.RoleManagement {
		uploadedBy = &user.ID
	}

	runs, total, err := h.runs.Runs(r.Context(), uploadedBy, limit, (page-1)*limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListRunsResponse{
		Data:       runs,
		Pagination: NewPagination(page, limit, total),
	})
}

func (h *ImportHandler) RunErrors(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	runID, err := uuid.Parse(chi.URLParam(r, "run_id"))
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}

	run, err := h.runs.RunByID(r.Context(), runID)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "import run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !user.CanViewRun(run) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	rowErrors, err := h.runs.RowErrors(r.Context(), runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, rowErrors)
}
