package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/entregaops-platform/api/internal/audit"
	"github.com/entregaops-platform/api/internal/httpx"
	"github.com/entregaops-platform/api/internal/importer"
	"github.com/entregaops-platform/api/internal/middleware"
	"github.com/entregaops-platform/api/internal/order"
)

const warningEmptyImport = "empty_import"

type importPreviewRequest struct {
	Text       string `json:"text"`
	Type       string `json:"type"`
	SourceFile string `json:"sourceFile,omitempty"`
}

type importSummary struct {
	LinesTotal      int `json:"linesTotal"`
	LinesSkipped    int `json:"linesSkipped"`
	CandidatesNew   int `json:"candidatesNew"`
	CandidatesToUpd int `json:"candidatesUpdate"`
}

type importPreviewResponse struct {
	Candidates []importer.Candidate   `json:"candidates"`
	Skipped    []importer.SkippedLine `json:"skipped"`
	Summary    importSummary          `json:"summary"`
	Warning    string                 `json:"warning,omitempty"`
	RequestID  string                 `json:"requestId"`
}

// PostImportsPreview parses a pasted or uploaded order list and
// reconciles it against the current order set without writing
// anything. The snapshot of existing orders is read once, up front;
// concurrent changes to the board are not observed mid-pass.
func (s *Server) PostImportsPreview(w http.ResponseWriter, r *http.Request) {
	text, batchType, sourceFile, ok := s.readImportInput(w, r)
	if !ok {
		return
	}

	if max := s.Config.ImportMaxLines; max > 0 {
		if lines := strings.Count(text, "\n") + 1; lines > max {
			httpx.WriteError(w, r, http.StatusBadRequest, "line_limit_exceeded", "Import exceeds the line limit", map[string]any{"maxLines": max})
			return
		}
	}

	existing, err := s.Store.ReadAll(r.Context())
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "store_unavailable", "Failed to load existing orders", nil)
		return
	}

	result, err := importer.Reconcile(text, batchType, existing, sourceFile)
	if err != nil {
		if errors.Is(err, importer.ErrUnknownType) {
			httpx.WriteError(w, r, http.StatusBadRequest, "unknown_order_type", "type must be one of the known order types", map[string]any{"type": batchType})
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Import preview failed", nil)
		return
	}

	response := importPreviewResponse{
		Candidates: result.Candidates,
		Skipped:    result.Skipped,
		Summary:    summarize(result),
		RequestID:  middleware.RequestIDFromContext(r.Context()),
	}
	if len(result.Candidates) == 0 {
		// Usually a wrong type selection or wrong paste, not a fault.
		response.Warning = warningEmptyImport
	}
	if response.Candidates == nil {
		response.Candidates = []importer.Candidate{}
	}
	if response.Skipped == nil {
		response.Skipped = []importer.SkippedLine{}
	}

	s.Logger.Info("import_preview",
		"type", batchType,
		"lines_total", result.LinesTotal,
		"candidates", len(result.Candidates),
		"skipped", len(result.Skipped),
		"request_id", response.RequestID,
	)
	httpx.WriteJSON(w, http.StatusOK, response)
}

type importApplyRequest struct {
	Candidates []importer.Candidate `json:"candidates"`
	SourceFile string               `json:"sourceFile,omitempty"`
}

type importApplyResponse struct {
	Status    string                `json:"status"`
	Result    importer.CommitResult `json:"result"`
	RequestID string                `json:"requestId"`
}

// PostImportsApply commits a reviewed candidate list. Operations are
// attempted concurrently and never rolled back: a partial failure is
// reported as such, with the per-operation errors, and the succeeded
// writes stay in place.
func (s *Server) PostImportsApply(w http.ResponseWriter, r *http.Request) {
	var req importApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}

	for _, candidate := range req.Candidates {
		if !candidate.Type.Valid() {
			httpx.WriteError(w, r, http.StatusBadRequest, "unknown_order_type", "candidate type must be one of the known order types", map[string]any{"type": candidate.Type})
			return
		}
		if strings.TrimSpace(candidate.OrderNumber) == "" || strings.TrimSpace(candidate.CustomerName) == "" {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "candidates must carry orderNumber and customerName", nil)
			return
		}
		if candidate.Status == importer.StatusUpdate && candidate.ExistingID == nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "update candidates must carry existingId", nil)
			return
		}
	}

	requestID := middleware.RequestIDFromContext(r.Context())
	result, err := importer.Commit(r.Context(), s.Store, req.Candidates)

	_ = s.Audit.Log(r.Context(), audit.Entry{
		Action:     "import.applied",
		EntityType: "import",
		RequestID:  requestID,
		Metadata: map[string]any{
			"sourceFile": req.SourceFile,
			"created":    result.Created,
			"updated":    result.Updated,
			"failed":     len(result.Failures),
		},
	})

	switch {
	case errors.Is(err, importer.ErrCommitFailed):
		httpx.WriteError(w, r, http.StatusInternalServerError, "commit_failed", "No change-set operation succeeded", result.Failures)
	case errors.Is(err, importer.ErrPartialCommit):
		httpx.WriteJSON(w, http.StatusOK, importApplyResponse{Status: "partial_failure", Result: result, RequestID: requestID})
	default:
		httpx.WriteJSON(w, http.StatusOK, importApplyResponse{Status: "completed", Result: result, RequestID: requestID})
	}
}

// readImportInput accepts either a JSON body or a multipart upload
// with a "file" part and a "type" form field.
func (s *Server) readImportInput(w http.ResponseWriter, r *http.Request) (text string, batchType order.Type, sourceFile string, ok bool) {
	contentType := strings.ToLower(r.Header.Get("Content-Type"))

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(s.Config.ImportMaxBodyBytes); err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "invalid_multipart", "Failed to parse multipart form", nil)
			return "", "", "", false
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "missing_file", "file is required", nil)
			return "", "", "", false
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "invalid_file", "Failed to read uploaded file", nil)
			return "", "", "", false
		}
		return string(data), order.Type(strings.TrimSpace(r.FormValue("type"))), header.Filename, true
	}

	var req importPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return "", "", "", false
	}
	return req.Text, order.Type(strings.TrimSpace(req.Type)), strings.TrimSpace(req.SourceFile), true
}

func summarize(result importer.Result) importSummary {
	summary := importSummary{
		LinesTotal:   result.LinesTotal,
		LinesSkipped: len(result.Skipped),
	}
	for _, candidate := range result.Candidates {
		if candidate.Status == importer.StatusUpdate {
			summary.CandidatesToUpd++
		} else {
			summary.CandidatesNew++
		}
	}
	return summary
}
