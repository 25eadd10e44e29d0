package referencedata

import (
	"encoding/json"
	"net/http"

	"github.com/dmanzer2/lead-gen/pkg/logging"
)

// Handler serves the dropdown listing endpoints.
type Handler struct {
	lister Lister
	logger *logging.Logger
}

// NewHandler creates a reference data handler.
func NewHandler(lister Lister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{lister: lister, logger: logger}
}

type listResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ListBudgetRanges handles GET /api/budget-ranges.
func (h *Handler) ListBudgetRanges(w http.ResponseWriter, r *http.Request) {
	ranges, err := h.lister.ListBudgetRanges(r.Context())
	if err != nil {
		h.logger.Error("api budget ranges error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch budget ranges."})
		return
	}
	if ranges == nil {
		ranges = []BudgetRange{}
	}
	writeJSON(w, http.StatusOK, listResponse{Data: ranges})
}

// ListProjectTimelines handles GET /api/project-timelines.
func (h *Handler) ListProjectTimelines(w http.ResponseWriter, r *http.Request) {
	timelines, err := h.lister.ListProjectTimelines(r.Context())
	if err != nil {
		h.logger.Error("api project timelines error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch project timelines."})
		return
	}
	if timelines == nil {
		timelines = []ProjectTimeline{}
	}
	writeJSON(w, http.StatusOK, listResponse{Data: timelines})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
