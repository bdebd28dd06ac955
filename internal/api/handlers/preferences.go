package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/johanneskirmayr/CarMem/internal/domain"
	"github.com/johanneskirmayr/CarMem/internal/service"
	"github.com/johanneskirmayr/CarMem/internal/taxonomy"
)

// PreferenceHandler exposes extraction, maintenance and search over the
// preference store.
type PreferenceHandler struct {
	extraction  *service.ExtractionService
	maintenance *service.MaintenanceService
	store       domain.PreferenceStore
	embedder    domain.EmbeddingClient
	logger      *zap.Logger
}

func NewPreferenceHandler(extraction *service.ExtractionService, maintenance *service.MaintenanceService, store domain.PreferenceStore, embedder domain.EmbeddingClient, logger *zap.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		extraction:  extraction,
		maintenance: maintenance,
		store:       store,
		embedder:    embedder,
		logger:      logger,
	}
}

type extractRequest struct {
	UserName     string `json:"user_name"`
	Conversation string `json:"conversation"`
}

type extractResponse struct {
	Preferences []domain.Preference `json:"preferences"`
	ValidAtTry  int                 `json:"valid_at_try"`
}

// Extract runs preference extraction on a conversation, without touching the
// store.
func (h *PreferenceHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserName == "" || req.Conversation == "" {
		writeError(w, http.StatusBadRequest, "user_name and conversation are required")
		return
	}

	result, err := h.extraction.Extract(r.Context(), req.UserName, req.Conversation, taxonomy.Default())
	if err != nil {
		h.logger.Error("extraction failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "extraction failed")
		return
	}

	writeJSON(w, http.StatusOK, extractResponse{
		Preferences: result.Preferences,
		ValidAtTry:  result.ValidAtTry,
	})
}

type memorizeRequest struct {
	UserName     string `json:"user_name"`
	Conversation string `json:"conversation"`
}

type memorizeResponse struct {
	Preferences []memorizedPreference `json:"preferences"`
	ValidAtTry  int                   `json:"valid_at_try"`
}

type memorizedPreference struct {
	Preference domain.Preference        `json:"preference"`
	Outcome    *service.DecisionOutcome `json:"outcome"`
}

// Memorize extracts preferences from a conversation and runs the maintenance
// decision for each one against the store.
func (h *PreferenceHandler) Memorize(w http.ResponseWriter, r *http.Request) {
	var req memorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserName == "" || req.Conversation == "" {
		writeError(w, http.StatusBadRequest, "user_name and conversation are required")
		return
	}

	result, err := h.extraction.Extract(r.Context(), req.UserName, req.Conversation, taxonomy.Default())
	if err != nil {
		h.logger.Error("extraction failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "extraction failed")
		return
	}

	resp := memorizeResponse{ValidAtTry: result.ValidAtTry}
	for i := range result.Preferences {
		p := result.Preferences[i]
		outcome, err := h.maintenance.Process(r.Context(), &p, true)
		if err != nil {
			h.logger.Error("maintenance failed",
				zap.String("detail_category", p.DetailCategory), zap.Error(err))
			writeError(w, http.StatusBadGateway, "maintenance failed")
			return
		}
		resp.Preferences = append(resp.Preferences, memorizedPreference{Preference: p, Outcome: outcome})
	}

	writeJSON(w, http.StatusOK, resp)
}

type maintainRequest struct {
	Preference domain.Preference `json:"preference"`
	Perform    *bool             `json:"perform,omitempty"`
}

// Maintain runs the maintenance decision for a single incoming preference.
// With "perform": false the decision is simulated only.
func (h *PreferenceHandler) Maintain(w http.ResponseWriter, r *http.Request) {
	var req maintainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p := req.Preference
	if p.UserName == "" || p.MainCategory == "" || p.Subcategory == "" || p.DetailCategory == "" {
		writeError(w, http.StatusBadRequest, "preference user_name and category path are required")
		return
	}
	if _, err := taxonomy.CardinalityOf(p.DetailCategory); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	perform := true
	if req.Perform != nil {
		perform = *req.Perform
	}

	outcome, err := h.maintenance.Process(r.Context(), &p, perform)
	if err != nil {
		h.logger.Error("maintenance failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "maintenance failed")
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type searchRequest struct {
	UserName       string `json:"user_name"`
	Query          string `json:"query"`
	MainCategory   string `json:"main_category,omitempty"`
	Subcategory    string `json:"subcategory,omitempty"`
	DetailCategory string `json:"detail_category,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

type searchResponse struct {
	Results []domain.PreferenceWithScore `json:"results"`
}

// Search embeds the query and returns the nearest stored preferences of the
// user, optionally restricted to a category path.
func (h *PreferenceHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserName == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "user_name and query are required")
		return
	}

	vector, err := h.embedder.Embed(r.Context(), req.Query)
	if err != nil {
		h.logger.Error("query embedding failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "embedding failed")
		return
	}

	results, err := h.store.Search(r.Context(), vector, domain.BucketKey{
		UserName:       req.UserName,
		MainCategory:   req.MainCategory,
		Subcategory:    req.Subcategory,
		DetailCategory: req.DetailCategory,
	}, req.Limit)
	if err != nil {
		h.logger.Error("search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}
