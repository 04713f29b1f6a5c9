package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/pipeline"
	"github.com/opensource-finance/harrier/internal/repository"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo         domain.Repository
	cache        domain.Cache
	bus          domain.EventBus
	version      string
	cacheTTL     time.Duration
	graphWorkers int
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, analysisCfg domain.AnalysisConfig, version string) *Handler {
	return &Handler{
		repo:         repo,
		cache:        cache,
		bus:          bus,
		version:      version,
		cacheTTL:     time.Duration(analysisCfg.ResultCacheTTL) * time.Second,
		graphWorkers: analysisCfg.GraphWorkers,
	}
}

// AnalyzeRequest is the request body for POST /analyze.
type AnalyzeRequest struct {
	DatasetType domain.DatasetType `json:"datasetType"`
	Lines       []string           `json:"lines"`

	// ProfileID selects a stored detection profile. When set, the
	// profile supplies dataset type and strategies; inline fields are
	// ignored.
	ProfileID string `json:"profileId,omitempty"`

	Processor *domain.ProcessorSpec `json:"processor,omitempty"`
	Detector  *domain.DetectorSpec  `json:"detector,omitempty"`
	Filter    string                `json:"filter,omitempty"`
}

// AnalyzeAsyncResponse is the response for POST /analyze/async.
type AnalyzeAsyncResponse struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

// Analyze handles POST /analyze: parse, transform, detect, respond.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := h.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	// Identical requests within the TTL window are served from cache.
	cacheKey := analyzeCacheKey(req)
	useCache := h.cache != nil && h.cacheTTL > 0
	if useCache {
		if cached, err := h.cache.Get(ctx, cacheKey); err == nil && cached != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}
	}

	p, err := pipeline.New(pipeline.Options{
		DatasetType: req.DatasetType,
		Processor:   derefProcessor(req.Processor),
		Detector:    h.withGraphWorkers(derefDetector(req.Detector)),
		Filter:      req.Filter,
		Version:     h.version,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	analysis, err := p.Analyze(ctx, req.Lines)
	if err != nil {
		writeError(w, err)
		return
	}
	analysis.Metadata.TraceID = GetTraceID(ctx)

	if useCache {
		if payload, err := json.Marshal(analysis); err == nil {
			if err := h.cache.Set(ctx, cacheKey, payload, h.cacheTTL); err != nil {
				slog.Warn("failed to cache analysis response", "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, analysis)
}

// AnalyzeAsync handles POST /analyze/async: the request is published to
// the event bus and processed by the worker; callers observe completion
// on the harrier.analysis.completed topic.
func (h *Handler) AnalyzeAsync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := h.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	// Validate strategy config up front so callers get synchronous 400s
	// for bad specs instead of a silent async failure.
	if _, err := pipeline.New(pipeline.Options{
		DatasetType: req.DatasetType,
		Processor:   derefProcessor(req.Processor),
		Detector:    h.withGraphWorkers(derefDetector(req.Detector)),
		Filter:      req.Filter,
		Version:     h.version,
	}); err != nil {
		writeError(w, err)
		return
	}

	event := domain.AnalysisRequestedEvent{
		RequestID:   uuid.New().String(),
		DatasetType: req.DatasetType,
		Lines:       req.Lines,
		Processor:   derefProcessor(req.Processor),
		Detector:    h.withGraphWorkers(derefDetector(req.Detector)),
		Filter:      req.Filter,
	}
	payload, _ := json.Marshal(event)

	if err := h.bus.Publish(ctx, domain.TopicAnalysisRequested, payload); err != nil {
		slog.Error("failed to publish analysis request", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "event bus unavailable",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, AnalyzeAsyncResponse{
		RequestID: event.RequestID,
		Status:    "accepted",
	})
}

// decodeAnalyzeRequest parses the body, resolves a referenced profile,
// and validates the basics shared by the sync and async paths.
func (h *Handler) decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (AnalyzeRequest, bool) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return req, false
	}

	if req.ProfileID != "" {
		if h.repo == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "repository not available",
			})
			return req, false
		}
		profile, err := h.repo.GetProfile(r.Context(), req.ProfileID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{
					"error": "profile not found",
				})
			} else {
				slog.Error("failed to load profile", "id", req.ProfileID, "error", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error": "failed to load profile",
				})
			}
			return req, false
		}
		req.DatasetType = profile.DatasetType
		req.Processor = &profile.Processor
		req.Detector = &profile.Detector
		req.Filter = profile.Filter
	}

	if !req.DatasetType.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "datasetType must be \"credit_card\" or \"insurance\"",
		})
		return req, false
	}
	if len(req.Lines) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "lines is required",
		})
		return req, false
	}

	return req, true
}

func derefProcessor(spec *domain.ProcessorSpec) domain.ProcessorSpec {
	if spec == nil {
		return domain.DefaultProcessorSpec()
	}
	return *spec
}

func derefDetector(spec *domain.DetectorSpec) domain.DetectorSpec {
	if spec == nil {
		return domain.DefaultDetectorSpec()
	}
	return *spec
}

func (h *Handler) withGraphWorkers(spec domain.DetectorSpec) domain.DetectorSpec {
	if spec.Workers == 0 {
		spec.Workers = h.graphWorkers
	}
	return spec
}

// analyzeCacheKey derives a stable cache key from the full request.
func analyzeCacheKey(req AnalyzeRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(payload)
	return "analyze:" + hex.EncodeToString(sum[:])
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// CreateProfileRequest is the request body for creating a profile.
type CreateProfileRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	DatasetType domain.DatasetType   `json:"datasetType"`
	Processor   domain.ProcessorSpec `json:"processor"`
	Detector    domain.DetectorSpec  `json:"detector"`
	Filter      string               `json:"filter,omitempty"`
	Enabled     bool                 `json:"enabled"`
}

// ListProfiles returns all enabled detection profiles.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	profiles, err := h.repo.ListProfiles(r.Context())
	if err != nil {
		slog.Error("failed to list profiles", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list profiles",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// GetProfile retrieves a profile by ID.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")

	if profileID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "profile id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	profile, err := h.repo.GetProfile(r.Context(), profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "profile not found",
			})
			return
		}
		slog.Error("failed to get profile", "id", profileID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get profile",
		})
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// CreateProfile creates a new detection profile.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "name is required",
		})
		return
	}

	profile := &domain.Profile{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		DatasetType: req.DatasetType,
		Processor:   req.Processor,
		Detector:    req.Detector,
		Filter:      req.Filter,
		Enabled:     req.Enabled,
	}

	// Validate the whole strategy configuration by building a pipeline.
	if _, err := pipeline.New(pipeline.Options{
		DatasetType: profile.DatasetType,
		Processor:   profile.Processor,
		Detector:    h.withGraphWorkers(profile.Detector),
		Filter:      profile.Filter,
		Version:     h.version,
	}); err != nil {
		writeError(w, err)
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if err := h.repo.SaveProfile(ctx, profile); err != nil {
		slog.Error("failed to save profile", "id", profile.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save profile",
		})
		return
	}

	slog.Info("profile created", "id", profile.ID, "name", profile.Name)
	writeJSON(w, http.StatusCreated, profile)
}

// UpdateProfile updates an existing profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "id")

	if profileID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "profile id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	existing, err := h.repo.GetProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "profile not found",
			})
			return
		}
		slog.Error("failed to get profile", "id", profileID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get profile",
		})
		return
	}

	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	profile := &domain.Profile{
		ID:          profileID,
		Name:        req.Name,
		Description: req.Description,
		DatasetType: req.DatasetType,
		Processor:   req.Processor,
		Detector:    req.Detector,
		Filter:      req.Filter,
		Enabled:     req.Enabled,
		CreatedAt:   existing.CreatedAt,
	}

	if _, err := pipeline.New(pipeline.Options{
		DatasetType: profile.DatasetType,
		Processor:   profile.Processor,
		Detector:    h.withGraphWorkers(profile.Detector),
		Filter:      profile.Filter,
		Version:     h.version,
	}); err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.SaveProfile(ctx, profile); err != nil {
		slog.Error("failed to update profile", "id", profileID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to update profile",
		})
		return
	}

	slog.Info("profile updated", "id", profileID)
	writeJSON(w, http.StatusOK, profile)
}

// DeleteProfile disables a profile.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "id")

	if profileID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "profile id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if err := h.repo.DeleteProfile(ctx, profileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "profile not found",
			})
			return
		}
		slog.Error("failed to delete profile", "id", profileID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to delete profile",
		})
		return
	}

	slog.Info("profile deleted", "id", profileID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "profile deleted",
	})
}

// writeError maps domain errors to HTTP status codes: malformed input
// and invalid strategy configuration are client errors, everything else
// is a 500.
func writeError(w http.ResponseWriter, err error) {
	var parseErr *domain.ParseError
	var cfgErr *domain.ConfigurationError
	switch {
	case errors.As(err, &parseErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": parseErr.Error(),
		})
	case errors.As(err, &cfgErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": cfgErr.Error(),
		})
	default:
		slog.Error("analysis failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "analysis failed",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
