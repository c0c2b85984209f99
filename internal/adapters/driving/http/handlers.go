package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/swaggo/swag"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/runtime"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"Question is required"`
}

// HealthResponse is the liveness probe body
// @Description Liveness probe response
type HealthResponse struct {
	Status   string          `json:"status" example:"healthy"`
	Message  string          `json:"message" example:"TDS Virtual TA API is running"`
	Backends *runtime.Status `json:"backends,omitempty"`
}

// ReadyResponse reports the state of each dependency
// @Description Readiness probe response
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// AskPayload is the body of POST /api/
// @Description A student question with an optional base64 image
type AskPayload struct {
	Question string `json:"question" validate:"required" example:"Should I use gpt-4o-mini or gpt-3.5-turbo for GA5?"`
	Image    string `json:"image,omitempty" example:"iVBORw0KGgo..."`
}

const healthMessage = "TDS Virtual TA API is running"

// Probe endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Liveness probe with no business logic
// @Tags         Health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy", Message: healthMessage}
	if s.backends != nil {
		st := s.backends.Status()
		resp.Backends = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the content store and interaction log
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK

	for _, check := range s.checks {
		if err := check.Pinger.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "check", check.Name, "error", err)
			resp.Checks[check.Name] = "unavailable"
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[check.Name] = "ok"
	}

	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Assistant endpoints

// handleAsk godoc
// @Summary      Ask a question
// @Description  Answers a course question from scraped course material and forum posts.
// @Description  Language-model failures are masked by a deterministic fallback answer.
// @Tags         Assistant
// @Accept       json
// @Produce      json
// @Param        request  body      AskPayload  true  "Question"
// @Success      200      {object}  domain.AnswerResult
// @Failure      400      {object}  ErrorResponse  "Missing question, malformed JSON or invalid image"
// @Failure      413      {object}  ErrorResponse  "Request body too large"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       / [post]
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var payload AskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := s.askService.Ask(r.Context(), domain.AskRequest{
		Question: payload.Question,
		Image:    payload.Image,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, invalidInputMessage(err))
		default:
			s.logger.Error("ask failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleStats godoc
// @Summary      Usage statistics
// @Description  Aggregate counts over the interaction log
// @Tags         Assistant
// @Produce      json
// @Success      200  {object}  domain.InteractionStats
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statsService.Stats(r.Context())
	if err != nil {
		s.logger.Error("stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleDocs serves the registered swagger document
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// Helper functions

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Question" {
				return "Question is required"
			}
		}
	}
	return "invalid request"
}

func invalidInputMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidImage) {
		return "Invalid base64 image data"
	}
	return "Question is required"
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
