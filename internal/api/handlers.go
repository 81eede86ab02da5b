package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/leapstack-labs/doctable/internal/datasource"
	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/leapstack-labs/doctable/pkg/plugin"
)

// Backend executes datasource requests.
type Backend interface {
	Status(ctx context.Context) core.DatasourceStatus
	Query(ctx context.Context, req *core.QueryRequest) ([]core.Metrics, error)
	Search(ctx context.Context, req *core.SearchRequest) ([]core.MetricOption, error)
	Annotations(ctx context.Context, req *core.AnnotationRequest) ([]core.Annotation, error)
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}

// handleStatus is the datasource test endpoint.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.backend.Status(r.Context())
	s.logger.Debug("datasource test request", "ok", status.OK)
	if !status.OK {
		s.writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req core.QueryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.backend.Query(r.Context(), &req)
	if err != nil {
		s.logger.Error("query failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req core.SearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.backend.Search(r.Context(), &req)
	if err != nil {
		s.logger.Error("search failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAnnotations(w http.ResponseWriter, r *http.Request) {
	var req core.AnnotationRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.backend.Annotations(r.Context(), &req)
	switch {
	case errors.Is(err, datasource.ErrInvalidAnnotation):
		s.writeError(w, http.StatusBadRequest, err)
	case err != nil:
		s.logger.Error("annotations failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
	default:
		s.writeJSON(w, http.StatusOK, res)
	}
}

// PluginResponse describes the components the plugin exports.
type PluginResponse struct {
	Roles map[string]string `json:"roles"`
}

func (s *Server) handlePlugin(w http.ResponseWriter, _ *http.Request) {
	exports, err := plugin.RegisteredExports()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PluginResponse{Roles: exports.Templates()})
}
