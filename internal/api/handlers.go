package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MikeSquared-Agency/souli/internal/index"
	"github.com/MikeSquared-Agency/souli/internal/ingest"
)

type ingestRequest struct {
	Links []string `json:"links"`
}

// ingestFailure carries the partial report so failed and empty links stay
// visible when the final upsert fails.
type ingestFailure struct {
	Error  string         `json:"error"`
	Report *ingest.Report `json:"report,omitempty"`
}

type queryRequest struct {
	Query          string  `json:"query"`
	K              int     `json:"k"`
	ScoreThreshold float64 `json:"score_threshold"`
}

type queryResponse struct {
	Results []map[string]any `json:"results"`
	Count   int              `json:"count"`
}

// ingest handles POST /api/v1/ingest
func (s *Server) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if !hasLink(req.Links) {
		writeError(w, http.StatusBadRequest, "links must contain at least one url")
		return
	}

	report, err := s.runner.Run(r.Context(), req.Links)
	if err != nil {
		s.logger.Error("ingest failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ingestFailure{
			Error:  "ingest failed: " + err.Error(),
			Report: report,
		})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// query handles POST /api/v1/query
func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	if req.K <= 0 {
		req.K = index.DefaultK
	}

	results, err := s.index.Search(r.Context(), req.Query, req.K, req.ScoreThreshold)
	if errors.Is(err, index.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("query failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "search failed: "+err.Error())
		return
	}
	if results == nil {
		results = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, queryResponse{Results: results, Count: len(results)})
}

func hasLink(links []string) bool {
	for _, l := range links {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
