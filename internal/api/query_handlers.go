package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/leadspider/spider/internal/crawl"
	"github.com/leadspider/spider/internal/index"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

type searchResponse struct {
	Query   string         `json:"query"`
	Total   int            `json:"total"`
	Results []index.Result `json:"results"`
}

type lookupResponse struct {
	Term  string   `json:"term"`
	Count int      `json:"count"`
	URLs  []string `json:"urls"`
}

type statsResponse struct {
	Docs    int            `json:"docs"`
	Terms   int            `json:"terms"`
	LastRun *crawl.Summary `json:"last_run,omitempty"`
}

// search handles GET /v1/search?q=&limit=. Documents are ranked by how
// many query terms they contain. It returns 400 when q is missing or the
// limit is not a positive integer.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, err := parseLimit(r, defaultSearchLimit, maxSearchLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := s.index.SearchScored(query)
	total := len(results)
	if len(results) > limit {
		results = results[:limit]
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Total: total, Results: results})
}

// lookup handles GET /v1/lookup?term=. It returns the postings for one
// token in first-seen order, or 400 when term is missing.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	if term == "" {
		writeError(w, http.StatusBadRequest, "term is required")
		return
	}
	urls := s.index.Lookup(term)
	if urls == nil {
		urls = []string{}
	}
	writeJSON(w, http.StatusOK, lookupResponse{
		Term:  strings.ToLower(term),
		Count: len(urls),
		URLs:  urls,
	})
}

// stats handles GET /v1/stats.
func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		Docs:    s.index.Docs(),
		Terms:   s.index.Terms(),
		LastRun: s.summary,
	})
}

func parseLimit(r *http.Request, def, maxLimit int) (int, error) {
	limStr := r.URL.Query().Get("limit")
	if limStr == "" {
		return def, nil
	}
	val, err := strconv.Atoi(limStr)
	if err != nil || val <= 0 {
		return 0, errors.New("invalid limit")
	}
	if val > maxLimit {
		val = maxLimit
	}
	return val, nil
}
