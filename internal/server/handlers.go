package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/trustchain/pkg/buildinfo"
	"github.com/matzehuels/trustchain/pkg/chain"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/pipeline"
)

// graphFormats are the formats served by /graph. PDF and PNG need an
// external converter and are CLI only.
var graphFormats = map[string]string{
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatJSON: "application/json",
}

type errorBody struct {
	Code  tcerrors.Code `json:"code"`
	Error string        `json:"error"`
}

type healthBody struct {
	Status string `json:"status"`
	buildinfo.Info
}

type statsBody struct {
	Levels   int `json:"levels"`
	Clusters int `json:"clusters"`
	Nodes    int `json:"nodes"`
	Edges    int `json:"edges"`
}

type summaryBody struct {
	Domain  string         `json:"domain"`
	Date    string         `json:"date,omitempty"`
	Summary *chain.Summary `json:"summary"`
	Stats   statsBody      `json:"stats"`
	Cached  bool           `json:"cached"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{Status: "ok", Info: buildinfo.Get()})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	opts, err := requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	contentType, ok := graphFormats[format]
	if !ok {
		s.writeError(w, r, tcerrors.New(tcerrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: dot, svg, json)", format))
		return
	}
	opts.Formats = []string{format}
	opts.Detailed = r.URL.Query().Has("detailed")

	s.logChainRequest(r, "graph", opts)
	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set(headerCache, cacheHeader(res.CacheInfo.FetchHit))
	w.Header().Set("ETag", strconv.Quote(res.GraphHash))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	opts, err := requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logChainRequest(r, "summary", opts)
	resp, hit, err := s.runner.FetchWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g := s.runner.Compile(r.Context(), opts.Domain, resp)

	w.Header().Set(headerCache, cacheHeader(hit))
	writeJSON(w, http.StatusOK, summaryBody{
		Domain:  opts.Domain,
		Date:    opts.Date,
		Summary: resp.Summary,
		Stats: statsBody{
			Levels:   len(resp.Levels),
			Clusters: g.ClusterCount(),
			Nodes:    g.NodeCount(),
			Edges:    g.EdgeCount(),
		},
		Cached: hit,
	})
}

// requestOptions reads the domain and query parameters shared by the
// chain routes and normalizes the domain.
func requestOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Domain: chi.URLParam(r, "domain"),
		UserID: q.Get("user_id"),
		Date:   q.Get("date"),
	}
	if v := q.Get("refresh"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			return opts, tcerrors.New(tcerrors.ErrCodeInvalidInput, "refresh must be a boolean, got %q", v)
		}
		opts.Refresh = refresh
	}
	if err := opts.ValidateForFetch(); err != nil {
		return opts, err
	}
	return opts, nil
}

// logChainRequest writes the per-request usage event.
func (s *Server) logChainRequest(r *http.Request, event string, opts pipeline.Options) {
	date := opts.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01")
	}
	s.logger.Info("chain request",
		"event", event,
		"user", opts.UserID,
		"domain", opts.Domain,
		"date", date,
		"refresh", opts.Refresh,
		"request_id", RequestIDFrom(r.Context()))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := tcerrors.HTTPStatus(err)
	code := tcerrors.GetCode(err)
	if code == "" {
		code = tcerrors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "err", err,
			"request_id", RequestIDFrom(r.Context()))
	}
	writeJSON(w, status, errorBody{Code: code, Error: tcerrors.UserMessage(err)})
}

func cacheHeader(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
