package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"DerivLex/internal/analysis"
	"DerivLex/internal/automaton"
	"DerivLex/internal/rules"
	"DerivLex/internal/scan"
)

// Handler holds HTTP handlers for the lexer API.
type Handler struct {
	mgr          *Manager
	logger       *slog.Logger
	version      string
	maxBodyBytes int64
}

// NewHandler creates a new Handler backed by the given Manager.
func NewHandler(mgr *Manager, cfg Config, version string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultConfig().MaxBodyBytes
	}
	return &Handler{mgr: mgr, logger: logger, version: version, maxBodyBytes: maxBody}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Lexer lifecycle.
	mux.HandleFunc("GET /lexers", instrument("list_lexers", h.handleListLexers))
	mux.HandleFunc("POST /lexers", instrument("create_lexer", h.handleCreateLexer))
	mux.HandleFunc("GET /lexers/{name}", instrument("get_lexer", h.handleGetLexer))
	mux.HandleFunc("DELETE /lexers/{name}", instrument("delete_lexer", h.handleDeleteLexer))

	// Scanning.
	mux.HandleFunc("POST /lexers/{name}/scan", instrument("scan", h.handleScan))
	mux.HandleFunc("POST /analyze", instrument("analyze", h.handleAnalyze))
	mux.HandleFunc("GET /analyzers", instrument("list_analyzers", h.handleListAnalyzers))

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /ready", h.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// --- Lexer Lifecycle ---

func (h *Handler) handleListLexers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lexers, err := h.mgr.List(q.Get("prefix"), q.Get("match"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	infos := make([]LexerInfo, 0, len(lexers))
	for _, l := range lexers {
		infos = append(infos, l.Info())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lexers": infos,
	})
}

type createRequest struct {
	Name  string           `json:"name"`
	Rules []rules.RuleSpec `json:"rules"`
}

func (h *Handler) handleCreateLexer(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(w, r, h.maxBodyBytes, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "lexer name is required")
		return
	}

	l, cached, err := h.mgr.Create(req.Name, &rules.Document{Rules: req.Rules})
	if err != nil {
		switch {
		case errors.Is(err, ErrLexerExists):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, automaton.ErrDFAStateLimitExceeded):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ErrPersist):
			h.logger.Error("failed to persist lexer", "lexer", req.Name, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "created",
		"cached": cached,
		"lexer":  l.Info(),
	})
}

func (h *Handler) handleGetLexer(w http.ResponseWriter, r *http.Request) {
	l, err := h.mgr.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, l.Info())
}

func (h *Handler) handleDeleteLexer(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := h.mgr.Delete(name); err != nil {
		if errors.Is(err, ErrLexerNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"name":   name,
	})
}

// --- Scanning ---

type scanToken struct {
	Rule  string `json:"rule"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	l, err := h.mgr.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req struct {
		Input string   `json:"input"`
		Rules []string `json:"rules"`
	}
	if err := decodeBody(w, r, h.maxBodyBytes, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	keep, err := ruleFilter(l.Table, req.Rules)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	input := []byte(req.Input)
	tokens, err := scan.Tokens(l.Table, input)
	metricScannedBytes.Add(float64(len(input)))

	out := make([]scanToken, 0, len(tokens))
	for _, tok := range tokens {
		if keep != nil && !keep[tok.Rule] {
			continue
		}
		out = append(out, scanToken{
			Rule:  l.Table.Rule(tok.Rule).Name,
			Start: tok.Start,
			End:   tok.End,
			Text:  string(tok.Text(input)),
		})
	}

	var uerr *scan.UnrecognizedInputError
	if errors.As(err, &uerr) {
		metricScanErrors.Inc()
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": map[string]any{
				"message": uerr.Error(),
				"start":   uerr.Start,
				"offset":  uerr.Offset,
			},
			"tokens": out,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"took_us": time.Since(start).Microseconds(),
		"tokens":  out,
	})
}

// ruleFilter maps rule names to the set of rule indexes to report. No names
// means every rule and yields nil.
func ruleFilter(table *scan.Table, names []string) ([]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	keep := make([]bool, table.NumRules())
	for _, name := range names {
		i, ok := table.RuleIndex(name)
		if !ok {
			return nil, fmt.Errorf("unknown rule %q", name)
		}
		keep[i] = true
	}
	return keep, nil
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Analyzer string `json:"analyzer"`
		Field    string `json:"field"`
		Text     string `json:"text"`
	}
	if err := decodeBody(w, r, h.maxBodyBytes, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.Analyzer == "" {
		req.Analyzer = "standard"
	}

	a, err := h.mgr.Analyzers().Get(req.Analyzer)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	tokens := a.Analyze(req.Field, req.Text)
	if tokens == nil {
		tokens = []analysis.Token{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"analyzer": req.Analyzer,
		"tokens":   tokens,
	})
}

func (h *Handler) handleListAnalyzers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"analyzers": h.mgr.Analyzers().Names(),
	})
}

// --- Probes ---

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
