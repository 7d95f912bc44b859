package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hazyhaar/wikipron/pkg/kit"
	"github.com/hazyhaar/wikipron/pkg/lexicon"
)

// NewRouter returns an http.Handler with all wikipron API routes.
func NewRouter(reg *lexicon.Registry, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	h := &handler{endpoints: newEndpoints(reg, logger), reg: reg}

	mux.HandleFunc("GET /v1/variants/batch", methodNotAllowed)
	mux.HandleFunc("POST /v1/variants/batch", h.handleExpandBatch)
	mux.HandleFunc("GET /v1/variants", h.handleExpand)
	mux.HandleFunc("GET /v1/lookup/{word}", h.handleLookup)
	mux.HandleFunc("GET /v1/lexicons", h.handleListLexicons)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(requestID(mux))
}

type handler struct {
	*endpoints
	reg *lexicon.Registry
}

// --- expand one pattern ---

func (h *handler) handleExpand(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	// An empty pattern is valid and expands to [""].
	if !q.Has("pattern") {
		writeError(w, http.StatusBadRequest, "missing pattern")
		return
	}
	resp, err := h.expand(r.Context(), &expandReq{Pattern: q.Get("pattern")})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- expand batch ---

func (h *handler) handleExpandBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	var req expandBatchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.expandBatch(r.Context(), &req)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- lookup ---

func (h *handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	resp, err := h.lookup(r.Context(), &lookupReq{
		Word:      r.PathValue("word"),
		Languages: splitList(r.URL.Query().Get("languages")),
		Lexicons:  splitList(r.URL.Query().Get("lexicons")),
	})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- list lexicons ---

func (h *handler) handleListLexicons(w http.ResponseWriter, r *http.Request) {
	resp, err := h.listLexicon(r.Context(), nil)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status       string `json:"status"`
	Lexicons     int    `json:"lexicons"`
	TotalEntries int    `json:"total_entries"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		Lexicons:     h.reg.LexiconCount(),
		TotalEntries: h.reg.TotalEntries(),
	})
}

// --- helpers ---

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeEndpointError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidRequest) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requestID tags the request context with the X-Request-ID header, or a fresh
// ID, and echoes it back.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx = kit.WithRequestID(ctx, id)
		}
		ctx = kit.EnsureRequestID(ctx)
		w.Header().Set("X-Request-ID", kit.GetRequestID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
