package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/rpattn/restquery/internal/listing"
	"github.com/rpattn/restquery/internal/middleware"
	"github.com/rpattn/restquery/internal/query"
	"github.com/rpattn/restquery/internal/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service *listing.Service
}

// NewHandler routes the listing endpoints:
//
//	GET /api/{resource}          one page of JSON documents
//	GET /api/{resource}/compile  the compiled query, for debugging
//	GET /api/{resource}/export   the whole result as an xlsx workbook
//	GET /healthz                 liveness
func NewHandler(service *listing.Service) http.Handler {
	h := &Handler{service: service}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{resource}", h.handleList)
	mux.HandleFunc("GET /api/{resource}/compile", h.handleCompile)
	mux.HandleFunc("GET /api/{resource}/export", h.handleExport)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return mux
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	resource := r.PathValue("resource")
	page, err := h.service.List(r.Context(), resource, query.ParseQueryString(r.URL.RawQuery))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleCompile(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Compile(r.PathValue("resource"), query.ParseQueryString(r.URL.RawQuery))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	resource := r.PathValue("resource")
	f, err := h.service.Export(r.Context(), resource, query.ParseQueryString(r.URL.RawQuery))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resource+".xlsx"))
	if _, err := f.WriteTo(w); err != nil {
		log.Printf("[HTTP] export %s id=%s: %v", resource, middleware.RequestIDFromContext(r.Context()), err)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrInvalidResource):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, listing.ErrUnknownResource):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Printf("[HTTP] %s %s failed id=%s: %v", r.Method, r.URL.Path, middleware.RequestIDFromContext(r.Context()), err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[HTTP] failed to encode response: %v", err)
	}
}
