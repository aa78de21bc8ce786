// Package server exposes the conversion pipeline over HTTP: upload and
// admission, record listing, download, and removal.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"imgconv/contracts"
	"imgconv/handles"
	"imgconv/tracker"
)

// Server wires the handle registry, record store and a converter behind
// the HTTP API. Any contracts.Converter serves.
type Server struct {
	registry *handles.Registry
	store    *tracker.Store
	conv     contracts.Converter
	router   *mux.Router
}

// New builds a Server and its routes.
func New(registry *handles.Registry, store *tracker.Store, conv contracts.Converter) *Server {
	s := &Server{
		registry: registry,
		store:    store,
		conv:     conv,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(requestLogger)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/files", s.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/records", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/records", s.handleClear).Methods(http.MethodDelete)
	api.HandleFunc("/records/{id}", s.handleRemove).Methods(http.MethodDelete)
	api.HandleFunc("/records/{id}/download", s.handleDownload).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
