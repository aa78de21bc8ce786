package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"imgconv/contracts"
	"imgconv/files_manager"
	"imgconv/logging"
	"imgconv/tracker"
)

// maxUploadBytes bounds one upload request.
const maxUploadBytes = 100 * 1024 * 1024

// recordView is the JSON shape of one tracking record.
type recordView struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	OutputName    string           `json:"outputName"`
	SourceFormat  contracts.Format `json:"sourceFormat"`
	TargetFormat  contracts.Format `json:"targetFormat"`
	OriginalSize  int64            `json:"originalSize"`
	ConvertedSize int64            `json:"convertedSize"`
	Converting    bool             `json:"converting"`
}

func viewOf(rec tracker.Record) recordView {
	return recordView{
		ID:            rec.ID,
		Name:          rec.File.Name,
		OutputName:    rec.OutputName,
		SourceFormat:  rec.SourceFormat,
		TargetFormat:  rec.TargetFormat,
		OriginalSize:  rec.OriginalSize,
		ConvertedSize: rec.ConvertedSize,
		Converting:    rec.Converting,
	}
}

// handleUpload admits the uploaded files, creates a record per admitted
// file and starts their conversions in the background. Unsupported files
// are silently dropped. Responds with the created records.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "file too large or invalid form", http.StatusBadRequest)
		return
	}

	formatValue := r.FormValue("format")
	if formatValue == "" {
		formatValue = r.URL.Query().Get("format")
	}
	target, err := contracts.ParseFormat(formatValue)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// iterate field names in sorted order; map iteration would make the
	// record creation order nondeterministic across requests
	fields := make([]string, 0, len(r.MultipartForm.File))
	for field := range r.MultipartForm.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var files []contracts.FileInfo
	for _, field := range fields {
		for _, header := range r.MultipartForm.File[field] {
			part, err := header.Open()
			if err != nil {
				logging.Warn("skipping part %q: %v", header.Filename, err)
				continue
			}
			data, err := io.ReadAll(part)
			part.Close()
			if err != nil {
				logging.Warn("skipping part %q: %v", header.Filename, err)
				continue
			}
			files = append(files, contracts.FileInfo{
				Name:      header.Filename,
				MediaType: header.Header.Get("Content-Type"),
				Data:      data,
			})
		}
	}

	admitted := files_manager.FilterSupported(files)
	logging.Info("admitted %d of %d uploaded files (target %s)", len(admitted), len(files), target)

	views := make([]recordView, 0, len(admitted))
	for _, file := range admitted {
		rec := s.store.CreateRecord(file, target)
		views = append(views, viewOf(rec))
		go s.runConversion(rec.ID, file, target)
	}

	writeJSON(w, http.StatusAccepted, views)
}

// runConversion converts one file and applies the outcome to its record.
// Completions for records removed in the meantime are discarded by the
// store's liveness check.
func (s *Server) runConversion(id string, file contracts.FileInfo, target contracts.Format) {
	result, err := s.conv.Convert(file, target)
	if err != nil {
		logging.Warn("conversion of record %s failed: %v", id, err)
		s.store.Fail(id)
		return
	}
	s.store.Complete(id, result)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	records := s.store.List()
	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, viewOf(rec))
	}
	writeJSON(w, http.StatusOK, views)
}

// handleDownload streams the converted bytes behind a record. Retrieval
// and write failures are logged and swallowed; the handler always
// finishes the response it has started.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, ok := s.store.Get(id)
	if !ok {
		http.Error(w, "no such record", http.StatusNotFound)
		return
	}
	if rec.Converting || rec.ConvertedHandle == "" {
		http.Error(w, "conversion not finished", http.StatusConflict)
		return
	}

	data, mediaType, ok := s.registry.Get(rec.ConvertedHandle)
	if !ok {
		logging.Error("record %s points at a released handle", id)
		http.Error(w, "no such record", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.OutputName))
	if _, err := w.Write(data); err != nil {
		logging.Warn("download of record %s interrupted: %v", id, err)
	}
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.store.Remove(id) {
		http.Error(w, "no such record", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.store.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response: %v", err)
	}
}
