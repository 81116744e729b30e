package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
	"github.com/adityardiansyah/smart-agen/internal/service"
)

// documentField is the multipart form field carrying the file.
const documentField = "document"

// multipartOverhead is the allowance for multipart headers and boundaries on
// top of the document size limit.
const multipartOverhead = 64 << 10

// DocumentResponse is returned after a successful upload.
type DocumentResponse struct {
	Kind domain.DocumentKind `json:"kind"`
	Path string              `json:"path"`
	URL  string              `json:"url"`
}

// UploadFleetDocument handles POST /api/fleets/{id}/documents/{kind},
// kind being keur or stnk.
func (s *Server) UploadFleetDocument(w http.ResponseWriter, r *http.Request) {
	kind := domain.DocumentKind(chi.URLParam(r, "kind"))
	if kind != domain.DocumentKeur && kind != domain.DocumentStnk {
		badRequest(w, fmt.Sprintf("invalid kind %q: want keur or stnk", kind))
		return
	}
	s.uploadDocument(w, r, kind)
}

// UploadSimDocument handles POST /api/drivers/{id}/documents/sim.
func (s *Server) UploadSimDocument(w http.ResponseWriter, r *http.Request) {
	s.uploadDocument(w, r, domain.DocumentSim)
}

func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request, kind domain.DocumentKind) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	max := s.svc.Documents.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, max+multipartOverhead)
	if err := r.ParseMultipartForm(max); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, err)
			return
		}
		requestError(w, "request must be multipart/form-data with a document file")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(documentField)
	if err != nil {
		requestError(w, "document file is required")
		return
	}
	defer file.Close()

	rel, err := s.svc.Documents.Upload(r.Context(), middleware.Scope(r.Context()), kind, id, service.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse[DocumentResponse]{Data: DocumentResponse{
		Kind: kind,
		Path: rel,
		URL:  "/storage/" + rel,
	}})
}
