package handlers

import (
	"errors"
	"net/http"
)

// maxUploadBytes caps multipart uploads at 10 MiB.
const maxUploadBytes = 10 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		respondError(w, http.StatusNotImplemented, errors.New("media storage is not configured"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("file field is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	url, err := s.uploads.Put(ctx, header.Filename, contentType, file, header.Size)
	if err != nil {
		s.log.Error().Err(err).Str("filename", header.Filename).Msg("upload failed")
		respondError(w, http.StatusInternalServerError, errors.New("upload failed"))
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"url": url})
}
