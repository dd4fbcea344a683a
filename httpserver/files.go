// SPDX-License-Identifier: LGPL-3.0-or-later

package httpserver

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/securechan/securechan/fileae"
	"github.com/securechan/securechan/internal/logger"
	"github.com/securechan/securechan/internal/metrics"
)

// fileCategories are the only values spec.md §6 allows for X-File-Category.
var fileCategories = map[string]bool{"photo": true, "video": true, "text": true, "unknown": true}

// fileUploadResponse mirrors SPEC_FULL.md §6's FileUploadResponse.
type fileUploadResponse struct {
	ObjID     string `json:"obj_id"`
	URL       string `json:"url"`
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	CreatedAt string `json:"created_at"`
}

// handleUpload processes /files/one/encrypted: it reads the streamed
// EncryptedFileBlob body as-is (already encrypted by the caller under the
// session's keys) and stores it verbatim, keyed by a fresh obj_id. The
// reference server never sees plaintext — it is not a party to the file
// AE keys, only a durable bucket for the blob.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	clientID := r.Header.Get("X-Client-ID")
	if clientID == "" {
		writeError(w, fmt.Errorf("%w: missing X-Client-ID", ErrProtocolViolation))
		return
	}

	origNameB64 := r.Header.Get("X-Orig-Filename")
	nameBytes, err := base64.StdEncoding.DecodeString(origNameB64)
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid X-Orig-Filename", ErrProtocolViolation))
		return
	}

	mime := r.Header.Get("X-Orig-Mime")
	category := r.Header.Get("X-File-Category")
	if !fileCategories[category] {
		writeError(w, fmt.Errorf("%w: invalid X-File-Category %q", ErrProtocolViolation, category))
		return
	}

	blob, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, fmt.Errorf("%w: read body: %v", ErrTransport, err))
		return
	}
	if len(blob) < fileae.NonceSize+fileae.IVSize+fileae.TagSize {
		writeError(w, fmt.Errorf("%w: blob too short", ErrProtocolViolation))
		return
	}

	objID := uuid.NewString()
	if err := s.store.Objects().Put(r.Context(), objID, blob); err != nil {
		s.log.Error("files: store object", logger.Error(err), logger.String("client_id", clientID))
		writeError(w, fmt.Errorf("%w: store object", ErrTransport))
		return
	}
	metrics.FileBytesProcessed.WithLabelValues("encrypt").Add(float64(len(blob)))
	metrics.FileOperations.WithLabelValues("encrypt", "success").Inc()

	writeJSON(w, http.StatusOK, fileUploadResponse{
		ObjID:     objID,
		URL:       "/files/one/" + objID,
		Name:      string(nameBytes),
		MimeType:  mime,
		CreatedAt: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	})
}

// handleDownload processes GET /files/one/{id}: it streams back the raw
// encrypted blob exactly as stored; the caller decrypts it with
// fileae.DecryptBuffered/DecryptStream under the session's keys.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	objID := mux.Vars(r)["id"]

	blob, err := s.store.Objects().Get(r.Context(), objID)
	if err != nil {
		writeError(w, fmt.Errorf("%w: object %s", ErrNotFound, objID))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		s.log.Error("files: write response body", logger.Error(err))
	}
	metrics.FileBytesProcessed.WithLabelValues("decrypt").Add(float64(len(blob)))
}
