// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/danielhkuo/rollcall/auth"
	"github.com/danielhkuo/rollcall/cliparse"
	"github.com/danielhkuo/rollcall/middleware"
	"github.com/danielhkuo/rollcall/models"
	"github.com/danielhkuo/rollcall/upload"
)

const electionColumns = `id, title, description, organizer, status,
	share_slug, starts_at, ends_at, closed_at, final_snapshot_id, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanElection(row rowScanner) (models.Election, error) {
	var e models.Election
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Organizer, &e.Status,
		&e.ShareSlug, &e.StartsAt, &e.EndsAt, &e.ClosedAt, &e.FinalSnapshotID, &e.CreatedAt,
	)
	return e, err
}

// electionBySlug loads a published election, writing the error response
// itself when it returns false.
func electionBySlug(ctx context.Context, w http.ResponseWriter, db *sql.DB, slug string) (models.Election, bool) {
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return models.Election{}, false
	}

	row := db.QueryRowContext(ctx, `SELECT `+electionColumns+` FROM election WHERE share_slug = $1`, slug)
	election, err := scanElection(row)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return models.Election{}, false
	}
	if err != nil {
		slog.Error("failed to query election", "error", err, "slug", slug)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Election{}, false
	}

	return election, true
}

// authorizeAdmin checks X-Admin-Key against the election in the {id} path
// segment and returns the election ID.
func authorizeAdmin(w http.ResponseWriter, r *http.Request, cfg cliparse.Config) (string, bool) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return "", false
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(electionID, adminKey, cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", false
	}

	return electionID, true
}

// electionStatus returns the status of an election by ID.
func electionStatus(ctx context.Context, w http.ResponseWriter, db *sql.DB, electionID string) (string, bool) {
	var status string
	err := db.QueryRowContext(ctx, "SELECT status FROM election WHERE id = $1", electionID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return "", false
	}
	if err != nil {
		slog.Error("failed to query election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return "", false
	}
	return status, true
}

// sniffLen is how much of an upload http.DetectContentType looks at.
const sniffLen = 512

// receiveUpload streams the "file" part of a multipart request into store.
// The content type is sniffed from the data, never taken from the client.
func receiveUpload(w http.ResponseWriter, r *http.Request, store upload.Store, maxBytes int64, prefix string, allowPDF bool) (upload.Object, bool) {
	if store == nil {
		slog.Error("upload requested without a store", "error", upload.ErrStoreNotConfigured)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Uploads are not available")
		return upload.Object{}, false
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "multipart/form-data body required")
		return upload.Object{}, false
	}

	// Leave room for multipart framing on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64<<10)

	mr, err := r.MultipartReader()
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid multipart body")
		return upload.Object{}, false
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			middleware.ErrorResponse(w, http.StatusBadRequest, "file is required")
			return upload.Object{}, false
		}
		if err != nil {
			writeUploadError(w, err)
			return upload.Object{}, false
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		defer part.Close()

		head := make([]byte, sniffLen)
		n, err := io.ReadFull(part, head)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			writeUploadError(w, err)
			return upload.Object{}, false
		}
		head = head[:n]

		contentType, _, _ := strings.Cut(http.DetectContentType(head), ";")
		if !allowPDF && !strings.HasPrefix(contentType, "image/") {
			middleware.ErrorResponse(w, http.StatusUnsupportedMediaType, "Only images are accepted")
			return upload.Object{}, false
		}

		obj, err := store.Put(r.Context(), prefix, contentType, io.MultiReader(bytes.NewReader(head), part))
		if err != nil {
			writeUploadError(w, err)
			return upload.Object{}, false
		}
		return obj, true
	}
}

func writeUploadError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, upload.ErrTooLarge), errors.As(err, &maxErr):
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "File is too large")
	case errors.Is(err, upload.ErrUnsupportedType):
		middleware.ErrorResponse(w, http.StatusUnsupportedMediaType, "Only JPEG, PNG, WebP and PDF files are accepted")
	case errors.Is(err, upload.ErrEmpty):
		middleware.ErrorResponse(w, http.StatusBadRequest, "File is empty")
	default:
		slog.Error("failed to store upload", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store file")
	}
}

// serveObject streams a stored object to the client.
func serveObject(w http.ResponseWriter, r *http.Request, store upload.Store, key string) {
	if store == nil {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Uploads are not available")
		return
	}

	rc, obj, err := store.Open(r.Context(), key)
	if errors.Is(err, upload.ErrObjectNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		slog.Error("failed to open object", "error", err, "key", key)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("failed to stream object", "error", err, "key", key)
	}
}

func toUploadResponse(obj upload.Object) models.UploadResponse {
	return models.UploadResponse{Key: obj.Key, ContentType: obj.ContentType, Size: obj.Size}
}
