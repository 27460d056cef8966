// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"giftshuffle/internal/imaging"
	"giftshuffle/internal/middleware"
	"giftshuffle/internal/storage"
)

// maxPreviewSize is the maximum allowed preview image upload (5 MB).
const maxPreviewSize = 5 << 20

// previewTypes maps accepted image MIME types to the stored extension.
var previewTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ThemePreviewUpload stores a preview image for a theme in object storage
// and records its public URL on the theme row.
func (a *Admin) ThemePreviewUpload(w http.ResponseWriter, r *http.Request) {
	if a.storageClient == nil {
		http.Error(w, "Object storage is not configured.", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	id, ok := themeIDParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPreviewSize+1024)
	if err := r.ParseMultipartForm(maxPreviewSize); err != nil {
		http.Error(w, "File too large. Maximum size is 5 MB.", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("preview")
	if err != nil {
		http.Error(w, "No file provided.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxPreviewSize {
		http.Error(w, "File too large. Maximum size is 5 MB.", http.StatusRequestEntityTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file.", http.StatusInternalServerError)
		return
	}

	contentType := http.DetectContentType(data)
	ext, allowed := previewTypes[contentType]
	if !allowed {
		http.Error(w, "Preview must be a JPEG, PNG, GIF or WebP image.", http.StatusUnsupportedMediaType)
		return
	}

	// Wide images are stored as a downsized JPEG.
	small, err := imaging.ShrinkPreview(data, imaging.MaxPreviewWidth)
	if err != nil {
		slog.Warn("preview image rejected", "theme_id", id, "error", err)
		http.Error(w, "The image could not be read.", http.StatusUnprocessableEntity)
		return
	}
	if small != nil {
		data, contentType, ext = small, "image/jpeg", ".jpg"
	}

	previous := a.storedPreview(ctx, id)
	key := storage.PreviewKey(id, ext)
	if err := a.storageClient.Upload(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		slog.Error("preview upload failed", "theme_id", id, "key", key, "error", err)
		http.Error(w, "Upload failed.", http.StatusBadGateway)
		return
	}

	if err := a.themeStore.SetPreviewImage(ctx, id, a.storageClient.FileURL(key)); err != nil {
		// Nothing references the object now.
		if derr := a.storageClient.Delete(ctx, key); derr != nil {
			slog.Warn("orphaned preview cleanup failed", "key", key, "error", derr)
		}
		a.themeStoreError(w, err, "set theme preview failed", id)
		return
	}

	// A preview with another extension lives under a different key.
	a.deletePreviewObject(ctx, id, previous, key)

	a.themeChanged(ctx, r, sess.UserID, id, "preview uploaded")
	http.Redirect(w, r, "/admin/themes", http.StatusSeeOther)
}
