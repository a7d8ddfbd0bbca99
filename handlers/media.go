// minber/handlers/media.go

package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"minber/config"
	"minber/utils"

	"github.com/google/uuid"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func validAvatarURL(raw string) bool {
	return utils.IsValidImageURL(raw)
}

// HandleImageUpload accepts a multipart image, stores the original and
// a thumbnail, and returns both URLs.
func HandleImageUpload(w http.ResponseWriter, r *http.Request, app App) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxImageSize)
	if err := r.ParseMultipartForm(config.MaxImageSize); err != nil {
		respondBadRequest(w, app, "Image too large or malformed upload")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondBadRequest(w, app, "Missing image file")
		return
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			app.Logger().Error("Failed to close uploaded file", "error", cerr)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, app, err)
		return
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		respondBadRequest(w, app, "Unsupported image type")
		return
	}

	thumb, err := utils.MakeThumbnail(data)
	if err != nil {
		app.Logger().Warn("Thumbnail generation failed", "filename", header.Filename, "error", err)
		respondBadRequest(w, app, "Could not decode image")
		return
	}

	id := uuid.New().String()
	url, err := app.Blobs().SaveFile(id+ext, data, contentType)
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	thumbURL, err := app.Blobs().SaveFile(id+"_thumb.jpg", thumb, "image/jpeg")
	if err != nil {
		// Keep the original; the client can fall back to it.
		app.Logger().Error("Thumbnail upload failed", "url", url, "error", err)
		thumbURL = url
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"url":           url,
		"thumbnail_url": thumbURL,
	}, app)
}

var allowedVideoExts = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
}

// HandleVideoUpload stores a raw video file without transcoding.
func HandleVideoUpload(w http.ResponseWriter, r *http.Request, app App) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxVideoSize)
	if err := r.ParseMultipartForm(config.MaxVideoSize); err != nil {
		respondBadRequest(w, app, "Video too large or malformed upload")
		return
	}
	file, header, err := r.FormFile("video")
	if err != nil {
		respondBadRequest(w, app, "Missing video file")
		return
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			app.Logger().Error("Failed to close uploaded file", "error", cerr)
		}
	}()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedVideoExts[ext] {
		respondBadRequest(w, app, "Unsupported video type")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, app, err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	url, err := app.Blobs().SaveFile(uuid.New().String()+ext, data, contentType)
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"url": url}, app)
}

type validateURLRequest struct {
	URL string `json:"url"`
}

// HandleValidateVideoURL checks a video link and returns its embed form.
func HandleValidateVideoURL(w http.ResponseWriter, r *http.Request, app App) {
	var req validateURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	valid := utils.IsValidVideoURL(req.URL)
	payload := map[string]interface{}{"valid": valid}
	if valid {
		payload["embed_url"] = utils.ConvertToEmbedURL(req.URL)
	}
	respondJSON(w, http.StatusOK, payload, app)
}
