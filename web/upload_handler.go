package web

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"chat-relay/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
)

const thumbnailEdge = 300

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type uploadHandler struct {
	responder
	dir     string
	maxSize int64
}

// handleUpload accepts one multipart image, verifies the real content type
// by sniffing the bytes, stores the original and writes a thumbnail next to
// it. The returned URL is what clients put on messages.
func (h *uploadHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		h.error(w, fmt.Errorf("%w: file exceeds the %d byte limit", errors.ErrValidation, h.maxSize))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		h.error(w, fmt.Errorf("%w: multipart field 'image' is required", errors.ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.error(w, err)
		return
	}

	// The client-sent content type is ignored; only the bytes count.
	mtype := mimetype.Detect(data)
	ext, ok := allowedImageTypes[mtype.String()]
	if !ok {
		h.error(w, fmt.Errorf("%w: only jpeg, png and webp images are accepted", errors.ErrValidation))
		return
	}

	name := fmt.Sprintf("image-%d-%s%s", time.Now().UnixNano(), randomSuffix(), ext)
	path := filepath.Join(h.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		h.error(w, err)
		return
	}

	// Best effort. The original already landed; a missing thumbnail only
	// costs the client a full-size download.
	writeThumbnail(path, data, mtype.String())

	h.json(w, http.StatusCreated, map[string]string{"imageUrl": "/uploads/" + name})
}

// writeThumbnail renders a bounded jpeg preview next to the original. Webp
// has no decoder here, so webp uploads keep only their full-size file.
func writeThumbnail(original string, data []byte, contentType string) {
	var (
		img image.Image
		err error
	)
	switch contentType {
	case "image/jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case "image/png":
		img, err = png.Decode(bytes.NewReader(data))
	default:
		return
	}
	if err != nil {
		return
	}

	thumb := resize.Thumbnail(thumbnailEdge, thumbnailEdge, img, resize.Lanczos3)

	out, err := os.Create(thumbPath(original))
	if err != nil {
		return
	}
	defer out.Close()

	_ = jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85})
}

// thumbPath turns uploads/image-1-ab.png into uploads/image-1-ab_thumb.jpg.
func thumbPath(original string) string {
	ext := filepath.Ext(original)
	return original[:len(original)-len(ext)] + "_thumb.jpg"
}

func randomSuffix() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
