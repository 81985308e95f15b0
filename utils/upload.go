package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrImageTooLarge and ErrImageType are returned by SaveImage for rejected uploads.
var (
	ErrImageTooLarge = errors.New("image exceeds the size limit")
	ErrImageType     = errors.New("upload a valid image")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// SaveImage stores an uploaded post image under mediaRoot/post_images/YYYY/MM and returns
// its public path relative to the media URL prefix.
func SaveImage(header *multipart.FileHeader, mediaRoot string, maxBytes int64) (string, error) {
	if maxBytes > 0 && header.Size > maxBytes {
		return "", ErrImageTooLarge
	}
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect image type: %w", err)
	}
	ext, ok := imageExtensions[mt.String()]
	if !ok {
		return "", ErrImageType
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	now := time.Now()
	rel := path.Join("post_images", now.Format("2006"), now.Format("01"), uuid.NewString()+ext)
	dst := filepath.Join(mediaRoot, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer out.Close()

	limit := maxBytes
	if limit <= 0 {
		limit = header.Size
	}
	written, err := io.Copy(out, &io.LimitedReader{R: src, N: limit + 1})
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write image: %w", err)
	}
	if maxBytes > 0 && written > maxBytes {
		_ = os.Remove(dst)
		return "", ErrImageTooLarge
	}
	return rel, nil
}

// RemoveImage deletes a stored image; missing files are ignored.
func RemoveImage(mediaRoot, rel string) {
	if rel == "" {
		return
	}
	if err := os.Remove(filepath.Join(mediaRoot, filepath.FromSlash(rel))); err != nil && !errors.Is(err, os.ErrNotExist) {
		Sugar.Warnf("remove image %s: %v", rel, err)
	}
}
