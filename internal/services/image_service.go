package services

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// maxImageWidth bounds stored sale images and deposit slip photos
const maxImageWidth = 1600

// ImageService normalizes uploaded attachments before storage
type ImageService struct {
	maxWidth int
}

func NewImageService() *ImageService {
	return &ImageService{maxWidth: maxImageWidth}
}

// Prepare reads an upload and returns the bytes to store. Photos wider than
// maxWidth are scaled down and re-encoded; PDFs pass through untouched.
func (s *ImageService) Prepare(file multipart.File, header *multipart.FileHeader) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}

	switch ext {
	case ".pdf":
		return raw, header.Filename, nil
	case ".jpg", ".jpeg", ".png":
	default:
		return nil, "", errors.New("unsupported file type (PDF, JPG or PNG only)")
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() <= s.maxWidth {
		return raw, header.Filename, nil
	}

	resized := imaging.Resize(img, s.maxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if ext == ".png" {
		err = png.Encode(&buf, resized)
	} else {
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), header.Filename, nil
}
