// Package fileutil handles cover photo loading and preparation.
package fileutil

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

// imageExtensions are the cover photo extensions picked up by batch mode.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// ReadImage reads the file and sniffs its MIME type from the content,
// not the extension. It performs no validation beyond reading; the
// extractor owns the size and format policy.
func ReadImage(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, DetectMIME(data), nil
}

// DetectMIME sniffs the content type from the payload's magic bytes.
func DetectMIME(data []byte) string {
	return http.DetectContentType(data)
}

// DownscaleIfLarge re-encodes images whose longest edge exceeds maxDim
// as a fitted JPEG. Phone photos of book covers are routinely far
// larger than the vision model needs; shrinking them keeps the payload
// under the size cap without losing legibility. Images that cannot be
// decoded are returned unchanged and left for the extractor to reject.
func DownscaleIfLarge(data []byte, mimeType string, maxDim int) ([]byte, string) {
	if maxDim <= 0 {
		return data, mimeType
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Could not decode image for downscaling", "error", err)
		return data, mimeType
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxDim && bounds.Dy() <= maxDim {
		return data, mimeType
	}

	fitted := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		slog.Debug("Could not re-encode downscaled image", "error", err)
		return data, mimeType
	}

	slog.Debug("Downscaled cover photo",
		"from", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		"bytes", buf.Len(),
	)
	return buf.Bytes(), "image/jpeg"
}

// ListImages returns the cover photos in dir, sorted by name for a
// deterministic batch order. Subdirectories are not descended into.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if imageExtensions[ext] {
			images = append(images, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(images)
	return images, nil
}

// FileExists reports whether path exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
