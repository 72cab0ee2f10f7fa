// Package storage is the object-storage strategy. The driver is picked
// once at bootstrap (disk or null); there is no runtime mock-mode
// toggle that silently degrades uploads.
package storage

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"canteen-backend/internal/apperr"
)

// Store saves a blob and returns a stable URL for it.
type Store interface {
	Save(name string, data []byte) (string, error)
	// Available reports whether uploads can succeed at all. Callers
	// with a data-URL fallback (QR images) check this first.
	Available() bool
}

// DiskStore writes under the upload directory served at /uploads, the
// same layout the POS has always used.
type DiskStore struct {
	Dir     string
	BaseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) Save(name string, data []byte) (string, error) {
	filename := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitize(name))
	if err := os.WriteFile(filepath.Join(s.Dir, filename), data, 0o644); err != nil {
		return "", apperr.Wrap(apperr.Internal, "save upload", err)
	}
	return s.BaseURL + "/uploads/" + filename, nil
}

func (s *DiskStore) Available() bool { return true }

// NullStore is the bootstrap choice for environments with no object
// storage. Every save fails loudly; callers either reject the write or
// fall back to data URLs where the contract allows it.
type NullStore struct{}

func (NullStore) Save(string, []byte) (string, error) {
	return "", apperr.New(apperr.Validation, "object storage is not configured")
}

func (NullStore) Available() bool { return false }

// IsDataURI reports whether a stored-document field arrived as an
// inline base64 payload instead of a URL.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURI splits a data URI into its media type and raw bytes.
func DecodeDataURI(uri string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, apperr.New(apperr.Validation, "not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, apperr.New(apperr.Validation, "malformed data URI")
	}
	mediaType = strings.TrimSuffix(meta, ";base64")
	if strings.HasSuffix(meta, ";base64") {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, apperr.Wrap(apperr.Validation, "malformed base64 payload", err)
		}
	} else {
		data = []byte(payload)
	}
	return mediaType, data, nil
}

// ExtensionFor maps a media type to a file extension for stored blobs.
func ExtensionFor(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}

func sanitize(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
