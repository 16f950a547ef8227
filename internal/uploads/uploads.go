// Package uploads validates and stores resume files attached to job applications.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"swipr-api/internal/config"
	"swipr-api/internal/logging"
	"swipr-api/pkg/utils"
)

// Sentinel errors to allow precise mapping in handlers
var (
	ErrTooLarge        = errors.New("file_too_large")
	ErrUnsupportedType = errors.New("unsupported_file_type")
	ErrNotFound        = errors.New("file_not_found")
)

// Storage backend names
const (
	BackendLocal  = "local"
	BackendSpaces = "spaces"
)

// Storage persists uploaded files by name
type Storage interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	Backend() string
	Healthy(ctx context.Context) bool
}

// File describes a stored upload
type File struct {
	Name         string `json:"name"`
	OriginalName string `json:"originalName"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
}

// Service enforces the size limit and type allow-list, then hands files to a Storage
type Service struct {
	storage  Storage
	maxBytes int64
	allowed  []string
	logger   logging.Logger
}

// New picks Spaces when credentials are configured and the local directory otherwise
func New(cfg *config.Config) (*Service, error) {
	var storage Storage
	if cfg.SpacesConfigured() {
		spaces, err := NewSpacesStorage(cfg)
		if err != nil {
			return nil, err
		}
		storage = spaces
	} else {
		storage = NewLocalStorage(cfg.Uploads.Dir)
	}
	return NewService(storage, cfg.Uploads.MaxBytes, cfg.Uploads.AllowedTypes), nil
}

// NewService wraps an explicit storage backend
func NewService(storage Storage, maxBytes int64, allowed []string) *Service {
	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}
	if len(allowed) == 0 {
		allowed = config.DefaultAllowedUploadTypes
	}
	return &Service{
		storage:  storage,
		maxBytes: maxBytes,
		allowed:  allowed,
		logger:   logging.GetGlobalLogger().WithField("component", "uploads"),
	}
}

// Backend names the storage in use
func (s *Service) Backend() string { return s.storage.Backend() }

// Healthy reports whether the storage backend is reachable
func (s *Service) Healthy(ctx context.Context) bool { return s.storage.Healthy(ctx) }

// MaxBytes is the largest accepted file
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// TooLargeMessage is the user-facing message for oversized files
func (s *Service) TooLargeMessage() string {
	if s.maxBytes < 1024*1024 {
		return fmt.Sprintf("File too large. Please upload a file smaller than %dKB.", s.maxBytes/1024)
	}
	return fmt.Sprintf("File too large. Please upload a file smaller than %dMB.", s.maxBytes/(1024*1024))
}

// UnsupportedTypeMessage is the user-facing message for rejected file types
func (s *Service) UnsupportedTypeMessage() string {
	return "Invalid file type. Please upload a PDF, DOC, DOCX, or TXT file."
}

// Save validates a multipart file and stores it under a unique name
func (s *Service) Save(ctx context.Context, fh *multipart.FileHeader) (*File, error) {
	if fh.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, fh.Size)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.maxBytes)
	}

	contentType, err := s.Validate(data, fh.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), utils.RandomSuffix(9), SanitizeFilename(fh.Filename))
	if err := s.storage.Put(ctx, name, contentType, data); err != nil {
		s.logger.Error("Failed to store resume", map[string]interface{}{
			"file":    name,
			"backend": s.storage.Backend(),
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("store upload: %w", err)
	}

	s.logger.Info("Resume stored", map[string]interface{}{
		"file":         name,
		"content_type": contentType,
		"size_bytes":   len(data),
		"backend":      s.storage.Backend(),
	})

	return &File{
		Name:         name,
		OriginalName: fh.Filename,
		ContentType:  contentType,
		Size:         int64(len(data)),
	}, nil
}

// Validate sniffs the content and checks it, and the declared type when present, against
// the allow-list. It returns the content type to store.
func (s *Service) Validate(data []byte, declared string) (string, error) {
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnsupportedType)
	}

	if base := baseType(declared); base != "" && base != "application/octet-stream" && !utils.Contains(s.allowed, base) {
		return "", fmt.Errorf("%w: declared %s", ErrUnsupportedType, base)
	}

	detected := mimetype.Detect(data)
	for _, allowed := range s.allowed {
		if detected.Is(allowed) {
			return allowed, nil
		}
	}

	// legacy .doc files are often only recognised as generic OLE containers
	if detected.Is("application/x-ole-storage") && utils.Contains(s.allowed, "application/msword") {
		return "application/msword", nil
	}

	return "", fmt.Errorf("%w: detected %s", ErrUnsupportedType, detected.String())
}

// Open streams a stored file
func (s *Service) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !safeName(name) {
		return nil, ErrNotFound
	}
	return s.storage.Get(ctx, name)
}

// Delete removes a stored file
func (s *Service) Delete(ctx context.Context, name string) error {
	if !safeName(name) {
		return ErrNotFound
	}
	return s.storage.Delete(ctx, name)
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeFilename keeps letters, digits, dots and dashes of the base name
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "resume"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}

func safeName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") && filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

func baseType(contentType string) string {
	if contentType == "" {
		return ""
	}
	base, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return base
}
