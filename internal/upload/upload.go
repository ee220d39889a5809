// Package upload stores admin-uploaded images on the local filesystem.
package upload

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/oklog/ulid/v2"
)

// DefaultMaxBytes is the size limit when none is configured.
const DefaultMaxBytes int64 = 5 << 20

var (
	ErrTooLarge        = errors.New("file exceeds the upload size limit")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrEmptyFile       = errors.New("file is empty")
	ErrInvalidName     = errors.New("invalid file name")
	ErrNotFound        = errors.New("file not found")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Stored names are a ULID plus one of the known extensions.
var namePattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}\.(jpg|png|gif|webp)$`)

// File describes a stored upload.
type File struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Store writes images to a directory served under baseURL.
type Store struct {
	dir      string
	baseURL  string
	maxBytes int64
	logger   *slog.Logger
}

// NewStore creates dir if needed and returns a Store.
func NewStore(dir, baseURL string, maxBytes int64, logger *slog.Logger) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		logger:   logger.With("component", "upload"),
	}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// MaxBytes returns the size limit.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Save sniffs the content type of r and writes it under a new name.
func (s *Store) Save(r io.Reader) (*File, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}

	contentType := http.DetectContentType(head)
	ext, ok := extensions[contentType]
	if !ok {
		return nil, ErrUnsupportedType
	}

	name := ulid.Make().String() + ext
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(br, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("write file: %w", err)
	}

	s.logger.Info("file uploaded", "name", name, "content_type", contentType, "size", n)
	return &File{Name: name, URL: s.baseURL + "/" + name, ContentType: contentType, Size: n}, nil
}

// Delete removes a previously stored file.
func (s *Store) Delete(name string) error {
	if !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete file: %w", err)
	}
	s.logger.Info("file deleted", "name", name)
	return nil
}
