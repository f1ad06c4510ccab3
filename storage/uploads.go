package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/xid"
)

// UploadStore writes uploaded files to a local directory. Each file gets a fresh
// storage key, so two uploads with the same client filename never collide.
type UploadStore struct {
	dir string
}

// StoredFile describes a file written by UploadStore.
type StoredFile struct {
	Key      string
	Path     string
	Filename string
	MIMEType string
	Size     int64
	// Digest is the hex sha256 of the file contents.
	Digest string
}

func NewUploadStore(dir string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating upload directory %s", dir)
	}
	return &UploadStore{dir: dir}, nil
}

func (s *UploadStore) Dir() string {
	return s.dir
}

// Save copies r unchanged to disk. contentType is used when the extension does not
// identify the media type.
func (s *UploadStore) Save(r io.Reader, filename, contentType string) (*StoredFile, error) {
	key := xid.New().String()
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	path := filepath.Join(s.dir, key+ext)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", path)
	}

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hash), r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, errors.Wrapf(err, "writing %s", path)
	}

	return &StoredFile{
		Key:      key,
		Path:     path,
		Filename: filename,
		MIMEType: DetectMIMEType(ext, contentType),
		Size:     size,
		Digest:   hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpg",
	".mov":  "video/mov",
	".avi":  "video/avi",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".wmv":  "video/wmv",
	".3gp":  "video/3gpp",
	".mkv":  "video/x-matroska",
}

// DetectMIMEType prefers the known video types, then the system table, then the
// client-supplied content type.
func DetectMIMEType(ext, contentType string) string {
	ext = strings.ToLower(ext)
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	if contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

// IsVideoExtension reports whether ext is one of the supported video extensions.
func IsVideoExtension(ext string) bool {
	_, ok := videoTypes[strings.ToLower(ext)]
	return ok
}
