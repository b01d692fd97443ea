package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	applog "storefront/internal/log"
)

// URLPrefix is the public path under which stored files are served.
const URLPrefix = "/uploads/"

var (
	ErrNotImage = errors.New("only image files are allowed")
	ErrTooLarge = errors.New("file too large")
)

var allowed = map[string][]string{
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".webp": {"image/webp"},
}

// Store keeps uploaded product images on local disk.
type Store struct {
	Dir     string
	MaxSize int64
}

func NewStore(dir string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{Dir: dir, MaxSize: maxSize}, nil
}

// Check validates a file header without storing it.
func (s *Store) Check(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	types, ok := allowed[ext]
	if !ok {
		return ErrNotImage
	}
	ct := strings.ToLower(fh.Header.Get("Content-Type"))
	match := false
	for _, t := range types {
		if ct == t {
			match = true
		}
	}
	if !match {
		return ErrNotImage
	}
	if s.MaxSize > 0 && fh.Size > s.MaxSize {
		return ErrTooLarge
	}
	return nil
}

// Save stores each file under a random name and returns their public URLs.
// Either every file is stored or none is.
func (s *Store) Save(files []*multipart.FileHeader) ([]string, error) {
	for _, fh := range files {
		if err := s.Check(fh); err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
	}
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
		if err := s.write(fh, filepath.Join(s.Dir, name)); err != nil {
			s.Remove(urls)
			return nil, err
		}
		urls = append(urls, URLPrefix+name)
	}
	return urls, nil
}

func (s *Store) write(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

// Remove deletes stored files by URL. URLs outside the store are ignored.
func (s *Store) Remove(urls []string) {
	for _, u := range urls {
		p, ok := s.Path(u)
		if !ok {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			applog.Error(nil, "media.remove", err, map[string]any{"url": u})
		}
	}
}

// Path maps a public URL or bare file name to a file inside Dir.
// Anything that would escape Dir is rejected.
func (s *Store) Path(url string) (string, bool) {
	name := strings.TrimPrefix(url, URLPrefix)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", false
	}
	base, err := filepath.Abs(s.Dir)
	if err != nil {
		return "", false
	}
	p := filepath.Join(base, name)
	if !strings.HasPrefix(p, base+string(os.PathSeparator)) {
		return "", false
	}
	return p, true
}
