package covers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// CoverExt is the extension of every stored cover; covers are always re-encoded as JPEG.
const CoverExt = ".jpg"

// maxDownloadBytes caps remote cover downloads.
const maxDownloadBytes = 20 << 20

var ErrInvalidName = errors.New("invalid cover name")

// Options tunes cover compression. Zero values use the defaults.
type Options struct {
	MaxWidth    int
	JPEGQuality int
}

// Repository stores cover images in an app-private directory.
// The directory listing is the source of truth for which covers exist.
type Repository struct {
	dir        string
	maxWidth   int
	quality    int
	httpClient *http.Client
}

// NewRepository creates a cover repository at dir, creating the directory if needed.
func NewRepository(dir string, opts Options) (*Repository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create covers dir: %w", err)
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 480
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 80
	}

	return &Repository{
		dir:      dir,
		maxWidth: opts.MaxWidth,
		quality:  opts.JPEGQuality,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Dir returns the cover directory path.
func (r *Repository) Dir() string {
	return r.dir
}

// FilenameFor returns the cover filename used for a book or document identifier.
func FilenameFor(id string) string {
	return id + CoverExt
}

// Path resolves a cover name to its file path, rejecting anything that is not a plain file name.
func (r *Repository) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(r.dir, name), nil
}

// Exists reports whether a cover file is present on disk.
func (r *Repository) Exists(name string) bool {
	path, err := r.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// SaveImage downscales img to the configured width and writes it as JPEG.
func (r *Repository) SaveImage(name string, img image.Image) error {
	path, err := r.Path(name)
	if err != nil {
		return err
	}

	if img.Bounds().Dx() > r.maxWidth {
		img = imaging.Resize(img, r.maxWidth, 0, imaging.Lanczos)
	}

	// Write to a temp file in the same directory for an atomic replace
	tmpFile, err := os.CreateTemp(r.dir, ".cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	if err := imaging.Encode(tmpFile, img, imaging.JPEG, imaging.JPEGQuality(r.quality)); err != nil {
		return fmt.Errorf("encode cover: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// SaveFromReader decodes an image stream and stores it compressed.
func (r *Repository) SaveFromReader(name string, src io.Reader) error {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode cover: %w", err)
	}
	return r.SaveImage(name, img)
}

// SaveFromFile copies and compresses an image file into the repository.
func (r *Repository) SaveFromFile(name, srcPath string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.SaveFromReader(name, f)
}

// Download fetches a remote image and stores it compressed.
func (r *Repository) Download(ctx context.Context, name, url string) error {
	if _, err := r.Path(name); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "LiteraryLinc/1.0")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch cover: status %d", resp.StatusCode)
	}

	return r.SaveFromReader(name, io.LimitReader(resp.Body, maxDownloadBytes))
}

// Open decodes a stored cover.
func (r *Repository) Open(name string) (image.Image, error) {
	path, err := r.Path(name)
	if err != nil {
		return nil, err
	}
	return imaging.Open(path)
}

// Delete removes a cover. Deleting a missing cover is not an error.
func (r *Repository) Delete(name string) error {
	path, err := r.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DeleteAll removes every stored cover and returns how many were deleted.
func (r *Repository) DeleteAll() (int, error) {
	names, err := r.List()
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, name := range names {
		if err := r.Delete(name); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// List returns a sorted snapshot of the stored cover names.
func (r *Repository) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), CoverExt) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Watch re-lists the directory every interval and emits a snapshot when it changes.
// The first snapshot is sent immediately. The channel closes when ctx is done.
func (r *Repository) Watch(ctx context.Context, interval time.Duration) <-chan []string {
	out := make(chan []string, 1)

	go func() {
		defer close(out)

		var last []string
		first := true
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			names, err := r.List()
			if err != nil {
				log.Printf("[COVERS] Failed to list %s: %v", r.dir, err)
			} else if first || !slices.Equal(names, last) {
				first = false
				last = names
				select {
				case out <- names:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
