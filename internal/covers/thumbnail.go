package covers

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // comic archives often carry webp pages

	"github.com/literarylinc/literarylinc/internal/entities"
)

// ErrUnsupportedFormat is returned for documents we cannot rasterise (PDF, RAR comics).
var ErrUnsupportedFormat = errors.New("unsupported format for thumbnail")

// ErrNoImages is returned when an archive holds no decodable image.
var ErrNoImages = errors.New("no images found in archive")

var imageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

// Thumbnail extracts a cover image from a document file.
// It returns the decoded image and the archive entry it came from.
func Thumbnail(ctx context.Context, srcPath, mimeType string) (image.Image, string, error) {
	switch mimeType {
	case entities.MimeComicZip:
		return archiveImage(ctx, srcPath, false)
	case entities.MimeEPUB:
		return archiveImage(ctx, srcPath, true)
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
}

func archiveImage(ctx context.Context, srcPath string, preferCover bool) (image.Image, string, error) {
	zr, err := zip.OpenReader(srcPath)
	if err != nil {
		return nil, "", fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	var candidates []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isImageEntry(f.Name) {
			continue
		}
		candidates = append(candidates, f)
	}
	if len(candidates) == 0 {
		return nil, "", ErrNoImages
	}

	slices.SortFunc(candidates, func(a, b *zip.File) int {
		return naturalCompare(a.Name, b.Name)
	})

	if preferCover {
		// Entries named like "cover.jpg" or "images/Cover-1.png" go first, keeping natural order otherwise
		slices.SortStableFunc(candidates, func(a, b *zip.File) int {
			ac, bc := isCoverEntry(a.Name), isCoverEntry(b.Name)
			switch {
			case ac && !bc:
				return -1
			case bc && !ac:
				return 1
			}
			return 0
		})
	}

	var lastErr error
	for _, f := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		img, err := decodeEntry(f)
		if err != nil {
			lastErr = err
			continue
		}
		return img, f.Name, nil
	}
	return nil, "", fmt.Errorf("%w: %v", ErrNoImages, lastErr)
}

func decodeEntry(f *zip.File) (image.Image, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return imaging.Decode(rc, imaging.AutoOrientation(true))
}

func isImageEntry(name string) bool {
	base := path.Base(name)
	// macOS resource forks ride along in many comic archives
	if strings.HasPrefix(base, ".") || strings.HasPrefix(name, "__MACOSX/") {
		return false
	}
	return slices.Contains(imageExts, strings.ToLower(path.Ext(name)))
}

func isCoverEntry(name string) bool {
	return strings.Contains(strings.ToLower(path.Base(name)), "cover")
}

// naturalCompare orders strings so that embedded numbers compare by value ("p2" < "p10").
func naturalCompare(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			si := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			sj := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			na := strings.TrimLeft(a[si:i], "0")
			nb := strings.TrimLeft(b[sj:j], "0")
			if len(na) != len(nb) {
				return len(na) - len(nb)
			}
			if c := strings.Compare(na, nb); c != 0 {
				return c
			}
			continue
		}
		if ca != cb {
			return int(ca) - int(cb)
		}
		i++
		j++
	}
	return (len(a) - i) - (len(b) - j)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
