// Package scanner reconciles the document table with the files under the granted directories.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/literarylinc/literarylinc/internal/covers"
	"github.com/literarylinc/literarylinc/internal/entities"
	"github.com/literarylinc/literarylinc/internal/utils"
)

type DocumentStore interface {
	All() ([]entities.Document, error)
	KnownURIs() (map[string]struct{}, error)
	InsertMany(docs []entities.Document) error
	SetCover(id, coverFilename string) error
}

type GrantStore interface {
	List() ([]entities.DirectoryGrant, error)
}

type CoverStore interface {
	Exists(name string) bool
	SaveImage(name string, img image.Image) error
}

// ThumbnailFunc renders a cover for a document file.
type ThumbnailFunc func(ctx context.Context, srcPath, mimeType string) (image.Image, string, error)

// ScanResult summarises one file scan.
type ScanResult struct {
	Roots    int           `json:"roots"`
	Files    int           `json:"files"`
	Rejected int           `json:"rejected"`
	Known    int           `json:"known"`
	Inserted int           `json:"inserted"`
	Duration time.Duration `json:"duration"`
}

// CoverScanResult summarises one cover pass.
type CoverScanResult struct {
	Checked     int `json:"checked"`
	Generated   int `json:"generated"`
	Unsupported int `json:"unsupported"`
	Failed      int `json:"failed"`
}

type Scanner struct {
	documents DocumentStore
	grants    GrantStore
	covers    CoverStore
	thumbnail ThumbnailFunc
}

func NewScanner(documents DocumentStore, grants GrantStore, coverStore CoverStore) *Scanner {
	return &Scanner{
		documents: documents,
		grants:    grants,
		covers:    coverStore,
		thumbnail: covers.Thumbnail,
	}
}

// ScanFiles walks every granted directory and inserts documents whose URI is not yet known.
// Documents whose files disappeared are left untouched.
func (s *Scanner) ScanFiles(ctx context.Context) (*ScanResult, error) {
	start := time.Now()
	result := &ScanResult{}

	roots, err := s.grants.List()
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	known, err := s.documents.KnownURIs()
	if err != nil {
		return nil, fmt.Errorf("load known documents: %w", err)
	}

	var found []entities.Document
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Roots++

		err := filepath.WalkDir(root.Path, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if path == root.Path {
					return walkErr
				}
				log.Printf("[SCAN] Skipping %s: %v", path, walkErr)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			result.Files++

			mimeType, ok := DetectMimeType(path)
			if !ok {
				result.Rejected++
				return nil
			}

			uri := URIFor(path)
			if _, exists := known[uri]; exists {
				result.Known++
				return nil
			}
			// Overlapping grants can reach the same file twice
			known[uri] = struct{}{}

			doc, err := newDocument(path, uri, mimeType, d)
			if err != nil {
				log.Printf("[SCAN] Skipping %s: %v", path, err)
				return nil
			}
			found = append(found, doc)
			return nil
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Printf("[SCAN] Root %s unavailable: %v", root.Path, err)
		}
	}

	if err := s.documents.InsertMany(found); err != nil {
		return nil, fmt.Errorf("insert documents: %w", err)
	}
	result.Inserted = len(found)
	result.Duration = time.Since(start)

	log.Printf("[SCAN] Scanned %d roots, %d files: %d new, %d known, %d rejected in %v",
		result.Roots, result.Files, result.Inserted, result.Known, result.Rejected, result.Duration)
	return result, nil
}

// ScanCovers generates covers for documents that have none on disk.
// Failures are counted and logged; the pass never stops on a single document.
func (s *Scanner) ScanCovers(ctx context.Context) (*CoverScanResult, error) {
	docs, err := s.documents.All()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	result := &CoverScanResult{}
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Checked++

		generated, err := s.GenerateCover(ctx, &docs[i])
		switch {
		case errors.Is(err, covers.ErrUnsupportedFormat):
			result.Unsupported++
		case err != nil:
			result.Failed++
			log.Printf("[SCAN] Cover for %s failed: %v", docs[i].Name, err)
		case generated:
			result.Generated++
		}
	}

	log.Printf("[SCAN] Cover pass: %d checked, %d generated, %d unsupported, %d failed",
		result.Checked, result.Generated, result.Unsupported, result.Failed)
	return result, nil
}

// GenerateCover renders and stores a cover for doc. It reports false without error
// when a cover file is already present.
func (s *Scanner) GenerateCover(ctx context.Context, doc *entities.Document) (bool, error) {
	if doc.CoverFilename != "" && s.covers.Exists(doc.CoverFilename) {
		return false, nil
	}

	name := covers.FilenameFor(doc.ID)
	if s.covers.Exists(name) {
		// File survived but the row lost track of it
		if doc.CoverFilename != name {
			if err := s.documents.SetCover(doc.ID, name); err != nil {
				return false, err
			}
			doc.CoverFilename = name
		}
		return false, nil
	}

	path, err := PathFromURI(doc.URI)
	if err != nil {
		return false, err
	}
	img, _, err := s.thumbnail(ctx, path, doc.MimeType)
	if err != nil {
		return false, err
	}
	if err := s.covers.SaveImage(name, img); err != nil {
		return false, fmt.Errorf("save cover: %w", err)
	}
	if err := s.documents.SetCover(doc.ID, name); err != nil {
		return false, fmt.Errorf("record cover: %w", err)
	}
	doc.CoverFilename = name
	return true, nil
}

// DetectMimeType sniffs path and maps it onto the document allow-list.
func DetectMimeType(path string) (string, bool) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", false
	}

	var detected string
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case mtype.Is(entities.MimePDF):
		detected = entities.MimePDF
	case mtype.Is(entities.MimeEPUB):
		detected = entities.MimeEPUB
	case ext == ".cbz" && isZip(mtype):
		detected = entities.MimeComicZip
	case ext == ".cbr" && isRar(mtype):
		detected = entities.MimeComicRar
	default:
		return "", false
	}
	if !slices.Contains(entities.DocumentMimeTypes, detected) {
		return "", false
	}
	return detected, true
}

func isZip(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}

func isRar(mtype *mimetype.MIME) bool {
	return mtype.Is("application/x-rar-compressed") || mtype.Is("application/vnd.rar")
}

// URIFor returns the file URI stored for a document path.
func URIFor(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// PathFromURI reverses URIFor.
func PathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse document uri: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported document uri scheme %q", u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}

func newDocument(path, uri, mimeType string, d fs.DirEntry) (entities.Document, error) {
	info, err := d.Info()
	if err != nil {
		return entities.Document{}, err
	}

	name := d.Name()
	title, author := utils.ParseTitleAuthor(name)
	meta := datatypes.JSONMap{
		"title":     title,
		"extension": strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
	}
	if author != "" {
		meta["author"] = author
	}

	return entities.Document{
		ID:        uuid.NewString(),
		URI:       uri,
		Name:      name,
		MimeType:  mimeType,
		SizeBytes: info.Size(),
		Metadata:  meta,
	}, nil
}
