// Package intake is a reference receiver for scanned documents. It accepts
// the same payload the scanner posts, stores the JPEG with a thumbnail and
// answers with the document's redirect URL.
package intake

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

// Defaults for stored documents.
const (
	DefaultTitle         = "Camera scan"
	DefaultThumbnailSize = 300
	StoredJPEGQuality    = 85
	MaxBodyBytes         = 50 << 20
)

var (
	// ErrMissingImage is returned when the submission carries no image.
	ErrMissingImage = errors.New("no image provided")
	// ErrInvalidImage is returned when the image is not a decodable JPEG.
	ErrInvalidImage = errors.New("image is not a valid JPEG")
	// ErrNotFound is returned for unknown document ids.
	ErrNotFound = errors.New("document not found")
)

// Submission is one incoming document.
type Submission struct {
	Image    string
	Title    string
	FolderID *string
}

// Document describes a stored scan.
type Document struct {
	ID        string    `json:"id" example:"0b6f1c9e-3d0a-4f7e-9a53-2a1b5c7d9e11" doc:"Document id"`
	Title     string    `json:"title" example:"Camera scan" doc:"Document title"`
	FolderID  *string   `json:"folder_id" doc:"Folder the document was filed into"`
	File      string    `json:"file" example:"camera_20250127_103000.jpg" doc:"Stored image file name"`
	Thumbnail string    `json:"thumbnail" example:"thumb_0b6f1c9e.jpg" doc:"Thumbnail file name"`
	Width     int       `json:"width" example:"1920" doc:"Image width in pixels"`
	Height    int       `json:"height" example:"1080" doc:"Image height in pixels"`
	Size      int64     `json:"size" example:"412345" doc:"Stored file size in bytes"`
	CreatedAt time.Time `json:"created_at" doc:"When the document was received"`
}

// RedirectURL is where a client goes after a successful upload.
func (d Document) RedirectURL() string {
	return "/documents/" + d.ID
}

// StoreOptions configures a Store.
type StoreOptions struct {
	Dir           string
	ThumbnailSize uint
	Logger        *slog.Logger
	Now           func() time.Time
}

// Store writes documents under a directory and indexes them in memory.
type Store struct {
	dir       string
	thumbSize uint
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.RWMutex
	docs map[string]Document
}

// NewStore creates the upload directory if needed.
func NewStore(opts StoreOptions) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("intake directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create intake directory: %w", err)
	}

	s := &Store{
		dir:       opts.Dir,
		thumbSize: opts.ThumbnailSize,
		logger:    opts.Logger,
		now:       opts.Now,
		docs:      make(map[string]Document),
	}
	if s.thumbSize == 0 {
		s.thumbSize = DefaultThumbnailSize
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Ingest decodes, re-encodes and stores a submission with its thumbnail.
func (s *Store) Ingest(sub Submission) (Document, error) {
	if strings.TrimSpace(sub.Image) == "" {
		return Document{}, ErrMissingImage
	}

	img, err := decodeImage(sub.Image)
	if err != nil {
		return Document{}, err
	}

	title := strings.TrimSpace(sub.Title)
	if title == "" {
		title = DefaultTitle
	}

	id := uuid.NewString()
	created := s.now()
	b := img.Bounds()

	data, err := encodeJPEG(img)
	if err != nil {
		return Document{}, fmt.Errorf("store image: %w", err)
	}
	file, err := s.createImageFile(created, id, data)
	if err != nil {
		return Document{}, fmt.Errorf("store image: %w", err)
	}

	doc := Document{
		ID:        id,
		Title:     title,
		FolderID:  sub.FolderID,
		File:      file,
		Thumbnail: "thumb_" + id + ".jpg",
		Width:     b.Dx(),
		Height:    b.Dy(),
		Size:      int64(len(data)),
		CreatedAt: created,
	}

	thumb := resize.Thumbnail(s.thumbSize, s.thumbSize, img, resize.Lanczos3)
	thumbData, err := encodeJPEG(thumb)
	if err == nil {
		err = writeExclusive(filepath.Join(s.dir, doc.Thumbnail), thumbData)
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, doc.File))
		return Document{}, fmt.Errorf("store thumbnail: %w", err)
	}

	s.mu.Lock()
	s.docs[id] = doc
	s.mu.Unlock()

	s.logger.Info("Document received", "id", id, "title", title, "file", doc.File,
		"width", doc.Width, "height", doc.Height, "size", doc.Size)
	return doc, nil
}

// Get returns a stored document.
func (s *Store) Get(id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ReadImage returns the stored JPEG of a document, or its thumbnail.
func (s *Store) ReadImage(id string, thumbnail bool) ([]byte, error) {
	doc, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	name := doc.File
	if thumbnail {
		name = doc.Thumbnail
	}
	return os.ReadFile(filepath.Join(s.dir, name))
}

// createImageFile stores data under the timestamped name, or with the id
// appended when a scan from the same second already took it.
func (s *Store) createImageFile(at time.Time, id string, data []byte) (string, error) {
	base := "camera_" + at.Format("20060102_150405")
	names := []string{base + ".jpg", base + "_" + id[:8] + ".jpg"}

	var err error
	for _, name := range names {
		err = writeExclusive(filepath.Join(s.dir, name), data)
		if !errors.Is(err, fs.ErrExist) {
			return name, err
		}
	}
	return "", err
}

// decodeImage accepts a data URI or bare base64 JPEG.
func decodeImage(data string) (image.Image, error) {
	if i := strings.Index(data, "base64,"); i >= 0 {
		data = data[i+len("base64,"):]
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	return img, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: StoredJPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeExclusive creates path and fails with fs.ErrExist if it is taken.
func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}
