// Package artifact is the session-wide registry of extracted content.
//
// Artifacts are immutable once created and survive new conversations.
package artifact

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/killallgit/tessera/pkg/content"
	"github.com/killallgit/tessera/pkg/logger"
)

// TypeImage is the artifact type of generated media
const TypeImage = "image"

var ErrNotFound = errors.New("artifact not found")

// Artifact is one immutable unit of extracted content
type Artifact struct {
	ID        string
	Type      string
	Content   string
	CreatedAt time.Time
}

// Download is a file-ready rendition of an artifact
type Download struct {
	Filename string
	MimeType string
	Data     []byte
}

type fileType struct {
	ext  string
	mime string
}

var fileTypes = map[string]fileType{
	"python":     {".py", "text/x-python"},
	"javascript": {".js", "text/javascript"},
	"typescript": {".ts", "text/typescript"},
	"go":         {".go", "text/x-go"},
	"java":       {".java", "text/x-java"},
	"c":          {".c", "text/x-c"},
	"cpp":        {".cpp", "text/x-c++"},
	"rust":       {".rs", "text/x-rust"},
	"ruby":       {".rb", "text/x-ruby"},
	"bash":       {".sh", "application/x-sh"},
	"shell":      {".sh", "application/x-sh"},
	"sql":        {".sql", "application/sql"},
	"html":       {".html", "text/html"},
	"css":        {".css", "text/css"},
	"json":       {".json", "application/json"},
	"yaml":       {".yaml", "application/yaml"},
	"xml":        {".xml", "application/xml"},
	"markdown":   {".md", "text/markdown"},
	"mermaid":    {".mmd", "text/plain"},
	"csv":        {".csv", "text/csv"},
}

var defaultFileType = fileType{".txt", "text/plain"}

var imageExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// Store maps opaque ids to artifacts
type Store struct {
	mu    sync.RWMutex
	next  int
	items map[string]Artifact
	order []string
	now   func() time.Time
	log   *logger.Logger
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		items: make(map[string]Artifact),
		now:   time.Now,
		log:   logger.WithComponent("artifact"),
	}
}

// Create stores content under a fresh id. Non-text content is coerced to text.
func (s *Store) Create(c any, typ string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	for {
		s.next++
		id = fmt.Sprintf("artifact-%d", s.next)
		// Skip ids taken by Register
		if _, exists := s.items[id]; !exists {
			break
		}
	}
	s.put(id, c, typ)
	return id
}

// Register stores content under an externally supplied id. A known id is
// returned unchanged and its artifact is never overwritten.
func (s *Store) Register(id string, c any, typ string) string {
	if strings.TrimSpace(id) == "" {
		return s.Create(c, typ)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		s.log.Debug("reusing artifact", "id", id)
		return id
	}
	s.put(id, c, typ)
	return id
}

func (s *Store) put(id string, c any, typ string) {
	if typ == "" {
		typ = "text"
	}
	s.items[id] = Artifact{
		ID:        id,
		Type:      typ,
		Content:   content.Stringify(c),
		CreatedAt: s.now(),
	}
	s.order = append(s.order, id)
	s.log.Debug("artifact created", "id", id, "type", typ)
}

// CreateImage stores base64 image data as a data URL
func (s *Store) CreateImage(id, mimeType, b64 string) string {
	return s.Register(id, DataURL(mimeType, b64), TypeImage)
}

// Get returns the artifact stored under id
func (s *Store) Get(id string) (Artifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.items[id]
	return a, ok
}

// Has reports whether id is known
func (s *Store) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// List returns all artifacts in creation order
func (s *Store) List() []Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Artifact, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Len returns the number of stored artifacts
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Download renders an artifact as a file
func (s *Store) Download(id string) (Download, error) {
	a, ok := s.Get(id)
	if !ok {
		return Download{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if a.Type == TypeImage {
		mime, data, err := ParseDataURL(a.Content)
		if err != nil {
			return Download{}, fmt.Errorf("failed to decode image %s: %w", id, err)
		}
		ext, ok := imageExtensions[mime]
		if !ok {
			ext = ".bin"
		}
		return Download{Filename: a.ID + ext, MimeType: mime, Data: data}, nil
	}

	ft, ok := fileTypes[strings.ToLower(a.Type)]
	if !ok {
		ft = defaultFileType
	}
	return Download{Filename: a.ID + ft.ext, MimeType: ft.mime, Data: []byte(a.Content)}, nil
}

// DataURL builds a base64 data URL
func DataURL(mimeType, b64 string) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + b64
}

// ParseDataURL splits a base64 data URL into its mime type and bytes
func ParseDataURL(u string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return "", nil, errors.New("not a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data URL has no payload")
	}
	mime, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, errors.New("data URL is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return mime, data, nil
}
