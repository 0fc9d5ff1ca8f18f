// Package queue stores captured screenshots on disk: a main list feeding the
// initial solve and an extra list feeding debug runs.
package queue

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/internal/utils"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/types"
)

const (
	// MaxPerList bounds each screenshot list; the oldest entry is evicted.
	MaxPerList = 5

	previewWidth   = 480
	previewQuality = 80
)

// List identifies one of the two screenshot lists. The values double as
// directory names under the store root.
type List string

const (
	ListMain  List = "screenshots"
	ListExtra List = "extra_screenshots"
)

// Manager owns the two on-disk screenshot lists. IDs are the stored file
// names, unique per store.
type Manager struct {
	root   string
	logger *zap.Logger

	mu    sync.Mutex
	main  []string
	extra []string
}

// DefaultRoot returns the standard screenshot store location.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./interview-coder"
	}
	return filepath.Join(home, ".config", "interview-coder")
}

// NewManager opens the store rooted at dir, creating it when missing, and
// restores any lists left over from a previous session in capture order.
func NewManager(root string, logger *zap.Logger) (*Manager, error) {
	if root == "" {
		root = DefaultRoot()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{root: root, logger: logger}
	for _, list := range []List{ListMain, ListExtra} {
		if err := utils.EnsureDir(filepath.Join(root, string(list))); err != nil {
			return nil, fmt.Errorf("failed to create %s dir: %w", list, err)
		}
	}

	var err error
	if m.main, err = m.scan(ListMain); err != nil {
		return nil, err
	}
	if m.extra, err = m.scan(ListExtra); err != nil {
		return nil, err
	}
	return m, nil
}

// Add stores a captured screenshot at the back of a list, evicting the oldest
// entry above the cap. The bytes must decode as an image.
func (m *Manager) Add(list List, data []byte) (string, error) {
	if _, err := decodeImage(data); err != nil {
		return "", fmt.Errorf("not a decodable image: %w", err)
	}

	id := uuid.NewString() + extensionFor(http.DetectContentType(data))
	if err := os.WriteFile(m.filePath(list, id), data, 0644); err != nil {
		return "", fmt.Errorf("failed to store screenshot: %w", err)
	}

	var evicted []string
	m.mu.Lock()
	ids := m.ids(list)
	*ids = append(*ids, id)
	for len(*ids) > MaxPerList {
		evicted = append(evicted, (*ids)[0])
		*ids = (*ids)[1:]
	}
	m.mu.Unlock()

	for _, old := range evicted {
		if err := os.Remove(m.filePath(list, old)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("failed to evict screenshot", zap.String("id", old), zap.Error(err))
		}
	}

	m.logger.Debug("screenshot stored",
		zap.String("list", string(list)), zap.String("id", id),
		zap.String("size", utils.FormatFileSize(int64(len(data)))))
	return id, nil
}

// AddFromFile copies an existing image file into a list.
func (m *Manager) AddFromFile(list List, path string) (string, error) {
	if !utils.IsImageFile(path) {
		return "", fmt.Errorf("%s is not an image file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return m.Add(list, data)
}

// Queued lists the main screenshots in capture order.
func (m *Manager) Queued() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.main...)
}

// Extra lists the debug captures in capture order.
func (m *Manager) Extra() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.extra...)
}

// Load reads one stored screenshot into an immutable payload. The MIME type
// comes from the bytes, not the file extension, and files that no longer
// decode as images are rejected.
func (m *Manager) Load(id string) (types.ImagePayload, error) {
	path, err := m.pathFor(id)
	if err != nil {
		return types.ImagePayload{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.ImagePayload{}, fmt.Errorf("failed to read screenshot: %w", err)
	}
	if _, err := decodeImage(data); err != nil {
		return types.ImagePayload{}, fmt.Errorf("invalid screenshot %s: %w", id, err)
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}

	return types.ImagePayload{
		ID:     id,
		Path:   path,
		MIME:   mime,
		Data:   data,
		Base64: base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Preview renders a webp thumbnail of one screenshot, capped at previewWidth.
func (m *Manager) Preview(id string) ([]byte, error) {
	payload, err := m.Load(id)
	if err != nil {
		return nil, err
	}

	img, err := decodeImage(payload.Data)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > previewWidth {
		img = imaging.Resize(img, previewWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: previewQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// Remove deletes one screenshot from whichever list holds it.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	list, ok := m.drop(id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("screenshot %s not found", id)
	}

	path := m.filePath(list, id)
	if utils.FileExists(path) {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete screenshot: %w", err)
		}
	}
	return nil
}

// ClearExtra deletes the debug captures, keeping the main queue.
func (m *Manager) ClearExtra() {
	m.clear(ListExtra)
}

// ClearAll empties both lists.
func (m *Manager) ClearAll() {
	m.clear(ListMain)
	m.clear(ListExtra)
}

func (m *Manager) clear(list List) {
	m.mu.Lock()
	ids := append([]string(nil), *m.ids(list)...)
	*m.ids(list) = nil
	m.mu.Unlock()

	for _, id := range ids {
		if err := os.Remove(m.filePath(list, id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("failed to delete screenshot", zap.String("id", id), zap.Error(err))
		}
	}
}

func (m *Manager) ids(list List) *[]string {
	if list == ListExtra {
		return &m.extra
	}
	return &m.main
}

func (m *Manager) filePath(list List, id string) string {
	return filepath.Join(m.root, string(list), id)
}

// pathFor locates id in either list.
func (m *Manager) pathFor(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, known := range m.main {
		if known == id {
			return m.filePath(ListMain, id), nil
		}
	}
	for _, known := range m.extra {
		if known == id {
			return m.filePath(ListExtra, id), nil
		}
	}
	return "", fmt.Errorf("screenshot %s not found", id)
}

// drop removes id from its list, reporting which list held it.
func (m *Manager) drop(id string) (List, bool) {
	for _, list := range []List{ListMain, ListExtra} {
		ids := m.ids(list)
		for i, known := range *ids {
			if known == id {
				*ids = append((*ids)[:i], (*ids)[i+1:]...)
				return list, true
			}
		}
	}
	return "", false
}

// scan restores a list from disk, ordered by modification time.
func (m *Manager) scan(list List) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(m.root, string(list)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s dir: %w", list, err)
	}

	type stored struct {
		name string
		mod  time.Time
	}
	var found []stored
	for _, e := range entries {
		if e.IsDir() || !utils.IsImageFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, stored{name: e.Name(), mod: info.ModTime()})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].mod.Before(found[j].mod) })

	ids := make([]string, 0, len(found))
	for _, f := range found {
		ids = append(ids, f.name)
	}
	return ids, nil
}

// decodeImage decodes screenshot bytes, trying the registered formats first
// and the chai2010 decoder for webp files x/image rejects.
func decodeImage(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, errors.New("unknown or unsupported image format")
}

func extensionFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
