package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Operation names the codec registers under.
const (
	LoadOp = "pngcms:png-load"
	SaveOp = "pngcms:png-save"
)

// Registry maps file extensions and MIME types to loader and saver
// operations. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]string
	savers  map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[string]string),
		savers:  make(map[string]string),
	}
}

// RegisterLoader binds an extension (".png") or MIME type ("image/png") to
// a load operation. Keys are case-insensitive.
func (r *Registry) RegisterLoader(key, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[strings.ToLower(key)] = op
}

// RegisterSaver binds an extension to a save operation.
func (r *Registry) RegisterSaver(ext, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.savers[strings.ToLower(ext)] = op
}

// LoaderFor returns the load operation for an extension or MIME type.
func (r *Registry) LoaderFor(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.loaders[strings.ToLower(key)]
	return op, ok
}

// SaverFor returns the save operation for an extension.
func (r *Registry) SaverFor(ext string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.savers[strings.ToLower(ext)]
	return op, ok
}

// SaverForPath looks up the saver by the extension of path.
func (r *Registry) SaverForPath(path string) (string, error) {
	ext := filepath.Ext(path)
	op, ok := r.SaverFor(ext)
	if !ok {
		return "", fmt.Errorf("no saver registered for %q", ext)
	}
	return op, nil
}

// LoaderForPath looks up the loader by the extension of path.
func (r *Registry) LoaderForPath(path string) (string, error) {
	ext := filepath.Ext(path)
	op, ok := r.LoaderFor(ext)
	if !ok {
		return "", fmt.Errorf("no loader registered for %q", ext)
	}
	return op, nil
}

// Init registers the PNG loader and saver. Call it once at startup.
func Init(r *Registry) {
	r.RegisterLoader("image/png", LoadOp)
	r.RegisterLoader(".png", LoadOp)
	r.RegisterSaver(".png", SaveOp)
}
