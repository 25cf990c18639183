// Package workspace keeps the editor's view of source documents: the file on disk, plus any
// unsaved content a client has pushed for it.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pslkit/psl-test-adapter/framework"
)

// Documents tracks unsaved document content and writes it out on Save.
type Documents struct {
	unsaved map[string][]byte
	logger  framework.Logger
	lock    sync.Mutex
}

func NewDocuments(logger framework.Logger) *Documents {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Documents{unsaved: make(map[string][]byte), logger: logger}
}

// Update records unsaved content for a document. It is not written until Save is called.
func (d *Documents) Update(path string, content []byte) {
	key := normalize(path)
	d.lock.Lock()
	d.unsaved[key] = append([]byte(nil), content...)
	d.lock.Unlock()
}

// IsDirty reports whether the document has unsaved content.
func (d *Documents) IsDirty(path string) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	_, ok := d.unsaved[normalize(path)]
	return ok
}

// Open returns the current content of a document: the unsaved content if there is any, otherwise
// the file on disk.
func (d *Documents) Open(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.lock.Lock()
	content, ok := d.unsaved[normalize(path)]
	d.lock.Unlock()
	if ok {
		return append([]byte(nil), content...), nil
	}
	return os.ReadFile(path)
}

// Save makes sure the file on disk matches the document. Unsaved content is written and flushed
// to stable storage; a document without unsaved content only has to exist.
func (d *Documents) Save(ctx context.Context, path string) error {
	if _, err := d.Open(ctx, path); err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}
	key := normalize(path)
	d.lock.Lock()
	content, dirty := d.unsaved[key]
	d.lock.Unlock()
	if !dirty {
		return nil
	}

	if err := writeAndSync(path, content); err != nil {
		return fmt.Errorf("cannot save %s: %w", path, err)
	}
	d.logger.Printf("Saved %s (%d bytes)", path, len(content))

	d.lock.Lock()
	// content may have been updated again while we were writing
	if current, ok := d.unsaved[key]; ok && string(current) == string(content) {
		delete(d.unsaved, key)
	}
	d.lock.Unlock()
	return nil
}

func writeAndSync(path string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
