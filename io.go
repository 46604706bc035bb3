// File: confforge/conf/io.go
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads the file, detects its format, parses it and atomically
// replaces the current tree. The file becomes the bound file for Save
// and Watch. Parsing is all-or-nothing: on any error the prior tree is
// retained unchanged.
func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrConfigNotFound
		}
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	adapter, err := DetectAdapter(path, data)
	if err != nil {
		return err
	}
	root, err := adapter.Parse(data)
	if err != nil {
		return err
	}
	if err := c.checkSchema(root); err != nil {
		return err
	}

	c.mu.Lock()
	c.adapter = adapter
	c.filePath = path
	c.mu.Unlock()

	c.swapIn(root)
	if c.audit != nil {
		c.audit.Record(AuditEvent{Kind: AuditLoad, Path: path})
	}
	return nil
}

// LoadString parses configuration text in the named format and replaces
// the current tree. It does not bind a file.
func (c *Config) LoadString(data string, format string) error {
	adapter, err := AdapterFor(format)
	if err != nil {
		return err
	}
	root, err := adapter.Parse([]byte(data))
	if err != nil {
		return err
	}
	if err := c.checkSchema(root); err != nil {
		return err
	}
	c.swapIn(root)
	return nil
}

// loadAs is Load with the adapter chosen by name instead of detection.
func (c *Config) loadAs(path string, format string) error {
	adapter, err := AdapterFor(format)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrConfigNotFound
		}
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	root, err := adapter.Parse(data)
	if err != nil {
		return err
	}
	if err := c.checkSchema(root); err != nil {
		return err
	}

	c.mu.Lock()
	c.adapter = adapter
	c.filePath = path
	c.mu.Unlock()

	c.swapIn(root)
	if c.audit != nil {
		c.audit.Record(AuditEvent{Kind: AuditLoad, Path: path})
	}
	return nil
}

// Reload re-parses the bound file immediately, outside any watch.
func (c *Config) Reload() error {
	c.mu.Lock()
	path := c.filePath
	c.mu.Unlock()
	if path == "" {
		return ErrNoFilePath
	}
	return c.Load(path)
}

// Save marshals the current tree and writes it atomically to the bound
// file, clearing the modified flag.
func (c *Config) Save() error {
	c.mu.Lock()
	path := c.filePath
	adapter := c.adapter
	c.mu.Unlock()
	if path == "" || adapter == nil {
		return ErrNoFilePath
	}
	return c.saveWith(path, adapter)
}

// SaveTo marshals the current tree to the given path, choosing the
// adapter by file extension. The bound file is unchanged.
func (c *Config) SaveTo(path string) error {
	adapter, err := DetectAdapter(path, nil)
	if err != nil {
		return err
	}
	return c.saveWith(path, adapter)
}

// Export renders the current tree in the named format.
func (c *Config) Export(format string) ([]byte, error) {
	adapter, err := AdapterFor(format)
	if err != nil {
		return nil, err
	}
	return adapter.Marshal(c.store.Root())
}

func (c *Config) saveWith(path string, adapter Adapter) error {
	data, err := adapter.Marshal(c.store.Root())
	if err != nil {
		return err
	}
	if err := atomicWriteFile(path, data); err != nil {
		return err
	}
	c.store.MarkClean()
	if c.audit != nil {
		c.audit.Record(AuditEvent{Kind: AuditSave, Path: path})
	}
	return nil
}

// checkSchema validates a candidate tree before it is published.
func (c *Config) checkSchema(root *Value) error {
	if c.schema == nil {
		return nil
	}
	findings, err := c.schema.Validate(root)
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		return nil
	}
	if c.audit != nil {
		for _, f := range findings {
			c.audit.Record(AuditEvent{Kind: AuditValidation, Path: f.Path, Err: f})
		}
	}
	return JoinValidationErrors(findings)
}

// swapIn publishes a fully built tree and drops stale cache state.
func (c *Config) swapIn(root *Value) {
	c.store.SwapRoot(root)
	c.cache.InvalidateAll()
	if c.env != nil {
		c.env.Flush()
	}
}

// atomicWriteFile writes data to path via a temp file in the same
// directory followed by a rename, so readers never observe a torn file.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // No-op after a successful rename

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("sync temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temporary file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename temporary file: %w", err)
	}
	return nil
}
