package cache

import (
	"fmt"
	"time"
)

// Keyer builds cache keys.
type Keyer interface {
	// ParseKey addresses the parsed form of a .lay file with the given
	// content hash.
	ParseKey(contentHash string) string
	// TemplateKey addresses template metadata. The key changes whenever the
	// file's modification time or size does.
	TemplateKey(path string, mtime time.Time, size int64) string
	// RenderKey addresses a rendered page of a layout.
	RenderKey(layoutHash string, opts RenderKeyOpts) string
}

// RenderKeyOpts are the render settings that change the output bytes.
type RenderKeyOpts struct {
	DPI  int    `json:"dpi"`
	Mode string `json:"mode"`
	Page int    `json:"page"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ParseKey implements Keyer.
func (DefaultKeyer) ParseKey(contentHash string) string {
	return "parse:" + contentHash
}

// TemplateKey implements Keyer.
func (DefaultKeyer) TemplateKey(path string, mtime time.Time, size int64) string {
	return hashKey("template", path, mtime.UnixNano(), size)
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return fmt.Sprintf("render:%s:%s", layoutHash, hashKey("opts", opts))
}
