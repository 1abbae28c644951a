package cache

import "time"

// ScopedKeyer wraps a Keyer with a prefix, giving each deployment or
// school its own namespace in a shared store.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "school:1234:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ParseKey implements Keyer.
func (k *ScopedKeyer) ParseKey(contentHash string) string {
	return k.prefix + k.inner.ParseKey(contentHash)
}

// TemplateKey implements Keyer.
func (k *ScopedKeyer) TemplateKey(path string, mtime time.Time, size int64) string {
	return k.prefix + k.inner.TemplateKey(path, mtime, size)
}

// RenderKey implements Keyer.
func (k *ScopedKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(layoutHash, opts)
}
