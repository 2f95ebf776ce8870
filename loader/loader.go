// Package loader provides ready-made Loader implementations for resolving
// external references: a function adapter, a directory-rooted file loader
// and a caching wrapper for documents referenced from many sites.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	oaskema "github.com/reoring/oaskema"
)

// Func adapts a plain function to oaskema.Loader.
type Func func(ctx context.Context, location string) ([]byte, error)

func (f Func) Load(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}

// Dir returns a Loader reading locations as slash paths under root.
// Locations that would escape the root are rejected.
func Dir(root string) oaskema.Loader {
	return dirLoader{root: root}
}

type dirLoader struct{ root string }

func (d dirLoader) Load(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filepath.Join(d.root, filepath.FromSlash(location))
	rel, err := filepath.Rel(d.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("location %q escapes %q", location, d.root)
	}
	return os.ReadFile(p)
}

// Cached wraps next with an ARC cache holding up to size documents, so a
// location is fetched once no matter how many references point at it.
func Cached(next oaskema.Loader, size int) (oaskema.Loader, error) {
	arc, err := lru.NewARC(size)
	if err != nil {
		return nil, err
	}
	return &cachedLoader{next: next, arc: arc}, nil
}

type cachedLoader struct {
	next oaskema.Loader
	arc  *lru.ARCCache
}

func (c *cachedLoader) Load(ctx context.Context, location string) ([]byte, error) {
	if v, ok := c.arc.Get(location); ok {
		return v.([]byte), nil
	}
	data, err := c.next.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	c.arc.Add(location, data)
	return data, nil
}
