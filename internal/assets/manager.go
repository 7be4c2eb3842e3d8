package assets

import (
	"fmt"

	"github.com/Faultbox/sketchplane/internal/mesh"
	"github.com/Faultbox/sketchplane/pkg/bundle"
	"github.com/Faultbox/sketchplane/pkg/formats"
)

// Manager resolves meshes by name across several open bundles.
// It is used from the event loop only and is not safe for concurrent use.
type Manager struct {
	archives []*bundle.Archive
	paths    []string
	cache    *Cache
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddBundle opens a bundle and adds it to the search list.
// Bundles are searched in reverse order (last added = highest priority).
func (m *Manager) AddBundle(path string) error {
	archive, err := bundle.Open(path)
	if err != nil {
		return fileError(path, err)
	}

	m.archives = append(m.archives, archive)
	m.paths = append(m.paths, path)
	return nil
}

// Names returns the mesh names available across all bundles.
func (m *Manager) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for i := len(m.archives) - 1; i >= 0; i-- {
		for _, name := range m.archives[i].List() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// Load returns a fresh copy of the named mesh.
func (m *Manager) Load(name string) (*mesh.Mesh, error) {
	if data, ok := m.cache.Get(name); ok {
		return FromData(name, data)
	}

	for i := len(m.archives) - 1; i >= 0; i-- {
		if !m.archives[i].Contains(name) {
			continue
		}
		data, err := readBundleMesh(m.archives[i], m.paths[i], name)
		if err != nil {
			return nil, err
		}
		m.cache.Set(name, data)
		return FromData(name, data)
	}

	return nil, fmt.Errorf("%w: mesh %q", ErrAssetNotFound, name)
}

// Close closes all bundles.
func (m *Manager) Close() {
	for _, archive := range m.archives {
		archive.Close()
	}
	m.archives = nil
	m.paths = nil
	m.cache.Clear()
}

// Cache keeps decoded mesh data by name.
type Cache struct {
	data map[string]*formats.MeshData

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*formats.MeshData),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (*formats.MeshData, bool) {
	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data *formats.MeshData) {
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.data = make(map[string]*formats.MeshData)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}
