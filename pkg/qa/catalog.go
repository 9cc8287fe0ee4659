package qa

import "slices"

// Collection is an audience-specific suite: an ordered list of categories.
type Collection struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

// Catalog maps collection names to their categories, preserving the order in
// which collections were declared.
type Catalog struct {
	collections []Collection
}

// NewCatalog creates a catalog from collections. A later collection with the
// same name replaces an earlier one in place.
func NewCatalog(collections ...Collection) *Catalog {
	c := &Catalog{}
	for _, col := range collections {
		c.put(col)
	}
	return c
}

// DefaultCatalog returns the built-in collections.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Collection{Name: "animation", Categories: []string{"Animation", "Scene"}},
		Collection{Name: "modelling", Categories: []string{"Modelling", "Geometry", "UV", "Shaders", "Render Stats", "Scene"}},
		Collection{Name: "rigging", Categories: []string{"Rigging", "Skinning", "Shaders", "Render Stats", "Scene"}},
		Collection{Name: "look-dev", Categories: []string{"Shaders", "Textures", "UV", "Render Layers", "Render Stats", "Scene"}},
	)
}

func (c *Catalog) put(col Collection) {
	col.Categories = slices.Clone(col.Categories)
	for i, existing := range c.collections {
		if existing.Name == col.Name {
			c.collections[i] = col
			return
		}
	}
	c.collections = append(c.collections, col)
}

// Names returns the collection names in declaration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.collections))
	for i, col := range c.collections {
		names[i] = col.Name
	}
	return names
}

// Collections returns a copy of every collection.
func (c *Catalog) Collections() []Collection {
	out := make([]Collection, len(c.collections))
	for i, col := range c.collections {
		out[i] = Collection{Name: col.Name, Categories: slices.Clone(col.Categories)}
	}
	return out
}

// Resolve returns the ordered categories of a collection.
func (c *Catalog) Resolve(name string) ([]string, error) {
	for _, col := range c.collections {
		if col.Name == name {
			return slices.Clone(col.Categories), nil
		}
	}
	return nil, &UnknownCollectionError{Name: name, Available: c.Names()}
}

// With returns a new catalog with extra collections merged in. Collections
// that share a name with an existing one replace it.
func (c *Catalog) With(extra ...Collection) *Catalog {
	return NewCatalog(append(c.Collections(), extra...)...)
}
