// Package catalog owns the in-memory schema cache: table metas loaded from
// their `.table` meta files plus the view system table, and the dependency
// ordering needed when a view's definition references another view.
// Grounded on the teacher's database.go (one struct fronting a directory of
// schema files) generalized from "one DDL dump" to "a live, mutable
// catalog" — and on original_source's table.cpp/create_view_executor.cpp
// for the on-open load sequence.
package catalog

import (
	"fmt"
	"sync"

	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/storage/metafile"
)

// Catalog is the process-wide schema cache for one database directory. All
// mutation goes through its methods so concurrent sessions observe a
// consistent table/view set.
type Catalog struct {
	BaseDir string

	mu     sync.RWMutex
	tables map[string]*record.TableMeta
	views  map[string]*View
}

// Open loads every table meta file and the view system table under
// baseDir, failing if any `.table` file is corrupt.
func Open(baseDir string) (*Catalog, error) {
	names, err := metafile.List(baseDir)
	if err != nil {
		return nil, fmt.Errorf("catalog: list tables: %w", err)
	}

	c := &Catalog{
		BaseDir: baseDir,
		tables:  make(map[string]*record.TableMeta, len(names)),
		views:   make(map[string]*View),
	}

	// Each `.table` file is an independent read; fan them out the same way
	// database/concurrent.go's ConcurrentMapFuncWithError was built to do,
	// bounding concurrency instead of spawning one goroutine per table.
	metas, err := ConcurrentMapFuncWithError(names, 8, func(name string) (*record.TableMeta, error) {
		return metafile.Load(baseDir, name)
	})
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		c.tables[name] = metas[i]
	}

	views, err := loadViews(baseDir)
	if err != nil {
		return nil, fmt.Errorf("catalog: load views: %w", err)
	}
	for _, v := range views {
		vv := v
		c.views[v.Name] = &vv
	}
	return c, nil
}

// Table returns a table's meta, or nil if no table by that name exists.
func (c *Catalog) Table(name string) *record.TableMeta {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tables[name]
}

// View returns a view's definition, or nil if no view by that name exists.
func (c *Catalog) View(name string) *View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.views[name]
}

// IsView reports whether name is a view rather than a base table, used by
// statement binding to decide whether to expand it.
func (c *Catalog) IsView(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.views[name]
	return ok
}

// TableNames returns every base table name, for SHOW TABLES.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.tables))
	for name := range c.tables {
		out = append(out, name)
	}
	return out
}

// CreateTable registers a new table meta, persisting it via the
// temp-write-then-rename meta file protocol (spec.md §4.7).
func (c *Catalog) CreateTable(m *record.TableMeta) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.tables[m.Name]; exists {
		return fmt.Errorf("catalog: table %s already exists", m.Name)
	}
	if _, exists := c.views[m.Name]; exists {
		return fmt.Errorf("catalog: name %s is already a view", m.Name)
	}
	if err := metafile.Save(c.BaseDir, m); err != nil {
		return err
	}
	c.tables[m.Name] = m
	return nil
}

// DropTable removes a table's meta and on-disk meta file. Callers are
// responsible for removing the data/index/blob files beforehand.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.tables[name]; !exists {
		return fmt.Errorf("catalog: table %s does not exist", name)
	}
	if err := metafile.Remove(c.BaseDir, name); err != nil {
		return err
	}
	delete(c.tables, name)
	return nil
}

// PersistIndexChange re-saves a table's meta after an index was added or dropped,
// using the same crash-consistent write as CreateTable.
func (c *Catalog) PersistIndexChange(m *record.TableMeta) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return metafile.Save(c.BaseDir, m)
}

// CreateView registers a new view, persisting the whole view system table
// (spec.md §6's `__miniob_views__`) after the addition.
func (c *Catalog) CreateView(v View) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.tables[v.Name]; exists {
		return fmt.Errorf("catalog: name %s is already a table", v.Name)
	}
	if _, exists := c.views[v.Name]; exists {
		return fmt.Errorf("catalog: view %s already exists", v.Name)
	}
	c.views[v.Name] = &v
	return c.saveViewsLocked()
}

// DropView removes a view and re-persists the view system table.
func (c *Catalog) DropView(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.views[name]; !exists {
		return fmt.Errorf("catalog: view %s does not exist", name)
	}
	delete(c.views, name)
	return c.saveViewsLocked()
}

func (c *Catalog) saveViewsLocked() error {
	all := make([]View, 0, len(c.views))
	for _, v := range c.views {
		all = append(all, *v)
	}
	return saveViews(c.BaseDir, all)
}

// ResolveViewDependencies returns every view named in names, plus any
// further views those views reference (transitively), ordered so a view's
// base views appear before it — the order CreateView's binder must resolve
// definitions in, and the order a DROP cascade would need to consider.
// Returns an empty slice if a cycle is detected (view A depends on view B
// depends on view A).
func (c *Catalog) ResolveViewDependencies(names []string) []View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	var all []View
	var walk func(string)
	walk = func(name string) {
		if seen[name] {
			return
		}
		v, ok := c.views[name]
		if !ok {
			return
		}
		seen[name] = true
		all = append(all, *v)
		for _, base := range v.BaseTables {
			walk(base)
		}
	}
	for _, name := range names {
		walk(name)
	}

	deps := make(map[string][]string, len(all))
	for _, v := range all {
		deps[v.Name] = v.BaseTables
	}
	return topologicalSort(all, deps, func(v View) string { return v.Name })
}
