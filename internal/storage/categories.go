package storage

import (
	"context"
	"log/slog"
)

// CategoryTable caches the YouTube category ID -> name mapping.
type CategoryTable struct {
	path   string
	logger *slog.Logger
}

// NewCategoryTable returns a table backed by the JSON file at path.
func NewCategoryTable(path string, logger *slog.Logger) *CategoryTable {
	return &CategoryTable{path: path, logger: discardLogger(logger)}
}

// Path returns the backing file path.
func (c *CategoryTable) Path() string { return c.path }

// All returns the cached table; it is empty before the first refresh.
func (c *CategoryTable) All(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table := make(map[string]string)
	if _, err := ReadJSONFile(c.path, &table); err != nil {
		return nil, &StorageError{Op: "read", Entity: "categories", Err: err}
	}
	if table == nil {
		table = make(map[string]string)
	}
	return table, nil
}

// Lookup returns the category name for id.
func (c *CategoryTable) Lookup(ctx context.Context, id string) (string, bool, error) {
	table, err := c.All(ctx)
	if err != nil {
		return "", false, err
	}
	name, ok := table[id]
	return name, ok, nil
}

// Replace overwrites the whole table.
func (c *CategoryTable) Replace(ctx context.Context, table map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if table == nil {
		table = map[string]string{}
	}
	if err := WriteJSONFile(c.path, table); err != nil {
		return &StorageError{Op: "write", Entity: "categories", Err: err}
	}
	c.logger.Debug("categories saved", "path", c.path, "entries", len(table))
	return nil
}

// NeedsRefresh reports whether Refresh would call its fetch function.
func (c *CategoryTable) NeedsRefresh(ctx context.Context, force bool) (bool, error) {
	if force {
		return true, nil
	}
	table, err := c.All(ctx)
	if err != nil {
		return false, err
	}
	return len(table) == 0, nil
}

// Refresh fetches and replaces the table when it is empty or force is set,
// and is a no-op otherwise. It reports whether a fetch happened.
func (c *CategoryTable) Refresh(ctx context.Context, force bool, fetch func(context.Context) (map[string]string, error)) (bool, error) {
	needed, err := c.NeedsRefresh(ctx, force)
	if err != nil || !needed {
		return false, err
	}
	table, err := fetch(ctx)
	if err != nil {
		return false, err
	}
	if err := c.Replace(ctx, table); err != nil {
		return false, err
	}
	return true, nil
}
