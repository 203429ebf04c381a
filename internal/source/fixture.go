package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var fixtureExtensions = []string{".yaml", ".yml", ".json"}

// FixtureQuerier serves resources from <dir>/<resource>.{yaml,yml,json}.
// It backs local development and demos without a hosted backend.
type FixtureQuerier struct {
	dir string
}

func NewFixtureQuerier(dir string) *FixtureQuerier {
	return &FixtureQuerier{dir: dir}
}

func (q *FixtureQuerier) Query(ctx context.Context, res Resource) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, ext := range fixtureExtensions {
		path := filepath.Join(q.dir, res.Name+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var rows []Row
		if err := yaml.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if res.Limit > 0 && len(rows) > res.Limit {
			rows = rows[:res.Limit]
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%s: %w", res.Name, ErrAbsent)
}
