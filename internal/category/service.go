package category

import (
	"context"
	"sort"
)

// Defaults are always offered, even before any product uses them.
var Defaults = []string{"Holz", "Stein", "Schmuck"}

// Source yields the categories currently assigned to products.
type Source interface {
	Categories(ctx context.Context) ([]string, error)
}

type Service struct {
	source Source
}

func NewService(source Source) *Service {
	return &Service{source: source}
}

// List returns the defaults merged with the used categories, de-duplicated
// and sorted.
func (s *Service) List(ctx context.Context) ([]string, error) {
	used, err := s.source.Categories(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(Defaults)+len(used))
	out := make([]string, 0, len(Defaults)+len(used))
	for _, name := range append(append([]string{}, Defaults...), used...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
