package s2mapper

import (
	"fmt"
	"sort"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

func (m *Mapper) ToParent(cell string, parentLevel int) (string, error) {
	if err := validateLevel(parentLevel); err != nil {
		return "", err
	}
	c, err := s2cell.ParseCell(cell)
	if err != nil {
		return "", fmt.Errorf("parse cell: %w", err)
	}
	if parentLevel > c.Level {
		return "", fmt.Errorf("parentLevel %d must be <= cell level %d", parentLevel, c.Level)
	}
	return c.ParentAt(parentLevel).String(), nil
}

func (m *Mapper) ToChildren(cell string, childLevel int) (model.Cells, error) {
	if err := validateLevel(childLevel); err != nil {
		return nil, err
	}
	c, err := s2cell.ParseCell(cell)
	if err != nil {
		return nil, fmt.Errorf("parse cell: %w", err)
	}
	if childLevel < c.Level {
		return nil, fmt.Errorf("childLevel %d must be >= cell level %d", childLevel, c.Level)
	}
	depth := childLevel - c.Level
	limit := m.limit()
	if depth > 15 || 1<<(2*depth) > limit {
		return nil, fmt.Errorf("%w: %d levels below %s", ErrTooManyCells, depth, cell)
	}

	level := []s2cell.Cell{c}
	for d := 0; d < depth; d++ {
		next := make([]s2cell.Cell, 0, len(level)*4)
		for _, p := range level {
			kids := p.Children()
			next = append(next, kids[:]...)
		}
		level = next
	}

	out := make([]string, 0, len(level))
	for _, k := range level {
		out = append(out, k.String())
	}
	// return sorted children
	sort.Strings(out)
	return out, nil
}
