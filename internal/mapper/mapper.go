// Package mapper converts between geometric coordinates and grid cells.
package mapper

import (
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
)

type Interface interface {
	CellsForBBox(bb model.BBox, level int) (model.Cells, error)
	CellsForPolygon(poly model.Polygon, level int) (model.Cells, error)
}
