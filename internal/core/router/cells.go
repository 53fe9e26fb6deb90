package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	obs "github.com/mohammed-shakir/pogo-s2-overlay/internal/core/observability"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

type cellView struct {
	Key       string             `json:"key"`
	Face      s2cell.Face        `json:"face"`
	I         int                `json:"i"`
	J         int                `json:"j"`
	Level     int                `json:"level"`
	Center    s2cell.GeoPoint    `json:"center"`
	Corners   [4]s2cell.GeoPoint `json:"corners"`
	Neighbors []string           `json:"neighbors"`
	Token     string             `json:"token"`
}

func viewOf(c s2cell.Cell) cellView {
	ns := c.Neighbors()
	keys := make([]string, 0, len(ns))
	for _, n := range ns {
		keys = append(keys, n.String())
	}
	return cellView{
		Key:       c.String(),
		Face:      c.Face,
		I:         c.I,
		J:         c.J,
		Level:     c.Level,
		Center:    c.Center(),
		Corners:   c.Corners(),
		Neighbors: keys,
		Token:     c.Token(),
	}
}

func (a *API) cellKey(r *http.Request) (s2cell.Cell, error) {
	return s2cell.ParseCell(chi.URLParam(r, "key"))
}

// GET /cells?lat&lng&level
func (a *API) cellAt(w http.ResponseWriter, r *http.Request) {
	p, err := pointParam(r)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	level, err := levelParam(r, a.svc.Levels().GymCell)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, viewOf(s2cell.CellFromPoint(p, level)))
}

// GET /cells/{key}
func (a *API) cell(w http.ResponseWriter, r *http.Request) {
	c, err := a.cellKey(r)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, viewOf(c))
}

// GET /cells/{key}/neighbors
func (a *API) neighbors(w http.ResponseWriter, r *http.Request) {
	c, err := a.cellKey(r)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	ns := c.Neighbors()
	out := make([]cellView, 0, len(ns))
	for _, n := range ns {
		out = append(out, viewOf(n))
	}
	a.writeJSON(w, r, http.StatusOK, out)
}

// GET /cells/{key}/parent?level
func (a *API) parent(w http.ResponseWriter, r *http.Request) {
	c, err := a.cellKey(r)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	level, err := levelParam(r, max(c.Level-1, 0))
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	key, err := a.cells.ToParent(c.String(), level)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, map[string]string{"cell": c.String(), "parent": key})
}

// GET /cells/{key}/children?level
func (a *API) children(w http.ResponseWriter, r *http.Request) {
	c, err := a.cellKey(r)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	level, err := levelParam(r, min(c.Level+1, s2cell.MaxLevel))
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	keys, err := a.cells.ToChildren(c.String(), level)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, map[string]any{"cell": c.String(), "children": keys})
}

// GET /cells/cover?bbox|polygon&level. A polygon wins over a bbox.
func (a *API) cover(w http.ResponseWriter, r *http.Request) {
	level, err := levelParam(r, a.svc.Levels().GymCell)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	rawBBox := strings.TrimSpace(r.URL.Query().Get("bbox"))
	rawPoly := strings.TrimSpace(r.URL.Query().Get("polygon"))
	if rawBBox != "" && rawPoly != "" {
		a.log.WarnContext(r.Context(), "both bbox and polygon supplied; preferring polygon")
		rawBBox = ""
	}

	var keys model.Cells
	switch {
	case rawPoly != "":
		poly, perr := parsePolygon(rawPoly)
		if perr != nil {
			a.badRequest(w, r, fmt.Errorf("invalid polygon: %w", perr))
			return
		}
		keys, err = a.cells.CellsForPolygon(poly, level)
	case rawBBox != "":
		bb, berr := parseBBOX(rawBBox)
		if berr != nil {
			a.badRequest(w, r, fmt.Errorf("invalid bbox: %w", berr))
			return
		}
		keys, err = a.cells.CellsForBBox(bb, level)
	default:
		a.badRequest(w, r, fmt.Errorf("one of bbox or polygon is required"))
		return
	}
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	obs.AddCellsRendered("cover", len(keys))
	a.writeJSON(w, r, http.StatusOK, map[string]any{"level": level, "cells": keys})
}
