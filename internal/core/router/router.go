// Package router holds the HTTP handlers of the overlay API.
package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/exchange"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/mapper"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/overlay"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/store"
)

// CellMapper covers areas with cells and moves keys between levels.
type CellMapper interface {
	mapper.Interface
	ToParent(cell string, parentLevel int) (string, error)
	ToChildren(cell string, childLevel int) (model.Cells, error)
}

const defaultMaxImportBytes = 32 << 20

type API struct {
	svc            *overlay.Service
	cells          CellMapper
	log            *slog.Logger
	MaxImportBytes int64
}

func New(svc *overlay.Service, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{svc: svc, cells: svc.Mapper(), log: logger, MaxImportBytes: defaultMaxImportBytes}
}

// Mount registers every API route on r.
func (a *API) Mount(r chi.Router) {
	r.Get("/cells", a.cellAt)
	r.Get("/cells/cover", a.cover)
	r.Get("/cells/{key}", a.cell)
	r.Get("/cells/{key}/neighbors", a.neighbors)
	r.Get("/cells/{key}/parent", a.parent)
	r.Get("/cells/{key}/children", a.children)
	r.Post("/cells/{key}/ignore", a.ignore)
	r.Get("/ignored", a.ignored)

	r.Get("/grid", a.grid)
	r.Get("/analysis", a.analysis)
	r.Get("/guess", a.guess)
	r.Get("/gyms/centers", a.gymCenters)
	r.Get("/settings", a.settings)

	r.Get("/pois", a.listPOIs)
	r.Get("/pois/{guid}", a.getPOI)
	r.Put("/pois/{guid}", a.putPOI)
	r.Delete("/pois/{guid}", a.deletePOI)

	r.Get("/export", a.export)
	r.Get("/storage", a.storage)
	r.Post("/import", a.importDoc)
	r.Post("/reset", a.reset)
}

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.WarnContext(r.Context(), "write response", "err", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (a *API) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	a.writeJSON(w, r, http.StatusBadRequest, errorBody{Error: err.Error()})
}

// fail maps service errors to a status code.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, overlay.ErrInvalid), errors.Is(err, exchange.ErrUnsupportedFormat):
		a.badRequest(w, r, err)
	case errors.Is(err, store.ErrNotFound):
		a.writeJSON(w, r, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.writeJSON(w, r, http.StatusServiceUnavailable, errorBody{Error: "request canceled"})
	default:
		a.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		a.writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// POST /cells/{key}/ignore?kind=extra|missing
func (a *API) ignore(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseIgnoreKind(r.URL.Query().Get("kind"))
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	key := chi.URLParam(r, "key")
	if err := a.svc.Ignore(r.Context(), kind, key); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /ignored?kind
func (a *API) ignored(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseIgnoreKind(r.URL.Query().Get("kind"))
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	keys, err := a.svc.Ignored(r.Context(), kind)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, map[string]any{"kind": kind, "cells": keys})
}

// GET /grid?bbox&level
func (a *API) grid(w http.ResponseWriter, r *http.Request) {
	bb, err := requiredBBox(r)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	level, err := levelParam(r, a.svc.Levels().GymCell)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	fc, err := a.svc.Grid(r.Context(), bb, level)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		a.log.WarnContext(r.Context(), "write grid", "err", err)
	}
}

// GET /analysis?bbox
func (a *API) analysis(w http.ResponseWriter, r *http.Request) {
	bb, err := requiredBBox(r)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	res, err := a.svc.Analyze(r.Context(), bb)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, res)
}

// GET /guess?bbox
func (a *API) guess(w http.ResponseWriter, r *http.Request) {
	bb, err := requiredBBox(r)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	res, err := a.svc.Guess(r.Context(), bb)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, res)
}

// GET /gyms/centers?bbox
func (a *API) gymCenters(w http.ResponseWriter, r *http.Request) {
	bb, err := requiredBBox(r)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	res, err := a.svc.GymCenters(r.Context(), bb)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, res)
}

func (a *API) settings(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, r, http.StatusOK, a.svc.Settings())
}

// GET /pois?bbox
func (a *API) listPOIs(w http.ResponseWriter, r *http.Request) {
	bb, err := requiredBBox(r)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	pois, err := a.svc.POIs(r.Context(), bb)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, pois)
}

func (a *API) getPOI(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.POI(r.Context(), chi.URLParam(r, "guid"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, p)
}

// PUT /pois/{guid} with a POI body. The body guid may be omitted.
func (a *API) putPOI(w http.ResponseWriter, r *http.Request) {
	guid := chi.URLParam(r, "guid")
	var p model.POI
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&p); err != nil {
		a.badRequest(w, r, err)
		return
	}
	if p.GUID == "" {
		p.GUID = guid
	}
	if p.GUID != guid {
		a.badRequest(w, r, errors.New("guid in body does not match path"))
		return
	}
	out, err := a.svc.PutPOI(r.Context(), p)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, out)
}

func (a *API) deletePOI(w http.ResponseWriter, r *http.Request) {
	if _, err := a.svc.DeletePOI(r.Context(), chi.URLParam(r, "guid")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /export?format=json|csv&type=gyms|all&bbox
func (a *API) export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := exchange.ParseFormat(q.Get("format"))
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	typ, err := exchange.ParseExportType(q.Get("type"))
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	bb, err := requiredBBox(r)
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	pois, err := a.svc.ExportPOIs(r.Context(), typ, bb)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	switch format {
	case exchange.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="pogo.csv"`)
		if err := exchange.WriteCSV(w, pois); err != nil {
			a.log.WarnContext(r.Context(), "write csv", "err", err)
		}
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="pogo.json"`)
		if err := exchange.EncodeJSON(w, exchange.BuildExport(pois, typ)); err != nil {
			a.log.WarnContext(r.Context(), "write export", "err", err)
		}
	}
}

// GET /storage returns the full storage document.
func (a *API) storage(w http.ResponseWriter, r *http.Request) {
	doc, err := a.svc.Snapshot(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, doc)
}

// POST /import[?replace=true] with a storage document body.
func (a *API) importDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := exchange.DecodeJSON(http.MaxBytesReader(w, r.Body, a.MaxImportBytes))
	if err != nil {
		a.badRequest(w, r, err)
		return
	}
	replace := r.URL.Query().Get("replace") == "true"
	res, err := a.svc.Import(r.Context(), doc, replace)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, res)
}

func (a *API) reset(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Reset(r.Context()); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
