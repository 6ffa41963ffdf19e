package http

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"gameradar/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.catalog.Snapshot()).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		FromError(err).Write(w)
		return
	}
	cat, err := s.catalog.AddCategory(r.Context(), p.Get("name"))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(cat).Write(w)
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.catalog.Category(id); !ok {
		NotFoundError("unknown category " + id).Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		FromError(err).Write(w)
		return
	}
	if err := s.catalog.RenameCategory(r.Context(), id, p.Get("name")); err != nil {
		FromError(err).Write(w)
		return
	}

	cat, _ := s.catalog.Category(id)
	NewResponse().JSON(cat).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.catalog.Category(id); !ok {
		NotFoundError("unknown category " + id).Write(w)
		return
	}
	s.catalog.DeleteCategory(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveGame(w http.ResponseWriter, r *http.Request) {
	catID, placeID := r.PathValue("id"), r.PathValue("placeId")
	if !s.catalog.RemoveGame(r.Context(), catID, placeID) {
		NotFoundError(fmt.Sprintf("place %s is not in category %s", placeID, catID)).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddGame resolves a game page URL and files it under Default.
func (s *Server) handleAddGame(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		FromError(err).Write(w)
		return
	}
	rawURL, err := p.Require("url")
	if err != nil {
		FromError(err).Write(w)
		return
	}

	g, err := s.games.AddGame(r.Context(), rawURL)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Add game failed",
			log.FieldOperation, log.OpCreate,
			log.FieldError, err.Error())
		FromError(err).Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.gamesAdded, 1)
	s.structured.LogGameAdded(r.Context(), g.PlaceID, g.UniverseID, g.Name, g.LastUpdated)
	NewResponse().Status(http.StatusCreated).JSON(g).Write(w)
}

// handleMoveGame moves a game to another category. "from" may be omitted,
// in which case the game's current category is used.
func (s *Server) handleMoveGame(w http.ResponseWriter, r *http.Request) {
	placeID := r.PathValue("placeId")

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		FromError(err).Write(w)
		return
	}
	to, err := p.Require("to")
	if err != nil {
		FromError(err).Write(w)
		return
	}

	from := p.Get("from")
	if from == "" {
		current, _, found := s.catalog.FindGame(placeID)
		if !found {
			NotFoundError("unknown place " + placeID).Write(w)
			return
		}
		from = current
	}
	if from == to {
		BadRequestError("game is already in that category").Write(w)
		return
	}

	if !s.catalog.MoveGame(r.Context(), placeID, from, to) {
		NotFoundError(fmt.Sprintf("cannot move place %s from %s to %s", placeID, from, to)).Write(w)
		return
	}
	cat, _ := s.catalog.Category(to)
	NewResponse().JSON(cat).Write(w)
}
