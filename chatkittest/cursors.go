package chatkittest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Only read cursors (type 0) exist.
func (s *Server) cursorRoutes(r chi.Router) {
	r.Route("/cursors/0", func(r chi.Router) {
		r.Put("/rooms/{roomID}/users/{userID}", s.setCursor)
		r.Get("/rooms/{roomID}/users/{userID}", s.getCursor)
		r.Get("/rooms/{roomID}", s.roomCursors)
		r.Get("/users/{userID}", s.userCursors)
	})
}

func (s *Server) setCursor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position *int `json:"position"`
	}
	if err := readJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	if req.Position == nil || *req.Position < 0 {
		writeBadRequest(w, "position must be a message id")
		return
	}

	if err := s.store.setCursor(param(r, "roomID"), param(r, "userID"), *req.Position); err != nil {
		writeStoreError(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, []byte("{}"))
}

func (s *Server) getCursor(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.getCursor(param(r, "roomID"), param(r, "userID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, cursorDocument(c))
}

func (s *Server) roomCursors(w http.ResponseWriter, r *http.Request) {
	roomID := param(r, "roomID")
	cursors := s.store.findCursors(func(c cursor) bool { return c.RoomID == roomID })
	writeRaw(w, http.StatusOK, documentList(cursors, cursorDocument))
}

func (s *Server) userCursors(w http.ResponseWriter, r *http.Request) {
	userID := param(r, "userID")
	cursors := s.store.findCursors(func(c cursor) bool { return c.UserID == userID })
	writeRaw(w, http.StatusOK, documentList(cursors, cursorDocument))
}
