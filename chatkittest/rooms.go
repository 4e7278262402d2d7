package chatkittest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) roomRoutes(r chi.Router) {
	r.Post("/rooms", s.createRoom)
	r.Get("/rooms", s.listRooms)
	r.Get("/rooms/{roomID}", s.getRoom)
	r.Put("/rooms/{roomID}", s.updateRoom)
	r.Delete("/rooms/{roomID}", s.deleteRoom)
	r.Put("/rooms/{roomID}/users/add", s.addRoomUsers)
	r.Put("/rooms/{roomID}/users/remove", s.removeRoomUsers)
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID         *string         `json:"id"`
		Name       string          `json:"name"`
		Private    bool            `json:"private"`
		CustomData json.RawMessage `json:"custom_data"`
		UserIDs    []string        `json:"user_ids"`
	}
	if err := readJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "A room requires a name")
		return
	}
	if req.ID != nil && *req.ID == "" {
		writeBadRequest(w, "A room id cannot be empty")
		return
	}

	creator := actingUser(r)
	if _, err := s.store.getUser(creator); err != nil {
		writeStoreError(w, err)
		return
	}

	rm := room{
		CreatedByID: creator,
		Name:        req.Name,
		Private:     req.Private,
		CustomData:  req.CustomData,
		Members:     append([]string{creator}, req.UserIDs...),
	}
	if req.ID != nil {
		rm.ID = *req.ID
	}

	created, err := s.store.createRoom(rm)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, roomDocument(created))
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rooms := s.store.listRooms(q.Get("from_id"), q.Get("include_private") == "true")
	writeRaw(w, http.StatusOK, documentList(rooms, roomDocument))
}

func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	rm, err := s.store.getRoom(param(r, "roomID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, roomDocument(rm))
}

func (s *Server) updateRoom(w http.ResponseWriter, r *http.Request) {
	var update roomUpdate
	if err := readJSON(r, &update); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	if err := s.store.updateRoom(param(r, "roomID"), update); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteRoom(param(r, "roomID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addRoomUsers(w http.ResponseWriter, r *http.Request) {
	s.changeMembers(w, r, s.store.addMembers)
}

func (s *Server) removeRoomUsers(w http.ResponseWriter, r *http.Request) {
	s.changeMembers(w, r, s.store.removeMembers)
}

func (s *Server) changeMembers(w http.ResponseWriter, r *http.Request, apply func(string, []string) error) {
	var req struct {
		UserIDs []string `json:"user_ids"`
	}
	if err := readJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	if len(req.UserIDs) == 0 {
		writeBadRequest(w, "user_ids must not be empty")
		return
	}
	if err := apply(param(r, "roomID"), req.UserIDs); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
