package chatkittest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

func (s *Server) userRoutes(r chi.Router) {
	r.Post("/users", s.createUser)
	r.Post("/batch_users", s.createUsers)
	r.Get("/users", s.listUsers)
	r.Get("/users_by_ids", s.usersByIDs)
	r.Get("/users/{userID}", s.getUser)
	r.Put("/users/{userID}", s.updateUser)
	r.Delete("/users/{userID}", s.deleteUser)
	r.Get("/users/{userID}/rooms", s.userRooms)
}

type createUserRequest struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	AvatarURL  string          `json:"avatar_url"`
	CustomData json.RawMessage `json:"custom_data"`
}

func (req createUserRequest) user() (user, bool) {
	if req.ID == "" || req.Name == "" {
		return user{}, false
	}
	return user{ID: req.ID, Name: req.Name, AvatarURL: req.AvatarURL, CustomData: req.CustomData}, true
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := readJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	u, ok := req.user()
	if !ok {
		writeBadRequest(w, "A user requires an id and a name")
		return
	}

	created, err := s.store.createUsers([]user{u})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, userDocument(created[0]))
}

func (s *Server) createUsers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Users []createUserRequest `json:"users"`
	}
	if err := readJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	if len(req.Users) == 0 {
		writeBadRequest(w, "At least one user is required")
		return
	}

	users := make([]user, 0, len(req.Users))
	for _, ru := range req.Users {
		u, ok := ru.user()
		if !ok {
			writeBadRequest(w, "Every user requires an id and a name")
			return
		}
		users = append(users, u)
	}

	created, err := s.store.createUsers(users)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, documentList(created, userDocument))
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	var from time.Time
	if raw := r.URL.Query().Get("from_ts"); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeBadRequest(w, "from_ts must be an RFC 3339 timestamp")
			return
		}
		from = ts
	}

	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	writeRaw(w, http.StatusOK, documentList(s.store.listUsers(from, limit), userDocument))
}

func (s *Server) usersByIDs(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("user_ids")
	if raw == "" {
		writeBadRequest(w, "user_ids is required")
		return
	}
	writeRaw(w, http.StatusOK, documentList(s.store.usersByIDs(strings.Split(raw, ",")), userDocument))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.getUser(param(r, "userID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, userDocument(u))
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id := param(r, "userID")
	if sub := actingUser(r); sub != "" && sub != id {
		writeError(w, http.StatusForbidden, "services/chatkit/forbidden/user_mismatch", "Token subject does not match the user being updated")
		return
	}

	var update userUpdate
	if err := readJSON(r, &update); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	if err := s.store.updateUser(id, update); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteUser(param(r, "userID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) userRooms(w http.ResponseWriter, r *http.Request) {
	userID := param(r, "userID")
	joinable := r.URL.Query().Get("joinable") == "true"

	rooms, err := s.store.userRooms(userID, joinable)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeRaw(w, http.StatusOK, documentList(rooms, func(rm room) []byte {
		doc := roomDocument(rm)
		if !joinable {
			doc = with(doc, "unread_count", s.store.unreadCount(rm.ID, userID))
		}
		return doc
	}))
}

// queryLimit parses the optional limit parameter. Zero means unlimited.
func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeBadRequest(w, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}
