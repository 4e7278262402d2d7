package chatkittest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) roleRoutes(r chi.Router) {
	r.Post("/roles", s.createRole)
	r.Get("/roles", s.listRoles)
	r.Delete("/roles/{name}/scope/{scope}", s.deleteRole)
	r.Get("/roles/{name}/scope/{scope}/permissions", s.getRolePermissions)
	r.Put("/roles/{name}/scope/{scope}/permissions", s.updateRolePermissions)

	r.Get("/users/{userID}/roles", s.getUserRoles)
	r.Put("/users/{userID}/roles", s.assignUserRole)
	r.Delete("/users/{userID}/roles", s.removeUserRole)
}

type roleDocument struct {
	Name        string   `json:"name"`
	Scope       string   `json:"scope"`
	Permissions []string `json:"permissions"`
}

func validScope(scope string) bool {
	return scope == "global" || scope == "room"
}

// scopeParam reads the scope path parameter, answering 400 when it is not
// a known scope.
func scopeParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	scope := param(r, "scope")
	if !validScope(scope) {
		writeBadRequest(w, "scope must be global or room")
		return "", false
	}
	return scope, true
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string    `json:"name"`
		Scope       string    `json:"scope"`
		Permissions *[]string `json:"permissions"`
	}
	if err := readJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	if req.Name == "" || req.Permissions == nil {
		writeBadRequest(w, "A role requires a name and permissions")
		return
	}
	if !validScope(req.Scope) {
		writeBadRequest(w, "scope must be global or room")
		return
	}

	if err := s.store.createRole(role{Name: req.Name, Scope: req.Scope, Permissions: *req.Permissions}); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	roles := s.store.listRoles()
	out := make([]roleDocument, 0, len(roles))
	for _, rl := range roles {
		out = append(out, roleDocument{Name: rl.Name, Scope: rl.Scope, Permissions: nonNil(rl.Permissions)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeParam(w, r)
	if !ok {
		return
	}
	if err := s.store.deleteRole(param(r, "name"), scope); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getRolePermissions(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeParam(w, r)
	if !ok {
		return
	}
	perms, err := s.store.rolePermissions(param(r, "name"), scope)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(perms))
}

func (s *Server) updateRolePermissions(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Add    []string `json:"add_permissions"`
		Remove []string `json:"remove_permissions"`
	}
	if err := readJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	if len(req.Add) == 0 && len(req.Remove) == 0 {
		writeBadRequest(w, "add_permissions or remove_permissions is required")
		return
	}

	if err := s.store.updateRolePermissions(param(r, "name"), scope, req.Add, req.Remove); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getUserRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.store.userRoles(param(r, "userID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	type userRoleDocument struct {
		RoleName    string   `json:"role_name"`
		Scope       string   `json:"scope"`
		RoomID      string   `json:"room_id,omitempty"`
		Permissions []string `json:"permissions"`
	}
	out := make([]userRoleDocument, 0, len(roles))
	for _, ur := range roles {
		out = append(out, userRoleDocument{
			RoleName:    ur.RoleName,
			Scope:       ur.Scope,
			RoomID:      ur.RoomID,
			Permissions: nonNil(ur.Permissions),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) assignUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		RoomID string `json:"room_id"`
	}
	if err := readJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "A role name is required")
		return
	}

	if err := s.store.assignRole(param(r, "userID"), req.Name, req.RoomID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) removeUserRole(w http.ResponseWriter, r *http.Request) {
	if err := s.store.removeRole(param(r, "userID"), r.URL.Query().Get("room_id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
