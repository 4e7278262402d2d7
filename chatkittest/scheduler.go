package chatkittest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// The scheduler deletes synchronously and records a completed job, so a
// status poll right after the request already sees the final state.
func (s *Server) schedulerRoutes(r chi.Router) {
	r.Put("/users/{userID}", s.scheduleDelete(func(r *http.Request) error {
		return s.store.deleteUser(param(r, "userID"))
	}))
	r.Put("/rooms/{roomID}", s.scheduleDelete(func(r *http.Request) error {
		return s.store.deleteRoom(param(r, "roomID"))
	}))
	r.Get("/status/{jobID}", s.jobStatus)
}

func (s *Server) scheduleDelete(del func(*http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := del(r); err != nil {
			writeStoreError(w, err)
			return
		}
		j := s.store.putJob("completed")
		writeJSON(w, http.StatusAccepted, map[string]string{"id": j.ID, "status": j.Status})
	}
}

func (s *Server) jobStatus(w http.ResponseWriter, r *http.Request) {
	j, err := s.store.getJob(param(r, "jobID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": j.ID, "status": j.Status})
}
