package health

import (
	"net/http"
	"time"

	"github.com/hilthontt/chatkit/internal"
	"github.com/hilthontt/chatkit/internal/infrastructure/json"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

type Handler struct {
	now func() time.Time
}

func NewHandler() *Handler {
	return &Handler{now: time.Now}
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	json.Write(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   internal.PackageVersion,
		Timestamp: h.now().UTC(),
	})
}
