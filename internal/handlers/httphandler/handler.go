package httphandler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/julienschmidt/httprouter"

	"github.com/mounirtms/techno-etl/internal/database"
	"github.com/mounirtms/techno-etl/internal/version"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// Handler exposes the running service: version on the root and the
// job checkpoint state for operators watching a long migration.
type Handler struct {
	DB *sqlx.DB
}

func (h *Handler) Register(router *httprouter.Router) {
	router.GET("/", h.HandlerVersion)
	router.GET("/jobs/:id", h.HandlerJobStatus)
}

func (h *Handler) HandlerVersion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := logging.GetLogger()
	logger.Debug("Start HandlerVersion")
	defer logger.Debug("End HandlerVersion")

	v := version.GetVersion()
	_, err := fmt.Fprintf(w, "Version %s", v.String())
	if err != nil {
		logger.Errorf("failed to send response, error: %v", err)
	}
}

type jobStatusResponse struct {
	Job      *database.Job  `json:"job"`
	Outcomes map[string]int `json:"outcomes"`
}

func (h *Handler) HandlerJobStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := logging.GetLogger()
	logger.Debug("Start HandlerJobStatus")
	defer logger.Debug("End HandlerJobStatus")

	id := ps.ByName("id")

	job, err := database.GetJob(h.DB, id)
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	outcomes, err := database.CountOutcomes(h.DB, id)
	if err != nil {
		logger.Errorf("failed counting outcomes for %s: %v", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(jobStatusResponse{Job: job, Outcomes: outcomes}); err != nil {
		logger.Errorf("failed to send response, error: %v", err)
	}
}
