package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"polling-job-service/internal/entity"
	"polling-job-service/internal/jobproc"
	"polling-job-service/internal/service"
	"polling-job-service/internal/store"
)

type Handler struct {
	store store.Store
	coord *service.Coordinator

	weather jobproc.Processor
	lottery jobproc.Processor
	echo    jobproc.Processor
}

func NewHandler(st store.Store, coord *service.Coordinator, weather, lottery, echo jobproc.Processor) *Handler {
	return &Handler{
		store:   st,
		coord:   coord,
		weather: weather,
		lottery: lottery,
		echo:    echo,
	}
}

type submitResp struct {
	JobID string `json:"jobId"`
}

type statusResp struct {
	JobID  string           `json:"jobId"`
	Status entity.JobStatus `json:"status"`
}

func (h *Handler) accept(w http.ResponseWriter, job *entity.Job) {
	w.Header().Set("Location", "/jobs/"+job.ID)
	setRetryAfter(w)
	writeJSON(w, http.StatusAccepted, submitResp{JobID: job.ID})
}

// SubmitWeather godoc
// @Summary Submit a weather forecast job
// @Description Returns 202 with a token immediately; poll /jobs/{id} for the result.
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body jobproc.WeatherRequest true "forecast request"
// @Success 202 {object} submitResp
// @Failure 400 {object} apiError
// @Router /jobs/weather [post]
func (h *Handler) SubmitWeather(w http.ResponseWriter, r *http.Request) {
	var req jobproc.WeatherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.City == "" {
		writeErr(w, http.StatusBadRequest, "city is required")
		return
	}

	input, err := json.Marshal(req)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid input")
		return
	}

	h.accept(w, h.coord.Submit("weather", h.weather, input))
}

// SubmitLottery godoc
// @Summary Submit a lottery draw job
// @Tags jobs
// @Produce json
// @Success 202 {object} submitResp
// @Router /jobs/lottery [post]
func (h *Handler) SubmitLottery(w http.ResponseWriter, _ *http.Request) {
	h.accept(w, h.coord.Submit("lottery", h.lottery, nil))
}

// SubmitEcho godoc
// @Summary Submit an echo job
// @Description Completes with the submitted payload as the result.
// @Tags jobs
// @Accept json
// @Produce json
// @Success 202 {object} submitResp
// @Failure 400 {object} apiError
// @Router /jobs/echo [post]
func (h *Handler) SubmitEcho(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	h.accept(w, h.coord.Submit("echo", h.echo, payload))
}

// GetJob godoc
// @Summary Poll a job by token
// @Tags jobs
// @Produce json
// @Param id path string true "job token"
// @Success 200 {object} entity.Job
// @Success 202 {object} statusResp
// @Failure 404 {object} apiError
// @Failure 410 {object} apiError
// @Failure 500 {object} apiError
// @Router /jobs/{id} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job := h.store.Get(id)
	if job == nil {
		h.writeMissing(w, id)
		return
	}

	switch job.Status {
	case entity.StatusCompleted:
		writeJSON(w, http.StatusOK, job)
	case entity.StatusFailed:
		writeErr(w, http.StatusInternalServerError, "job failed: "+job.Message)
	case entity.StatusCanceled:
		writeErr(w, http.StatusGone, "job canceled")
	default:
		setRetryAfter(w)
		writeJSON(w, http.StatusAccepted, statusResp{JobID: job.ID, Status: job.Status})
	}
}

// GetJobResult godoc
// @Summary Get a completed job's result payload
// @Tags jobs
// @Produce json
// @Param id path string true "job token"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} apiError
// @Failure 409 {object} apiError
// @Failure 410 {object} apiError
// @Router /jobs/{id}/result [get]
func (h *Handler) GetJobResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job := h.store.Get(id)
	if job == nil {
		h.writeMissing(w, id)
		return
	}
	if job.Status != entity.StatusCompleted {
		writeErr(w, http.StatusConflict, "job not completed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(job.Data)
}

// CancelJob godoc
// @Summary Cancel a pending or processing job
// @Tags jobs
// @Param id path string true "job token"
// @Success 204
// @Failure 404 {object} apiError
// @Router /jobs/{id} [delete]
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.coord.Cancel(id) {
		writeErr(w, http.StatusNotFound, "job not found or already finished")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PurgeJob godoc
// @Summary Remove a job record regardless of status
// @Tags jobs
// @Param id path string true "job token"
// @Success 204
// @Router /jobs/{id}/record [delete]
func (h *Handler) PurgeJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.store.PurgeJob(id)
	w.WriteHeader(http.StatusNoContent)
}

// writeMissing distinguishes a token that recently expired from one that
// never existed.
func (h *Handler) writeMissing(w http.ResponseWriter, id string) {
	if h.store.WasRecentlyExpired(id) {
		writeErr(w, http.StatusGone, "job expired")
		return
	}
	writeErr(w, http.StatusNotFound, "job not found")
}
