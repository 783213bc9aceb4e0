package httpchi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/gradetracker/internal/grading"
	"github.com/mind-engage/gradetracker/pkg/gradebook"
)

// API exposes health, scale inspection, previews and single-course syncs.
// Syncs are serialised so two requests never reconcile the same cells at once.
type API struct {
	Syncer *gradebook.Syncer
	Scales *grading.Table

	mu       sync.Mutex
	validate *validator.Validate
}

func New(s *gradebook.Syncer, scales *grading.Table) *API {
	return &API{Syncer: s, Scales: scales, validate: validator.New()}
}

func (a *API) Routes(r chi.Router) {
	r.Get("/healthz", a.getHealth)
	r.Get("/scales", a.getScales)
	r.Post("/preview", a.postPreview)
	r.Post("/courses/{courseID}/sync", a.postSync)
}

func (a *API) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) getScales(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Scales.Families())
}

type previewReq struct {
	CourseType string `json:"course_type" validate:"required"`
	Score      string `json:"score" validate:"required"`
}

func (a *API) postPreview(w http.ResponseWriter, r *http.Request) {
	var req previewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := gradebook.NewPreview(a.Scales, req.CourseType, req.Score)
	if errors.Is(err, grading.ErrRejected) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) postSync(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "courseID"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "courseID must be a positive integer", http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	sum, err := a.Syncer.Run(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "summary": sum})
		return
	}
	if len(sum.Courses) == 0 {
		http.Error(w, "course not found or not tracked", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
