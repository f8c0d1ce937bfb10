// AngelaMos | 2026
// handler.go

package course

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/coursemarket/internal/core"
	"github.com/carterperez-dev/coursemarket/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts /courses. Reads are public; writes need a
// valid access token.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/courses", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{courseID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Post("/", h.Create)
			r.Put("/{courseID}", h.Update)
			r.Delete("/{courseID}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToCourseResponseList(courses))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	course, err := h.service.GetByID(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToCourseResponse(course))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.DecodeError(err))
		return
	}

	detail, err := h.service.Create(r.Context(), callerFrom(r), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, CreateCourseResponse{
		Success: true,
		Message: "Course created successfully",
		Data:    *detail,
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.DecodeError(err))
		return
	}

	course, err := h.service.Update(
		r.Context(),
		callerFrom(r),
		chi.URLParam(r, "courseID"),
		req,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToCourseResponse(course))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), callerFrom(r), chi.URLParam(r, "courseID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.Accepted(w, "Delete successfully")
}

func callerFrom(r *http.Request) Caller {
	return Caller{
		UserID: middleware.GetUserID(r.Context()),
		Role:   middleware.GetUserRole(r.Context()),
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "course")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "only the owning teacher can change this course")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid course data")
	default:
		core.InternalServerError(w, err)
	}
}
