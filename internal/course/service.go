// AngelaMos | 2026
// service.go

package course

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/carterperez-dev/coursemarket/internal/core"
	"github.com/carterperez-dev/coursemarket/internal/lifecycle"
)

// Caller is the authenticated identity behind a write.
type Caller struct {
	UserID string
	Role   string
}

func (c Caller) isAdmin() bool {
	return c.Role == "admin"
}

type Service struct {
	courses    *lifecycle.Manager[Course]
	categories CategoryResolver
	validator  *validator.Validate
}

func NewService(store lifecycle.Store[Course], categories CategoryResolver) *Service {
	return &Service{
		courses:    lifecycle.NewManager[Course](store, Table, "course"),
		categories: categories,
		validator:  core.NewValidator(),
	}
}

// Create persists a new course and returns it with its category and
// sub-category resolved.
func (s *Service) Create(
	ctx context.Context,
	caller Caller,
	req CreateCourseRequest,
) (*CourseDetail, error) {
	if req.TeacherID == "" {
		req.TeacherID = caller.UserID
	}
	if req.TeacherID == "" {
		return nil, core.ValidationError("teacherId is required")
	}
	if req.TeacherID != caller.UserID && !caller.isAdmin() {
		return nil, fmt.Errorf("create course for %s: %w", req.TeacherID, core.ErrForbidden)
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	cat, sub, err := s.resolveTaxonomy(ctx, req.CategoryID, req.SubCategoryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	course := &Course{
		ID:                uuid.NewString(),
		TeacherID:         req.TeacherID,
		Title:             req.Title,
		Subtitle:          req.Subtitle,
		CategoryID:        req.CategoryID,
		SubCategoryID:     req.SubCategoryID,
		Topic:             req.Topic,
		Language:          req.Language,
		SubtitleLanguages: pq.StringArray(req.SubtitleLanguages),
		Level:             req.Level,
		Duration:          req.Duration,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.courses.Create(ctx, course); err != nil {
		return nil, err
	}

	return &CourseDetail{
		CourseResponse: ToCourseResponse(course),
		Category:       cat,
		SubCategory:    sub,
	}, nil
}

func (s *Service) resolveTaxonomy(
	ctx context.Context,
	categoryID, subCategoryID string,
) (*Category, *SubCategory, error) {
	cat, err := s.categories.Category(ctx, categoryID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil, core.ValidationError("categoryId does not exist")
	}
	if err != nil {
		return nil, nil, err
	}

	sub, err := s.categories.SubCategory(ctx, subCategoryID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil, core.ValidationError("subCategoryId does not exist")
	}
	if err != nil {
		return nil, nil, err
	}

	if sub.CategoryID != cat.ID {
		return nil, nil, core.ValidationError("subCategoryId does not belong to categoryId")
	}
	return cat, sub, nil
}

func (s *Service) GetAll(ctx context.Context) ([]Course, error) {
	return s.courses.List(ctx, nil)
}

func (s *Service) GetByID(ctx context.Context, id string) (*Course, error) {
	return s.courses.Get(ctx, id)
}

// Update merges the non-nil fields of req into the live course. Values
// are stored as sent.
func (s *Service) Update(
	ctx context.Context,
	caller Caller,
	id string,
	req UpdateCourseRequest,
) (*Course, error) {
	if err := s.authorize(ctx, caller, id); err != nil {
		return nil, err
	}

	patch := lifecycle.Patch{}
	setIf(patch, "title", req.Title)
	setIf(patch, "subtitle", req.Subtitle)
	setIf(patch, "category_id", req.CategoryID)
	setIf(patch, "sub_category_id", req.SubCategoryID)
	setIf(patch, "topic", req.Topic)
	setIf(patch, "language", req.Language)
	setIf(patch, "level", req.Level)
	setIf(patch, "duration", req.Duration)
	if req.SubtitleLanguages != nil {
		patch["subtitle_languages"] = pq.StringArray(*req.SubtitleLanguages)
	}

	if len(patch) == 0 {
		return s.courses.Get(ctx, id)
	}
	return s.courses.Update(ctx, id, patch)
}

// Delete tombstones the course. A course that is already tombstoned is
// re-stamped.
func (s *Service) Delete(ctx context.Context, caller Caller, id string) error {
	if err := s.authorize(ctx, caller, id); err != nil {
		return err
	}
	return s.courses.Delete(ctx, id)
}

// authorize lets the owning teacher and admins change a course, live or
// tombstoned. Unknown ids pass so the store reports the outcome.
func (s *Service) authorize(ctx context.Context, caller Caller, id string) error {
	if caller.isAdmin() {
		return nil
	}

	course, err := s.courses.GetWithDeleted(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !course.OwnedBy(caller.UserID) {
		return fmt.Errorf("modify course %s: %w", id, core.ErrForbidden)
	}
	return nil
}

// Count reports the number of live courses.
func (s *Service) Count(ctx context.Context) (int, error) {
	courses, err := s.courses.List(ctx, nil)
	if err != nil {
		return 0, err
	}
	return len(courses), nil
}

func setIf[V any](patch lifecycle.Patch, column string, v *V) {
	if v != nil {
		patch[column] = *v
	}
}
