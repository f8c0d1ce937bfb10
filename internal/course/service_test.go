// AngelaMos | 2026
// service_test.go

package course

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/coursemarket/internal/core"
)

var (
	teacher = Caller{UserID: "teacher-1", Role: "user"}
	other   = Caller{UserID: "teacher-2", Role: "user"}
	admin   = Caller{UserID: "admin-1", Role: "admin"}
)

func testCategories() *StaticCategories {
	cats := NewStaticCategories()
	cats.AddCategory(Category{ID: "dev", Name: "Development"})
	cats.AddCategory(Category{ID: "biz", Name: "Business"})
	cats.AddSubCategory(SubCategory{ID: "web", CategoryID: "dev", Name: "Web"})
	return cats
}

func newTestService() *Service {
	return NewService(NewMemoryStore(), testCategories())
}

func validRequest() CreateCourseRequest {
	return CreateCourseRequest{
		Title:             "Go in Practice",
		Subtitle:          "Services that stay up",
		CategoryID:        "dev",
		SubCategoryID:     "web",
		Topic:             "go",
		Language:          "en",
		SubtitleLanguages: []string{"en", "fr"},
		Level:             LevelBeginner,
		Duration:          90,
	}
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	appErr, ok := core.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, status, appErr.StatusCode)
}

func TestCreateDefaultsTeacherAndResolvesTaxonomy(t *testing.T) {
	svc := newTestService()

	detail, err := svc.Create(context.Background(), teacher, validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, detail.ID)
	assert.Equal(t, teacher.UserID, detail.TeacherID)
	assert.Equal(t, []string{"en", "fr"}, detail.SubtitleLanguages)
	require.NotNil(t, detail.Category)
	assert.Equal(t, "Development", detail.Category.Name)
	require.NotNil(t, detail.SubCategory)
	assert.Equal(t, "Web", detail.SubCategory.Name)
}

func TestCreateExplicitTeacher(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	req := validRequest()
	req.TeacherID = "someone-else"
	detail, err := svc.Create(ctx, admin, req)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", detail.TeacherID)

	_, err = svc.Create(ctx, teacher, req)
	assert.ErrorIs(t, err, core.ErrForbidden)

	req.TeacherID = teacher.UserID
	detail, err = svc.Create(ctx, teacher, req)
	require.NoError(t, err)
	assert.Equal(t, teacher.UserID, detail.TeacherID)
}

func TestCreateLevelValidation(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{LevelBeginner, false},
		{LevelIntermediate, false},
		{LevelAdvanced, false},
		{"EXPERT", true},
		{"advanced", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			svc := newTestService()
			req := validRequest()
			req.Level = tt.level

			_, err := svc.Create(context.Background(), teacher, req)
			if tt.wantErr {
				requireStatus(t, err, http.StatusBadRequest)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCreateRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateCourseRequest)
	}{
		{"missing title", func(r *CreateCourseRequest) { r.Title = "" }},
		{"missing subtitle", func(r *CreateCourseRequest) { r.Subtitle = "" }},
		{"missing topic", func(r *CreateCourseRequest) { r.Topic = "" }},
		{"missing language", func(r *CreateCourseRequest) { r.Language = "" }},
		{"missing subtitle languages", func(r *CreateCourseRequest) { r.SubtitleLanguages = nil }},
		{"zero duration", func(r *CreateCourseRequest) { r.Duration = 0 }},
		{"negative duration", func(r *CreateCourseRequest) { r.Duration = -5 }},
		{"unknown category", func(r *CreateCourseRequest) { r.CategoryID = "art" }},
		{"unknown sub-category", func(r *CreateCourseRequest) { r.SubCategoryID = "oil" }},
		{"sub-category of another category", func(r *CreateCourseRequest) { r.CategoryID = "biz" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService()
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), teacher, req)
			requireStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestCreateWithoutAnyTeacher(t *testing.T) {
	svc := newTestService()

	_, err := svc.Create(context.Background(), Caller{}, validRequest())
	requireStatus(t, err, http.StatusBadRequest)
}

func TestDeleteHidesCourse(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	kept, err := svc.Create(ctx, teacher, validRequest())
	require.NoError(t, err)
	gone, err := svc.Create(ctx, teacher, validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, teacher, gone.ID))

	_, err = svc.GetByID(ctx, gone.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.ID, all[0].ID)

	assert.NoError(t, svc.Delete(ctx, teacher, gone.ID))
	assert.ErrorIs(t, svc.Delete(ctx, teacher, "missing"), core.ErrNotFound)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpdatePartial(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, teacher, validRequest())
	require.NoError(t, err)

	title := "Go in Production"
	langs := []string{"de"}
	duration := 120
	got, err := svc.Update(ctx, teacher, created.ID, UpdateCourseRequest{
		Title:             &title,
		SubtitleLanguages: &langs,
		Duration:          &duration,
	})
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, "Services that stay up", got.Subtitle)
	assert.Equal(t, []string{"de"}, []string(got.SubtitleLanguages))
	assert.Equal(t, 120, got.Duration)

	same, err := svc.Update(ctx, teacher, created.ID, UpdateCourseRequest{})
	require.NoError(t, err)
	assert.Equal(t, title, same.Title)
}

func TestUpdateStoresLevelAsSent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, teacher, validRequest())
	require.NoError(t, err)

	level := "EXPERT"
	got, err := svc.Update(ctx, teacher, created.ID, UpdateCourseRequest{Level: &level})
	require.NoError(t, err)
	assert.Equal(t, "EXPERT", got.Level)
}

func TestUpdateTombstonedCourse(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, teacher, validRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, teacher, created.ID))

	title := "revived"
	_, err = svc.Update(ctx, teacher, created.ID, UpdateCourseRequest{Title: &title})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestOwnershipRules(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, teacher, validRequest())
	require.NoError(t, err)

	title := "hijacked"
	_, err = svc.Update(ctx, other, created.ID, UpdateCourseRequest{Title: &title})
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, other, created.ID), core.ErrForbidden)

	title = "moderated"
	got, err := svc.Update(ctx, admin, created.ID, UpdateCourseRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "moderated", got.Title)
	assert.NoError(t, svc.Delete(ctx, admin, created.ID))
}

func TestOwnershipAppliesToTombstonedCourse(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, teacher, validRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, teacher, created.ID))

	assert.ErrorIs(t, svc.Delete(ctx, other, created.ID), core.ErrForbidden)
	assert.NoError(t, svc.Delete(ctx, teacher, created.ID))
	assert.NoError(t, svc.Delete(ctx, admin, created.ID))
}
