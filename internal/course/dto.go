// AngelaMos | 2026
// dto.go

package course

import (
	"time"
)

// CreateCourseRequest leaves TeacherID optional; the service fills it
// with the caller's id.
type CreateCourseRequest struct {
	TeacherID         string   `json:"teacherId"`
	Title             string   `json:"title"             validate:"required,max=255"`
	Subtitle          string   `json:"subtitle"          validate:"required,max=255"`
	CategoryID        string   `json:"categoryId"        validate:"required"`
	SubCategoryID     string   `json:"subCategoryId"     validate:"required"`
	Topic             string   `json:"topic"             validate:"required"`
	Language          string   `json:"language"          validate:"required"`
	SubtitleLanguages []string `json:"subtitleLanguages" validate:"required"`
	Level             string   `json:"level"             validate:"required,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Duration          int      `json:"duration"          validate:"required,gt=0"`
}

// UpdateCourseRequest is a partial update. Level is stored as sent.
type UpdateCourseRequest struct {
	Title             *string   `json:"title,omitempty"`
	Subtitle          *string   `json:"subtitle,omitempty"`
	CategoryID        *string   `json:"categoryId,omitempty"`
	SubCategoryID     *string   `json:"subCategoryId,omitempty"`
	Topic             *string   `json:"topic,omitempty"`
	Language          *string   `json:"language,omitempty"`
	SubtitleLanguages *[]string `json:"subtitleLanguages,omitempty"`
	Level             *string   `json:"level,omitempty"`
	Duration          *int      `json:"duration,omitempty"`
}

type CourseResponse struct {
	ID                string    `json:"id"`
	TeacherID         string    `json:"teacherId"`
	Title             string    `json:"title"`
	Subtitle          string    `json:"subtitle"`
	CategoryID        string    `json:"categoryId"`
	SubCategoryID     string    `json:"subCategoryId"`
	Topic             string    `json:"topic"`
	Language          string    `json:"language"`
	SubtitleLanguages []string  `json:"subtitleLanguages"`
	Level             string    `json:"level"`
	Duration          int       `json:"duration"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type CourseDetail struct {
	CourseResponse
	Category    *Category    `json:"category"`
	SubCategory *SubCategory `json:"subCategory"`
}

type CreateCourseResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    CourseDetail `json:"data"`
}

func ToCourseResponse(c *Course) CourseResponse {
	langs := []string(c.SubtitleLanguages)
	if langs == nil {
		langs = []string{}
	}
	return CourseResponse{
		ID:                c.ID,
		TeacherID:         c.TeacherID,
		Title:             c.Title,
		Subtitle:          c.Subtitle,
		CategoryID:        c.CategoryID,
		SubCategoryID:     c.SubCategoryID,
		Topic:             c.Topic,
		Language:          c.Language,
		SubtitleLanguages: langs,
		Level:             c.Level,
		Duration:          c.Duration,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func ToCourseResponseList(courses []Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		responses = append(responses, ToCourseResponse(&c))
	}
	return responses
}
