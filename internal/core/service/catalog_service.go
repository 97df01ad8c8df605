package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

const (
	pathChapters = "/api/Chapter"
	pathVideos   = "/api/Video"
	pathQuizzes  = "/api/Quiz"
)

type catalogService struct {
	api ports.RemoteAPI
	log zerolog.Logger
}

// NewCatalogService returns a CatalogService reading through the cached GET
// path. Listing failures degrade to empty results.
func NewCatalogService(api ports.RemoteAPI, log zerolog.Logger) ports.CatalogService {
	return &catalogService{api: api, log: log}
}

func (s *catalogService) ListCourses(ctx context.Context) []domain.CourseDetail {
	var courses []domain.CourseDetail
	if err := s.api.Get(ctx, pathCourses, &courses); err != nil {
		s.logFailure(err, "failed to list courses")
		return []domain.CourseDetail{}
	}
	if courses == nil {
		courses = []domain.CourseDetail{}
	}
	return courses
}

// GetCourse returns domain.ErrNotFound for an unknown id.
func (s *catalogService) GetCourse(ctx context.Context, id int64) (*domain.CourseDetail, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	var course domain.CourseDetail
	if err := s.api.Get(ctx, fmt.Sprintf("%s/%d", pathCourses, id), &course); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		s.log.Error().Err(err).Int64("course_id", id).Msg("failed to fetch course")
		return nil, fmt.Errorf("get course %d: %w", id, err)
	}
	if course.ID == 0 {
		course.ID = id
	}
	return &course, nil
}

func (s *catalogService) ListChapters(ctx context.Context, courseID int64) []domain.Chapter {
	var chapters []domain.Chapter
	if err := s.api.Get(ctx, query(pathChapters, "courseId", courseID), &chapters); err != nil {
		s.logFailure(err, "failed to list chapters")
		return []domain.Chapter{}
	}
	out := make([]domain.Chapter, 0, len(chapters))
	for _, c := range chapters {
		if c.CourseID == 0 || c.CourseID == courseID {
			out = append(out, c)
		}
	}
	return out
}

func (s *catalogService) ListVideos(ctx context.Context, chapterID int64) []domain.Video {
	var videos []domain.Video
	if err := s.api.Get(ctx, query(pathVideos, "chapterId", chapterID), &videos); err != nil {
		s.logFailure(err, "failed to list videos")
		return []domain.Video{}
	}
	if videos == nil {
		videos = []domain.Video{}
	}
	return videos
}

func (s *catalogService) ListQuizzes(ctx context.Context, chapterID int64) []domain.Quiz {
	var quizzes []domain.Quiz
	if err := s.api.Get(ctx, query(pathQuizzes, "chapterId", chapterID), &quizzes); err != nil {
		s.logFailure(err, "failed to list quizzes")
		return []domain.Quiz{}
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	return quizzes
}

// logFailure logs err unless it is a benign not-found.
func (s *catalogService) logFailure(err error, msg string) {
	if errors.Is(err, domain.ErrNotFound) {
		return
	}
	s.log.Error().Err(err).Msg(msg)
}

func query(path, key string, id int64) string {
	v := url.Values{}
	v.Set(key, strconv.FormatInt(id, 10))
	return path + "?" + v.Encode()
}
