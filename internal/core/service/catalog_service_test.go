package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
)

func TestCatalogService_GetCourse(t *testing.T) {
	api := newStubAPI()
	api.respond(courseRoute("7"), row{"id": 7, "title": "Go"})
	api.fail(courseRoute("8"), errServer)
	svc := NewCatalogService(api, zerolog.Nop())
	ctx := context.Background()

	c, err := svc.GetCourse(ctx, 7)
	if err != nil || c.Title != "Go" {
		t.Fatalf("unexpected result %+v %v", c, err)
	}
	if _, err := svc.GetCourse(ctx, 9); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetCourse(ctx, 8); err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestCatalogService_ListingsDegradeToEmpty(t *testing.T) {
	api := newStubAPI()
	api.fail("GET /api/Courses", errServer)
	svc := NewCatalogService(api, zerolog.Nop())
	ctx := context.Background()

	if got := svc.ListCourses(ctx); got == nil || len(got) != 0 {
		t.Fatalf("expected empty courses, got %v", got)
	}
	if got := svc.ListQuizzes(ctx, 3); got == nil || len(got) != 0 {
		t.Fatalf("expected empty quizzes, got %v", got)
	}
}

func TestCatalogService_ListChaptersFiltersByCourse(t *testing.T) {
	api := newStubAPI()
	api.respond("GET /api/Chapter?courseId=7", []row{
		{"id": 1, "courseId": 7, "title": "intro"},
		{"id": 2, "courseId": 8, "title": "other"},
	})
	svc := NewCatalogService(api, zerolog.Nop())

	got := svc.ListChapters(context.Background(), 7)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("unexpected chapters %+v", got)
	}
}
