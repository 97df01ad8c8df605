package domain

import "fmt"

const (
	defaultCategory = "Course"
	defaultImage    = "/images/course-img-1.png"
)

// CourseCacheKey is the durable storage key for a learner's course list.
func CourseCacheKey(userID int64) string {
	return fmt.Sprintf("myCourses_%d", userID)
}

// Chapter is a course section as returned by the remote API.
type Chapter struct {
	ID       int64  `json:"id"`
	CourseID int64  `json:"courseId"`
	Title    string `json:"title"`
	Order    int    `json:"order,omitempty"`
}

// Video belongs to a chapter.
type Video struct {
	ID        int64  `json:"id"`
	ChapterID int64  `json:"chapterId"`
	Title     string `json:"title"`
	URL       string `json:"url"`
}

// Quiz belongs to a chapter.
type Quiz struct {
	ID        int64  `json:"id"`
	ChapterID int64  `json:"chapterId"`
	Title     string `json:"title"`
}

// CourseDetail is the full course resource from GET /api/Courses/{id}.
type CourseDetail struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	TeacherName    string    `json:"teacherName"`
	TeacherPicture string    `json:"teacherPicture"`
	CoursePicture  string    `json:"coursePicture"`
	Price          float64   `json:"price"`
	URL            string    `json:"url"`
	Chapters       []Chapter `json:"chapters,omitempty"`
}

// CourseCard is the derived, cached view of an enrolled course.
type CourseCard struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Subtitle      string    `json:"subtitle"`
	Image         string    `json:"image"`
	CoursePicture string    `json:"coursePicture,omitempty"`
	TeacherPhoto  string    `json:"teacherPhoto,omitempty"`
	Price         float64   `json:"price"`
	URL           string    `json:"url,omitempty"`
	Chapters      []Chapter `json:"chapters,omitempty"`
}

// NewCourseCard derives a card from a course detail.
func NewCourseCard(d CourseDetail) CourseCard {
	card := CourseCard{
		ID:            d.ID,
		Title:         d.Title,
		Category:      d.TeacherName,
		Subtitle:      d.Title,
		Image:         d.TeacherPicture,
		CoursePicture: d.CoursePicture,
		TeacherPhoto:  d.TeacherPicture,
		Price:         d.Price,
		URL:           d.URL,
		Chapters:      d.Chapters,
	}
	if card.Category == "" {
		card.Category = defaultCategory
	}
	if card.Image == "" {
		card.Image = defaultImage
	}
	return card
}
