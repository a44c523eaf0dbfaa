package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SectionStatus string

const (
	SectionPublic  SectionStatus = "public"
	SectionPrivate SectionStatus = "private"
)

func (s SectionStatus) Valid() bool {
	return s == SectionPublic || s == SectionPrivate
}

type LessonStatus string

const (
	LessonPublic  LessonStatus = "public"
	LessonPrivate LessonStatus = "private"
	LessonPreview LessonStatus = "preview"
)

func (s LessonStatus) Valid() bool {
	return s == LessonPublic || s == LessonPrivate || s == LessonPreview
}

// VisibleLessonStatuses are the statuses shown to learners and walked by lesson navigation.
var VisibleLessonStatuses = []LessonStatus{LessonPublic, LessonPreview}

type Course struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Sections    []CourseSection `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"sections,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CourseSection struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID      `gorm:"type:uuid;index;not null" json:"courseId"`
	Name      string         `gorm:"not null" json:"name"`
	Status    SectionStatus  `gorm:"type:varchar(16);not null;default:'private'" json:"status"`
	Order     int            `gorm:"column:order;not null" json:"order"`
	Lessons   []CourseLesson `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (s *CourseSection) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type CourseLesson struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	SectionID      uuid.UUID    `gorm:"type:uuid;index;not null" json:"sectionId"`
	Name           string       `gorm:"not null" json:"name"`
	Description    string       `gorm:"type:text" json:"description"`
	YoutubeVideoID string       `gorm:"not null" json:"youtubeVideoId"`
	Status         LessonStatus `gorm:"type:varchar(16);not null;default:'private'" json:"status"`
	Order          int          `gorm:"column:order;not null" json:"order"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`

	IsCompleted bool `gorm:"-" json:"isCompleted"`
}

func (l *CourseLesson) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// UserCourseAccess entitles a user to a course's non-private lessons.
type UserCourseAccess struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	CourseID  uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"courseId"`
	Course    *Course   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserLessonComplete struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	LessonID  uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"lessonId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CourseSummary is one row of a learner's course list.
type CourseSummary struct {
	Course
	SectionsCount   int64 `json:"sectionsCount"`
	LessonsCount    int64 `json:"lessonsCount"`
	LessonsComplete int64 `json:"lessonsComplete"`
}

func (Course) TableName() string             { return "courses" }
func (CourseSection) TableName() string      { return "course_sections" }
func (CourseLesson) TableName() string       { return "course_lessons" }
func (UserCourseAccess) TableName() string   { return "user_course_accesses" }
func (UserLessonComplete) TableName() string { return "user_lesson_completes" }
