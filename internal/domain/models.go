package domain

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserProfile{},
		&OTPVerification{},
		&Course{},
		&CourseSection{},
		&CourseLesson{},
		&Product{},
		&CourseProduct{},
		&UserCourseAccess{},
		&UserLessonComplete{},
		&PurchaseHistory{},
	}
}
