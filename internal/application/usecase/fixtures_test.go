package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/security"
	"github.com/waste3d/courseplatform-api/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeProvider struct {
	mu        sync.Mutex
	sessions  map[string]*domain.CheckoutSession
	created   []domain.CheckoutRequest
	refunded  []string
	secret    string
	refundErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: map[string]*domain.CheckoutSession{}, secret: "cs_secret"}
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	s := &domain.CheckoutSession{
		ID:           "cs_" + uuid.NewString(),
		ClientSecret: f.secret,
		Metadata: map[string]string{
			domain.MetadataProductID: req.ProductID.String(),
			domain.MetadataUserID:    req.UserID.String(),
		},
		AmountTotal: req.AmountInCent,
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeProvider) GetCheckoutSession(_ context.Context, id string) (*domain.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	return s, nil
}

func (f *fakeProvider) Refund(_ context.Context, paymentIntentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunded = append(f.refunded, paymentIntentID)
	return nil
}

// paidSession registers a completed session for productID bought by userID.
func (f *fakeProvider) paidSession(productID, userID uuid.UUID, amount int64) *domain.CheckoutSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &domain.CheckoutSession{
		ID: "cs_" + uuid.NewString(),
		Metadata: map[string]string{
			domain.MetadataProductID: productID.String(),
			domain.MetadataUserID:    userID.String(),
		},
		AmountTotal:     amount,
		AmountSubtotal:  amount,
		PaymentIntentID: "pi_" + uuid.NewString(),
	}
	f.sessions[s.ID] = s
	return s
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

type fixture struct {
	t   *testing.T
	db  *gorm.DB
	ctx context.Context

	users     *repository.UserRepository
	otps      *repository.OTPRepository
	courses   *repository.CourseRepository
	sections  *repository.SectionRepository
	lessons   *repository.LessonRepository
	access    *repository.AccessRepository
	products  *repository.ProductRepository
	purchases *repository.PurchaseRepository
	stats     *repository.StatsRepository

	hasher   *security.PasswordHasher
	tokens   *security.TokenManager
	provider *fakeProvider
	log      *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	return &fixture{
		t:         t,
		db:        db,
		ctx:       context.Background(),
		users:     repository.NewUserRepository(db),
		otps:      repository.NewOTPRepository(db),
		courses:   repository.NewCourseRepository(db),
		sections:  repository.NewSectionRepository(db),
		lessons:   repository.NewLessonRepository(db),
		access:    repository.NewAccessRepository(db),
		products:  repository.NewProductRepository(db),
		purchases: repository.NewPurchaseRepository(db),
		stats:     repository.NewStatsRepository(db),
		hasher:    security.NewPasswordHasherWithCost(bcrypt.MinCost),
		tokens:    security.NewTokenManager("test-secret", time.Hour),
		provider:  newFakeProvider(),
		log:       zap.NewNop(),
	}
}

func (f *fixture) user(email string, verified bool) *domain.User {
	f.t.Helper()
	hash, err := f.hasher.Hash("password123")
	require.NoError(f.t, err)
	u := &domain.User{
		Email:      email,
		Password:   hash,
		Role:       domain.RoleUser,
		IsVerified: verified,
		Profile:    &domain.UserProfile{FirstName: "Jamie", LastName: "Doe"},
	}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f *fixture) admin() *domain.Principal {
	f.t.Helper()
	u := f.user("admin-"+uuid.NewString()[:8]+"@example.com", true)
	require.NoError(f.t, f.db.Model(u).Update("role", domain.RoleAdmin).Error)
	return &domain.Principal{ID: u.ID, Email: u.Email, Role: domain.RoleAdmin, Verified: true}
}

func principal(u *domain.User) *domain.Principal {
	return &domain.Principal{ID: u.ID, Email: u.Email, Role: u.Role, Verified: u.IsVerified}
}

func (f *fixture) course(name string) *domain.Course {
	f.t.Helper()
	c := &domain.Course{Name: name, Description: name + " description"}
	require.NoError(f.t, f.courses.Create(f.ctx, c))
	return c
}

func (f *fixture) section(courseID uuid.UUID, name string, status domain.SectionStatus) *domain.CourseSection {
	f.t.Helper()
	s := &domain.CourseSection{CourseID: courseID, Name: name, Status: status}
	require.NoError(f.t, f.sections.CreateAppend(f.ctx, s))
	return s
}

func (f *fixture) lesson(sectionID uuid.UUID, name string, status domain.LessonStatus) *domain.CourseLesson {
	f.t.Helper()
	l := &domain.CourseLesson{SectionID: sectionID, Name: name, YoutubeVideoID: "yt-" + name, Status: status}
	require.NoError(f.t, f.lessons.CreateAppend(f.ctx, l))
	return l
}

func (f *fixture) product(price string, status domain.ProductStatus, courses ...*domain.Course) *domain.Product {
	f.t.Helper()
	ids := make([]uuid.UUID, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	p := &domain.Product{
		Name:          "Bundle " + uuid.NewString()[:8],
		Description:   "bundle",
		ImageURL:      "/images/bundle.png",
		PriceInDollar: decimal.RequireFromString(price),
		Status:        status,
	}
	require.NoError(f.t, f.products.Create(f.ctx, p, ids))
	return p
}

func (f *fixture) grant(userID uuid.UUID, courses ...*domain.Course) {
	f.t.Helper()
	for _, c := range courses {
		require.NoError(f.t, f.db.Create(&domain.UserCourseAccess{UserID: userID, CourseID: c.ID}).Error)
	}
}

func (f *fixture) heldCourses(userID uuid.UUID) []uuid.UUID {
	f.t.Helper()
	var ids []uuid.UUID
	require.NoError(f.t, f.db.Model(&domain.UserCourseAccess{}).Where("user_id = ?", userID).Pluck("course_id", &ids).Error)
	return ids
}

func (f *fixture) countPurchases() int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(&domain.PurchaseHistory{}).Count(&n).Error)
	return n
}
