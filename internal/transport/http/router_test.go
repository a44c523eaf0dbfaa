package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/waste3d/courseplatform-api/internal/application/usecase"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/geo"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/cache"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/security"
	"github.com/waste3d/courseplatform-api/internal/middleware"
	"github.com/waste3d/courseplatform-api/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const appURL = "https://courses.example.com"

type stubProvider struct {
	sessions map[string]*domain.CheckoutSession
	refunded []string
}

func (p *stubProvider) CreateCheckoutSession(_ context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	s := &domain.CheckoutSession{
		ID:           "cs_" + uuid.NewString(),
		ClientSecret: "secret_" + req.ProductID.String(),
		Metadata: map[string]string{
			domain.MetadataProductID: req.ProductID.String(),
			domain.MetadataUserID:    req.UserID.String(),
		},
		AmountTotal:     req.AmountInCent,
		PaymentIntentID: "pi_" + uuid.NewString(),
	}
	p.sessions[s.ID] = s
	return s, nil
}

func (p *stubProvider) GetCheckoutSession(_ context.Context, id string) (*domain.CheckoutSession, error) {
	if s, ok := p.sessions[id]; ok {
		return s, nil
	}
	return nil, errors.New("no such session")
}

func (p *stubProvider) Refund(_ context.Context, paymentIntentID string) error {
	p.refunded = append(p.refunded, paymentIntentID)
	return nil
}

// stubParser accepts deliveries signed "valid" whose body is {"type":..., "sessionId":...}.
type stubParser struct{}

func (stubParser) ParseWebhook(payload []byte, signature string) (*domain.WebhookEvent, error) {
	if signature != "valid" {
		return nil, domain.ErrInvalidWebhook
	}
	var body struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
	}
	event := &domain.WebhookEvent{ID: "evt_1", Type: domain.WebhookEventType(body.Type)}
	if event.CompletesCheckout() {
		event.Session = &domain.CheckoutSession{ID: body.SessionID}
	}
	return event, nil
}

type testServer struct {
	t        *testing.T
	db       *gorm.DB
	router   *gin.Engine
	tokens   *security.TokenManager
	hasher   *security.PasswordHasher
	provider *stubProvider
}

func newTestServer(t *testing.T) *testServer {
	db := testutil.NewDB(t)
	client, _ := testutil.NewRedis(t)
	log := zap.NewNop()

	users := repository.NewUserRepository(db)
	otps := repository.NewOTPRepository(db)
	courses := repository.NewCourseRepository(db)
	sections := repository.NewSectionRepository(db)
	lessons := repository.NewLessonRepository(db)
	access := repository.NewAccessRepository(db)
	products := repository.NewProductRepository(db)
	purchases := repository.NewPurchaseRepository(db)
	stats := repository.NewStatsRepository(db)

	hasher := security.NewPasswordHasherWithCost(bcrypt.MinCost)
	tokens := security.NewTokenManager("handler-secret", time.Hour)
	provider := &stubProvider{sessions: map[string]*domain.CheckoutSession{}}
	productCache := cache.NewCatalogCache(client)
	coupons := []domain.PPPCoupon{{StripeCouponID: "ppp-40", DiscountPercentage: 0.4, CountryCodes: []string{"IN"}}}

	auth := usecase.NewAuthUseCase(users, otps, hasher, tokens, nil, cache.NewOTPThrottle(client), log)
	purchaseUC := usecase.NewPurchaseUseCase(purchases, products, users, provider, productCache, log)
	country, err := geo.NewCountryResolver("")
	require.NoError(t, err)

	router := NewRouter(Handlers{
		Auth:      NewAuthHandler(auth),
		Profile:   NewProfileHandler(usecase.NewProfileUseCase(users, access, purchases)),
		Course:    NewCourseHandler(usecase.NewCourseUseCase(courses, lessons, access)),
		Section:   NewSectionHandler(usecase.NewSectionUseCase(sections)),
		Lesson:    NewLessonHandler(usecase.NewLessonUseCase(lessons, access), usecase.NewNavigationUseCase(lessons, sections, access)),
		Product:   NewProductHandler(usecase.NewProductUseCase(products, purchases, productCache, log), usecase.NewCheckoutUseCase(products, users, access, provider, coupons, appURL, log), country),
		Purchase:  NewPurchaseHandler(purchaseUC),
		Dashboard: NewDashboardHandler(usecase.NewDashboardUseCase(stats)),
		Webhook:   NewWebhookHandler(purchaseUC, stubParser{}, appURL, log),

		Authenticator: auth,
		Limiter:       middleware.NewRateLimiter(client, log),
		Log:           log,
	})
	return &testServer{t: t, db: db, router: router, tokens: tokens, hasher: hasher, provider: provider}
}

func (s *testServer) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type response struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Success bool            `json:"success"`
	Meta    *meta           `json:"meta"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response {
	t.Helper()
	var r response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r), w.Body.String())
	return r
}

func (s *testServer) user(email string, role domain.Role, verified bool) (*domain.User, string) {
	s.t.Helper()
	hash, err := s.hasher.Hash("password123")
	require.NoError(s.t, err)
	u := &domain.User{Email: email, Password: hash, Role: role, IsVerified: verified, Profile: &domain.UserProfile{}}
	require.NoError(s.t, s.db.Create(u).Error)
	token, err := s.tokens.Generate(u, false)
	require.NoError(s.t, err)
	return u, token
}

type catalog struct {
	course  *domain.Course
	section *domain.CourseSection
	first   *domain.CourseLesson
	last    *domain.CourseLesson
	product *domain.Product
}

func (s *testServer) catalog() catalog {
	s.t.Helper()
	var c catalog
	c.course = &domain.Course{Name: "Go", Description: "Go course"}
	require.NoError(s.t, s.db.Create(c.course).Error)
	c.section = &domain.CourseSection{CourseID: c.course.ID, Name: "Basics", Status: domain.SectionPublic, Order: 1}
	require.NoError(s.t, s.db.Create(c.section).Error)
	c.first = &domain.CourseLesson{SectionID: c.section.ID, Name: "one", YoutubeVideoID: "a", Status: domain.LessonPublic, Order: 1}
	c.last = &domain.CourseLesson{SectionID: c.section.ID, Name: "two", YoutubeVideoID: "b", Status: domain.LessonPreview, Order: 2}
	require.NoError(s.t, s.db.Create(c.first).Error)
	require.NoError(s.t, s.db.Create(c.last).Error)
	c.product = &domain.Product{
		Name:          "Go bundle",
		Description:   "bundle",
		ImageURL:      "/go.png",
		PriceInDollar: decimal.RequireFromString("25"),
		Status:        domain.ProductPublic,
	}
	require.NoError(s.t, repository.NewProductRepository(s.db).Create(context.Background(), c.product, []uuid.UUID{c.course.ID}))
	return c
}
