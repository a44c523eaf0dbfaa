package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"gorm.io/datatypes"
)

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
}

func TestSignUpThenSignInUnverified(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/auth/sign-up/user", "", map[string]string{
		"firstName": "Jamie",
		"lastName":  "Doe",
		"email":     "jamie@example.com",
		"password":  "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, string(decode(t, w).Data), "accessToken")

	w = s.do(http.MethodPost, "/api/auth/sign-in", "", map[string]string{
		"email":    "jamie@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	res := decode(t, w)
	assert.False(t, res.Success)
	assert.Equal(t, "Please verify your email first!", res.Message)
	assert.JSONEq(t, `{"accessToken":"","isVerified":false}`, string(res.Data))
}

func TestSignInVerified(t *testing.T) {
	s := newTestServer(t)
	s.user("ok@example.com", domain.RoleUser, true)

	w := s.do(http.MethodPost, "/api/auth/sign-in", "", map[string]string{
		"email":    "ok@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"isVerified":true`)

	w = s.do(http.MethodPost, "/api/auth/sign-in", "", map[string]string{
		"email":    "ok@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Incorrect Credential!", decode(t, w).Message)
}

func TestInvalidPayload(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/auth/sign-up/user", "", map[string]string{"email": "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	res := decode(t, w)
	assert.Equal(t, "Invalid payload!", res.Message)
	assert.False(t, res.Success)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized access!", decode(t, w).Message)

	w = s.do(http.MethodGet, "/api/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token!", decode(t, w).Message)
}

func TestAdminRoutesRejectLearners(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user("learner@example.com", domain.RoleUser, true)

	w := s.do(http.MethodGet, "/api/dashboard/admin", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/courses", token, map[string]string{"name": "x", "description": "y"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardForAdmin(t *testing.T) {
	s := newTestServer(t)
	s.catalog()
	_, token := s.user("admin@example.com", domain.RoleAdmin, true)

	w := s.do(http.MethodGet, "/api/dashboard/admin", token, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"totalLessons":2`)
}

func TestNavigationRequiresQuery(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user("learner@example.com", domain.RoleUser, true)

	w := s.do(http.MethodGet, "/api/lessons/lesson/next", token, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid payload!", decode(t, w).Message)
}

func TestNavigationNextAndEdge(t *testing.T) {
	s := newTestServer(t)
	c := s.catalog()
	_, token := s.user("admin@example.com", domain.RoleAdmin, true)

	query := func(l *domain.CourseLesson) string {
		return "?lessonId=" + l.ID.String() +
			"&sectionId=" + c.section.ID.String() +
			"&courseId=" + c.course.ID.String() +
			"&order=" + strconv.Itoa(l.Order)
	}

	w := s.do(http.MethodGet, "/api/lessons/lesson/next"+query(c.first), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(decode(t, w).Data), c.last.ID.String())

	w = s.do(http.MethodGet, "/api/lessons/lesson/next"+query(c.last), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Next section not found!", decode(t, w).Message)
}

func TestPreviewLessonIsPublic(t *testing.T) {
	s := newTestServer(t)
	c := s.catalog()

	w := s.do(http.MethodGet, "/api/lessons/"+c.last.ID.String()+"?courseId="+c.course.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/lessons/"+c.first.ID.String()+"?courseId="+c.course.ID.String(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProductListHidesPrivateFromLearners(t *testing.T) {
	s := newTestServer(t)
	c := s.catalog()
	require.NoError(t, s.db.Model(c.product).Update("status", domain.ProductPrivate).Error)
	_, learner := s.user("learner@example.com", domain.RoleUser, true)
	_, admin := s.user("admin@example.com", domain.RoleAdmin, true)

	w := s.do(http.MethodGet, "/api/products?showAllProducts=true", learner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	require.NotNil(t, res.Meta)
	assert.EqualValues(t, 0, res.Meta.Total)

	w = s.do(http.MethodGet, "/api/products?showAllProducts=true", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode(t, w)
	require.NotNil(t, res.Meta)
	assert.EqualValues(t, 1, res.Meta.Total)

	w = s.do(http.MethodGet, "/api/products/"+c.product.ID.String(), learner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCouponByCountryHeader(t *testing.T) {
	s := newTestServer(t)
	c := s.catalog()

	w := s.do(http.MethodGet, "/api/products/"+c.product.ID.String()+"/coupon", "", nil, "X-User-Country", "in")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), "ppp-40")

	w = s.do(http.MethodGet, "/api/products/"+c.product.ID.String()+"/coupon", "", nil, "X-User-Country", "US")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w).Data)
}

// checkout opens a session through the API and returns its id.
func (s *testServer) checkout(token string, product *domain.Product) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/products/"+product.ID.String()+"/checkout", token, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	require.Len(s.t, s.provider.sessions, 1)
	for id := range s.provider.sessions {
		return id
	}
	return ""
}

func (s *testServer) webhook(signature string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewBufferString(body))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestWebhookRecordsPurchaseOnce(t *testing.T) {
	s := newTestServer(t)
	c := s.catalog()
	_, token := s.user("buyer@example.com", domain.RoleUser, true)
	sessionID := s.checkout(token, c.product)
	body := `{"type":"checkout.session.completed","sessionId":"` + sessionID + `"}`

	w := s.webhook("valid", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Purchase recorded!", decode(t, w).Message)

	w = s.webhook("valid", body)
	assert.Equal(t, http.StatusOK, w.Code)

	var n int64
	require.NoError(t, s.db.Model(&domain.PurchaseHistory{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	w = s.do(http.MethodGet, "/api/products/"+c.product.ID.String()+"/user-access", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"hasAccess":true}`, string(decode(t, w).Data))

	w = s.do(http.MethodPost, "/api/products/"+c.product.ID.String()+"/checkout", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You already have access to this product!", decode(t, w).Message)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	s := newTestServer(t)

	w := s.webhook("forged", `{"type":"checkout.session.completed","sessionId":"cs_1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	s := newTestServer(t)

	w := s.webhook("valid", `{"type":"payment_intent.created"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Event received!", decode(t, w).Message)
}

func TestWebhookUnknownSessionFails(t *testing.T) {
	s := newTestServer(t)

	w := s.webhook("valid", `{"type":"checkout.session.completed","sessionId":"cs_missing"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRedirect(t *testing.T) {
	s := newTestServer(t)
	c := s.catalog()
	_, token := s.user("buyer@example.com", domain.RoleUser, true)
	sessionID := s.checkout(token, c.product)
	success := appURL + "/products/" + c.product.ID.String() + "/purchase/success"

	w := s.do(http.MethodGet, "/api/webhooks/stripe?stripeSessionId="+sessionID, "", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, success, w.Header().Get("Location"))

	// The second return trip finds the purchase already recorded.
	w = s.do(http.MethodGet, "/api/webhooks/stripe?stripeSessionId="+sessionID, "", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, success, w.Header().Get("Location"))

	w = s.do(http.MethodGet, "/api/webhooks/stripe?stripeSessionId=cs_missing", "", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, appURL+"/products/purchase-failure", w.Header().Get("Location"))

	w = s.do(http.MethodGet, "/api/webhooks/stripe", "", nil)
	assert.Equal(t, appURL+"/products/purchase-failure", w.Header().Get("Location"))
}

func TestRefundAfterWindow(t *testing.T) {
	s := newTestServer(t)
	c := s.catalog()
	buyer, _ := s.user("buyer@example.com", domain.RoleUser, true)
	_, admin := s.user("admin@example.com", domain.RoleAdmin, true)
	purchase := &domain.PurchaseHistory{
		UserID:          buyer.ID,
		ProductID:       c.product.ID,
		StripeSessionID: "cs_old",
		PricePaidInCent: 2500,
		ProductDetails:  datatypes.NewJSONType(domain.ProductSnapshot{Name: c.product.Name}),
		CreatedAt:       time.Now().AddDate(0, 0, -40),
	}
	require.NoError(t, s.db.Create(purchase).Error)

	w := s.do(http.MethodPut, "/api/purchases/"+purchase.ID.String(), admin, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Can't refund after 30 days of purchase!", decode(t, w).Message)
	assert.Empty(t, s.provider.refunded)
}

func TestPurchaseListAllRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user("learner@example.com", domain.RoleUser, true)

	w := s.do(http.MethodGet, "/api/purchases?all=true", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/purchases", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w).Meta.Total)
}

func TestMalformedPathID(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user("admin@example.com", domain.RoleAdmin, true)

	w := s.do(http.MethodGet, "/api/courses/not-a-uuid", token, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyOTPReadsOTPCode(t *testing.T) {
	s := newTestServer(t)
	s.user("code@example.com", domain.RoleUser, false)

	w := s.do(http.MethodPost, "/api/auth/verify-otp", "", map[string]string{
		"email":   "code@example.com",
		"otpCode": "123456",
		"otpType": string(domain.OTPEmailVerification),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "OTP not found!", decode(t, w).Message)

	w = s.do(http.MethodPost, "/api/auth/verify-otp", "", map[string]string{
		"email":   "code@example.com",
		"otp":     "123456",
		"otpType": string(domain.OTPEmailVerification),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetPasswordNeedsVerifiedAccount(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/auth/user-register", "", map[string]string{
		"email":    "pending@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tok struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &tok))

	w = s.do(http.MethodPost, "/api/auth/reset-password", tok.AccessToken, map[string]string{
		"requestType": "forgot_password",
		"newPassword": "takeover99",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found!", decode(t, w).Message)
}
