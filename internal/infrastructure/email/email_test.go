package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridSenderPostsMail(t *testing.T) {
	var got sgRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendGridSender("key", "noreply@example.com", "Courses")
	s.endpoint = srv.URL

	require.NoError(t, s.Send(context.Background(), "learner@example.com", "Hello", "<p>hi</p>"))
	assert.Equal(t, "Bearer key", auth)
	assert.Equal(t, "Hello", got.Subject)
	assert.Equal(t, "learner@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "Courses", got.From.Name)
	assert.Equal(t, "text/html", got.Content[0].Type)
}

func TestSendGridSenderReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewSendGridSender("key", "noreply@example.com", "")
	s.endpoint = srv.URL

	err := s.Send(context.Background(), "learner@example.com", "Hello", "<p>hi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestRenderOTP(t *testing.T) {
	subject, body, err := RenderOTP("Verify your email", "042137", 10)
	require.NoError(t, err)
	assert.Equal(t, "Verify your email", subject)
	assert.Contains(t, body, "042137")
	assert.Contains(t, body, "10 minutes")
}

func TestSMTPMessageHeaders(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 465, "user@example.com", "pw", "", "Course Team")
	msg := string(s.message("learner@example.com", "Your code", "<p>1</p>"))

	assert.True(t, strings.HasPrefix(msg, "From: Course Team <user@example.com>\r\n"))
	assert.Contains(t, msg, "To: learner@example.com\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=\"utf-8\"\r\n\r\n<p>1</p>")
}
