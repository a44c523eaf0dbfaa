package middleware

import (
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// Telemetry binds a Sentry hub to each request. Panics are re-raised for gin's recovery.
func Telemetry() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic: true,
	})
}

// RecordError reports err on the request's Sentry hub. It is a no-op when Sentry is not set up.
func RecordError(c *gin.Context, err error) {
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil {
		return
	}
	if p, ok := CurrentUser(c); ok {
		hub.Scope().SetUser(sentry.User{ID: p.ID.String(), Email: p.Email})
	}
	hub.CaptureException(err)
}
