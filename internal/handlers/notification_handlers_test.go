package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/services"
	"kitchen_inventory_backend/pkg/clients/line"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChannelSecret = "channel-secret"

type stubNotificationService struct {
	notification *models.LowStockNotification
	err          error
	trigger      models.NotificationTrigger
	payload      *line.WebhookPayload
}

func (s *stubNotificationService) SendLowStockSummary(_ context.Context, trigger models.NotificationTrigger) (*models.LowStockNotification, error) {
	s.trigger = trigger
	return s.notification, s.err
}

func (s *stubNotificationService) HandleWebhook(_ context.Context, payload line.WebhookPayload) error {
	s.payload = &payload
	return s.err
}

func newNotificationRouter(svc services.NotificationService) *gin.Engine {
	r := gin.New()
	h := NewNotificationHandler(svc, testChannelSecret)
	r.POST("/notifications/low-stock", h.SendLowStock)
	r.POST("/webhook/line", h.LineWebhook)
	return r
}

func TestLineWebhook_ValidSignature(t *testing.T) {
	svc := &stubNotificationService{}
	body := `{"destination":"U0","events":[{"type":"message","replyToken":"r1","source":{"type":"user","userId":"U1"},"message":{"type":"text","text":"stock"}}]}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/line", strings.NewReader(body))
	req.Header.Set(line.SignatureHeader, line.Sign(testChannelSecret, []byte(body)))
	newNotificationRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.payload)
	require.Len(t, svc.payload.Events, 1)
	assert.Equal(t, "r1", svc.payload.Events[0].ReplyToken)
}

func TestLineWebhook_RejectsBadSignature(t *testing.T) {
	svc := &stubNotificationService{}
	body := `{"events":[]}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/line", strings.NewReader(body))
	req.Header.Set(line.SignatureHeader, line.Sign("other-secret", []byte(body)))
	newNotificationRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, svc.payload)
}

func TestSendLowStock(t *testing.T) {
	t.Run("manual trigger", func(t *testing.T) {
		svc := &stubNotificationService{notification: &models.LowStockNotification{ItemCount: 2, Delivered: true}}
		w := httptest.NewRecorder()
		newNotificationRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/notifications/low-stock", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.TriggerManual, svc.trigger)
		assert.Contains(t, w.Body.String(), "Low stock notification sent")
	})

	t.Run("not configured", func(t *testing.T) {
		svc := &stubNotificationService{err: services.ErrNotificationsDisabled}
		w := httptest.NewRecorder()
		newNotificationRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/notifications/low-stock", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
