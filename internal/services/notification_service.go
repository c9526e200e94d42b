package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/repositories"
	"kitchen_inventory_backend/pkg/clients/line"

	"github.com/rs/zerolog/log"
)

var ErrNotificationsDisabled = errors.New("chat notifications are not configured")

const webhookHelpText = "Send \"stock\" or \"low\" to see ingredients at or below their reorder threshold."

// ChatClient pushes and replies with plain text messages.
type ChatClient interface {
	PushText(ctx context.Context, to, text string) error
	ReplyText(ctx context.Context, replyToken, text string) error
}

// NotificationArchive stores a record of every low-stock message sent.
type NotificationArchive interface {
	SaveNotification(ctx context.Context, notification models.LowStockNotification) error
}

type nopArchive struct{}

func (nopArchive) SaveNotification(context.Context, models.LowStockNotification) error { return nil }

// NotificationService sends low-stock summaries to the kitchen chat.
type NotificationService interface {
	SendLowStockSummary(ctx context.Context, trigger models.NotificationTrigger) (*models.LowStockNotification, error)
	HandleWebhook(ctx context.Context, payload line.WebhookPayload) error
}

type notificationService struct {
	ingredientRepo repositories.IngredientRepository
	chat           ChatClient
	target         string
	archive        NotificationArchive
	now            func() time.Time
}

// NewNotificationService creates a new instance of NotificationService.
// A nil chat client disables sending; a nil archive keeps no records.
func NewNotificationService(ir repositories.IngredientRepository, chat ChatClient, target string, archive NotificationArchive) NotificationService {
	if archive == nil {
		archive = nopArchive{}
	}
	return &notificationService{
		ingredientRepo: ir,
		chat:           chat,
		target:         target,
		archive:        archive,
		now:            time.Now,
	}
}

// FormatLowStockMessage renders the chat text for the given items.
func FormatLowStockMessage(items []models.LowStockItem) string {
	if len(items) == 0 {
		return "All ingredients are above their reorder threshold."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Low stock alert: %d ingredient(s)\n", len(items))
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s: %s %s (threshold %s)\n", i+1, item.Name, item.Quantity.String(), item.Unit, item.Threshold.String())
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (s *notificationService) lowStockItems(ctx context.Context) ([]models.LowStockItem, error) {
	low, err := s.ingredientRepo.ListLowStock(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock ingredients: %w", classifyStoreError(err))
	}
	items := make([]models.LowStockItem, 0, len(low))
	for _, ingredient := range low {
		items = append(items, toLowStockItem(ingredient))
	}
	return items, nil
}

// SendLowStockSummary pushes the current low-stock list to the configured target.
// Nothing is pushed when no ingredient is low.
func (s *notificationService) SendLowStockSummary(ctx context.Context, trigger models.NotificationTrigger) (*models.LowStockNotification, error) {
	if s.chat == nil || s.target == "" {
		return nil, ErrNotificationsDisabled
	}
	items, err := s.lowStockItems(ctx)
	if err != nil {
		return nil, err
	}

	notification := models.LowStockNotification{
		Trigger:   trigger,
		Target:    s.target,
		Message:   FormatLowStockMessage(items),
		ItemCount: len(items),
		Items:     items,
		SentAt:    s.now(),
	}
	if len(items) == 0 {
		log.Info().Str("trigger", string(trigger)).Msg("No low stock ingredients, skipping notification")
		return &notification, nil
	}

	if err := s.chat.PushText(ctx, s.target, notification.Message); err != nil {
		s.save(ctx, notification)
		return nil, fmt.Errorf("failed to push low stock summary: %w", err)
	}
	notification.Delivered = true
	s.save(ctx, notification)

	log.Info().Str("trigger", string(trigger)).Int("item_count", len(items)).Msg("Low stock notification sent")
	return &notification, nil
}

// HandleWebhook answers text messages from the chat. Reply failures are logged per event.
func (s *notificationService) HandleWebhook(ctx context.Context, payload line.WebhookPayload) error {
	if s.chat == nil {
		return ErrNotificationsDisabled
	}
	for _, event := range payload.Events {
		if !event.IsText() || event.ReplyToken == "" {
			continue
		}

		command := strings.ToLower(strings.TrimSpace(event.Message.Text))
		if command != "stock" && command != "low" {
			if err := s.chat.ReplyText(ctx, event.ReplyToken, webhookHelpText); err != nil {
				log.Warn().Err(err).Str("user_id", event.Source.UserID).Msg("Failed to reply with help text")
			}
			continue
		}

		items, err := s.lowStockItems(ctx)
		if err != nil {
			return err
		}
		notification := models.LowStockNotification{
			Trigger:   models.TriggerChat,
			Target:    event.Source.UserID,
			Message:   FormatLowStockMessage(items),
			ItemCount: len(items),
			Items:     items,
			SentAt:    s.now(),
		}
		if err := s.chat.ReplyText(ctx, event.ReplyToken, notification.Message); err != nil {
			log.Warn().Err(err).Str("user_id", event.Source.UserID).Msg("Failed to reply with low stock summary")
		} else {
			notification.Delivered = true
		}
		s.save(ctx, notification)
	}
	return nil
}

func (s *notificationService) save(ctx context.Context, notification models.LowStockNotification) {
	if err := s.archive.SaveNotification(ctx, notification); err != nil {
		log.Warn().Err(err).Str("trigger", string(notification.Trigger)).Msg("Failed to archive low stock notification")
	}
}
