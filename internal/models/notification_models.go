package models

import "time"

// NotificationTrigger tells what caused a low-stock push.
type NotificationTrigger string

const (
	TriggerSchedule NotificationTrigger = "schedule"
	TriggerManual   NotificationTrigger = "manual"
	TriggerChat     NotificationTrigger = "chat"
)

// LowStockNotification is the archived record of one low-stock push.
type LowStockNotification struct {
	Trigger   NotificationTrigger `json:"trigger" bson:"trigger"`
	Target    string              `json:"target" bson:"target"`
	Message   string              `json:"message" bson:"message"`
	ItemCount int                 `json:"item_count" bson:"item_count"`
	Items     []LowStockItem      `json:"items" bson:"-"`
	Delivered bool                `json:"delivered" bson:"delivered"`
	SentAt    time.Time           `json:"sent_at" bson:"sent_at"`
}
