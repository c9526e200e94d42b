package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kitchen_inventory_backend/internal/models"
)

const notificationsCollection = "low_stock_notifications"

// notificationDocument is the stored form of a push. Decimals are kept as strings.
type notificationDocument struct {
	Trigger   string         `bson:"trigger"`
	Target    string         `bson:"target"`
	Message   string         `bson:"message"`
	ItemCount int            `bson:"item_count"`
	Items     []itemDocument `bson:"items"`
	Delivered bool           `bson:"delivered"`
	SentAt    time.Time      `bson:"sent_at"`
}

type itemDocument struct {
	IngredientID int64  `bson:"ingredient_id"`
	Name         string `bson:"name"`
	Quantity     string `bson:"quantity"`
	Threshold    string `bson:"threshold"`
	Unit         string `bson:"unit"`
}

// NotificationRepository archives low-stock pushes in MongoDB.
type NotificationRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewNotificationRepository connects to MongoDB and verifies the connection.
func NewNotificationRepository(ctx context.Context, uri string, dbName string) (*NotificationRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &NotificationRepository{
		client:   client,
		dbName:   dbName,
		collName: notificationsCollection,
	}, nil
}

// SaveNotification stores one push record.
func (r *NotificationRepository) SaveNotification(ctx context.Context, notification models.LowStockNotification) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	if _, err := collection.InsertOne(ctx, toDocument(notification)); err != nil {
		return fmt.Errorf("failed to insert low stock notification: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *NotificationRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func toDocument(n models.LowStockNotification) notificationDocument {
	items := make([]itemDocument, 0, len(n.Items))
	for _, item := range n.Items {
		items = append(items, itemDocument{
			IngredientID: item.IngredientID,
			Name:         item.Name,
			Quantity:     item.Quantity.String(),
			Threshold:    item.Threshold.String(),
			Unit:         item.Unit,
		})
	}
	return notificationDocument{
		Trigger:   string(n.Trigger),
		Target:    n.Target,
		Message:   n.Message,
		ItemCount: n.ItemCount,
		Items:     items,
		Delivered: n.Delivered,
		SentAt:    n.SentAt,
	}
}
