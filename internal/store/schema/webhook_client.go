package schema

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookClient represents the webhook_clients table - registered endpoints
// that receive signed notifications for registry events.
type WebhookClient struct {
	// ID is the client identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// URL is the endpoint notifications are POSTed to
	URL string `gorm:"column:url;not null;type:text"`
	// Secret is the shared HMAC signing secret
	Secret string `gorm:"column:secret;not null;type:text"`
	// EventFilter is a JSON array of event types the client subscribes to
	// (empty means all events)
	EventFilter datatypes.JSON `gorm:"column:event_filter;type:jsonb"`
	// Active indicates whether the client currently receives deliveries
	Active bool `gorm:"column:active;not null;default:true"`
	// CreatedAt is the registration timestamp
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the WebhookClient model
func (WebhookClient) TableName() string {
	return "webhook_clients"
}
