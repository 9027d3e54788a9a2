package user

import "time"

// DeliveryMode controls how a user receives push notifications:
// immediately for every message, or batched into periodic digests.
type DeliveryMode string

const (
	ModeAll       DeliveryMode = "all"
	ModeHourly    DeliveryMode = "hourly"
	ModeSemiDaily DeliveryMode = "semi_daily"
)

func (m DeliveryMode) Valid() bool {
	switch m {
	case ModeAll, ModeHourly, ModeSemiDaily:
		return true
	}
	return false
}

// User is a local account keyed by Farcaster fid. Rows are created
// lazily the first time a message references the fid.
type User struct {
	ID                string       `json:"id"`
	FID               int64        `json:"fid"`
	NotificationURL   *string      `json:"notification_url"`
	NotificationToken *string      `json:"notification_token"`
	DeliveryMode      DeliveryMode `json:"notification_type"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// CanNotify reports whether the user has a push delivery endpoint
// configured. Both the webhook URL and the token must be present.
func (u *User) CanNotify() bool {
	return u.NotificationURL != nil && *u.NotificationURL != "" &&
		u.NotificationToken != nil && *u.NotificationToken != ""
}
