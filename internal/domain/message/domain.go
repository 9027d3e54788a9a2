package message

import "time"

// Body is the payload of every onchain message. The app only ever
// says one thing.
const Body = "yo"

// Message is a directed edge between two local users.
type Message struct {
	ID              string    `json:"id"`
	FromUserID      string    `json:"from_user_id"`
	ToUserID        string    `json:"to_user_id"`
	Body            string    `json:"message"`
	IsOnchain       bool      `json:"is_onchain"`
	TransactionHash *string   `json:"transaction_hash"`
	CreatedAt       time.Time `json:"created_at"`
}

// Inbound is a digest-query row: a message received by a user,
// carrying the sender's fid so the digest can name them.
type Inbound struct {
	ID        string    `json:"id"`
	SenderFID int64     `json:"sender_fid"`
	CreatedAt time.Time `json:"created_at"`
}
