package jobs

import (
	"errors"
	"fmt"
)

// MaxRecipientsPerJob is the push API's per-call token ceiling.
// Recipient lists are chunked to this size before becoming jobs.
const MaxRecipientsPerJob = 100

// Job is a queue payload with an explicit schema, validated at
// dequeue time rather than trusted implicitly.
type Job interface {
	Validate() error
}

// OnchainMessage is the payload for the onchain-message queue: one
// decoded transfer event. Amount stays a decimal string end to end to
// avoid precision loss.
type OnchainMessage struct {
	TransactionHash string `json:"transactionHash"`
	LogIndex        uint   `json:"logIndex"`
	FromAddress     string `json:"fromAddress"`
	ToAddress       string `json:"toAddress"`
	Amount          string `json:"amount"`
	Data            []byte `json:"data,omitempty"`
}

// JobID is the queue dedup identity: one job per event log, so
// redelivery of the same log is a no-op.
func (j OnchainMessage) JobID() string {
	return fmt.Sprintf("%s-%d", j.TransactionHash, j.LogIndex)
}

func (j OnchainMessage) Validate() error {
	switch {
	case j.TransactionHash == "":
		return errors.New("onchain message job: missing transaction hash")
	case j.FromAddress == "":
		return errors.New("onchain message job: missing from address")
	case j.ToAddress == "":
		return errors.New("onchain message job: missing to address")
	case j.Amount == "":
		return errors.New("onchain message job: missing amount")
	}
	return nil
}

// Recipient is one (token, optional fid) pair within a bulk job.
type Recipient struct {
	FID   int64  `json:"fid,omitempty"`
	Token string `json:"token"`
}

// NotificationsBulk is the payload for the bulk-notification queue:
// at most MaxRecipientsPerJob recipients sharing one delivery
// endpoint.
type NotificationsBulk struct {
	Notifications  []Recipient `json:"notifications"`
	URL            string      `json:"url"`
	Title          string      `json:"title"`
	Body           string      `json:"body"`
	TargetURL      string      `json:"targetUrl"`
	NotificationID string      `json:"notificationId,omitempty"`
}

func (j NotificationsBulk) Validate() error {
	switch {
	case len(j.Notifications) == 0:
		return errors.New("notifications bulk job: no recipients")
	case len(j.Notifications) > MaxRecipientsPerJob:
		return fmt.Errorf("notifications bulk job: %d recipients exceeds limit of %d",
			len(j.Notifications), MaxRecipientsPerJob)
	case j.URL == "":
		return errors.New("notifications bulk job: missing endpoint url")
	case j.Title == "":
		return errors.New("notifications bulk job: missing title")
	case j.Body == "":
		return errors.New("notifications bulk job: missing body")
	}
	for i, r := range j.Notifications {
		if r.Token == "" {
			return fmt.Errorf("notifications bulk job: recipient %d has no token", i)
		}
	}
	return nil
}
