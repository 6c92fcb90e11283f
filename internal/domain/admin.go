package domain

import "time"

// ConsumerGroupInfo describes a translator consumer group on the event stream.
type ConsumerGroupInfo struct {
	Name            string `json:"name"`
	Consumers       int64  `json:"consumers"`
	Pending         int64  `json:"pending"`
	LastDeliveredID string `json:"last_delivered_id"`
}

// PendingMessageSummary counts delivered but unacknowledged events.
type PendingMessageSummary struct {
	Total          int64            `json:"total"`
	FirstMessageID string           `json:"first_message_id,omitempty"`
	LastMessageID  string           `json:"last_message_id,omitempty"`
	ConsumerTotals map[string]int64 `json:"consumer_totals,omitempty"`
}

// PendingMessageDetail is one unacknowledged event of a group.
type PendingMessageDetail struct {
	ID         string        `json:"id"`
	Consumer   string        `json:"consumer"`
	IdleTime   time.Duration `json:"idle_time_ms"`
	RetryCount int64         `json:"retry_count"`
}

// DeadLetter is an event the translator gave up on.
type DeadLetter struct {
	ID       string    `json:"id,omitempty"`
	Event    Event     `json:"event"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}
