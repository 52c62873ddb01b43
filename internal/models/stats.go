package models

// SenderCount is one row of the top-senders table.
type SenderCount struct {
	From  string `json:"from"`
	Count int64  `json:"count"`
}

// Stats summarises every stored message.
type Stats struct {
	TotalMessages     int64         `json:"total_messages"`
	SendersCount      int64         `json:"senders_count"`
	MessagesPerSender []SenderCount `json:"messages_per_sender"`
	FirstMessageTS    *string       `json:"first_message_ts"`
	LastMessageTS     *string       `json:"last_message_ts"`
}
