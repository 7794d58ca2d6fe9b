package models

// Message is an entry of the inbox overview.
type Message struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   User   `json:"author"`
	SendTime int64  `json:"send_time"` // epoch milliseconds
}

// MessageDetails is loaded lazily per message.
type MessageDetails struct {
	Recipients int    `json:"recipients"`
	Content    string `json:"content"` // HTML fragment
}
