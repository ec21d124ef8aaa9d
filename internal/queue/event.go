// Package queue defines the booking events exchanged over the message
// broker together with the publisher and consumer that move them.
package queue

// BookingConfirmedEvent is published when a table reservation is confirmed.
// It carries everything a downstream consumer needs to notify staff or log
// the booking without reaching back into the live calendar.
type BookingConfirmedEvent struct {
	TableID     int    `json:"table_id"`
	Capacity    int    `json:"capacity"`
	BookingDate string `json:"booking_date"`
	BookingTime string `json:"booking_time"`
	UserName    string `json:"user_name"`
	UserID      string `json:"user_id"`
	ConfirmedAt string `json:"confirmed_at"`
}
