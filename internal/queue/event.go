// Package queue defines message payloads exchanged over the message broker.
package queue

// StayCheckedInEvent is published when a guest is checked into a room.
// It carries enough context for downstream consumers (housekeeping boards,
// notifications, analytics) without querying the primary database.
type StayCheckedInEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	GuestID       uint64 `json:"guest_id"`
	GuestName     string `json:"guest_name"`
	RoomID        uint64 `json:"room_id"`
	RoomNumber    string `json:"room_number"`
	FolioID       uint64 `json:"folio_id"`
	ArrivalDate   string `json:"arrival_date"`
	DepartureDate string `json:"departure_date"`
	CheckedInAt   string `json:"checked_in_at"`
}

// FolioInvoicedEvent is published when an invoice is cut for a folio.
type FolioInvoicedEvent struct {
	InvoiceID     uint64 `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	FolioID       uint64 `json:"folio_id"`
	GuestID       uint64 `json:"guest_id"`
	Total         string `json:"total"`
	LineCount     int    `json:"line_count"`
	IssuedAt      string `json:"issued_at"`
}
