// Package model defines the domain entities of the table booking system.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the human-readable calendar date format used everywhere a
// date crosses a boundary: backup files, bot dialogue, API parameters.
const DateLayout = "02.01.2006"

// notApplicableMarker is the wire encoding of a forced booking's time.  It
// never appears in the model itself, only in serialized rows and rendered
// text.
const notApplicableMarker = "N/A"

// BookingTimeKind discriminates the three states a reservation time can be
// in.  A table that has never been held has an unset time; a normal booking
// carries a concrete time of day; a forced booking (walk-in seated by a
// manager) carries an explicit not-applicable marker instead of a time.
type BookingTimeKind uint8

const (
	BookingTimeUnset BookingTimeKind = iota // no time attached
	BookingTimeAt                           // concrete time of day
	BookingTimeNotApplicable                // forced booking, no meaningful time
)

// BookingTime is an optional time of day attached to a reservation.
//
// Fields:
//  Kind   – which of the three variants this value is.
//  Hour   – hour of day (0–23), meaningful only when Kind is BookingTimeAt.
//  Minute – minute of hour (0–59), meaningful only when Kind is BookingTimeAt.
type BookingTime struct {
	Kind   BookingTimeKind
	Hour   int
	Minute int
}

// BookingTimeAtClock builds a concrete booking time from an hour and minute.
func BookingTimeAtClock(hour, minute int) BookingTime {
	return BookingTime{Kind: BookingTimeAt, Hour: hour, Minute: minute}
}

// NotApplicableBookingTime returns the explicit "no meaningful time" variant
// used by forced bookings.
func NotApplicableBookingTime() BookingTime {
	return BookingTime{Kind: BookingTimeNotApplicable}
}

// ParseBookingTime decodes the wire form of a booking time.  The empty
// string decodes to the unset variant and the N/A marker to the
// not-applicable variant; anything else must be a valid HH:MM clock time.
func ParseBookingTime(s string) (BookingTime, error) {
	switch s {
	case "":
		return BookingTime{}, nil
	case notApplicableMarker:
		return NotApplicableBookingTime(), nil
	}
	h, m, ok := splitClock(s)
	if !ok {
		return BookingTime{}, fmt.Errorf("invalid booking time %q: want HH:MM", s)
	}
	return BookingTimeAtClock(h, m), nil
}

// splitClock parses "HH:MM" into its components, validating ranges.
func splitClock(s string) (hour, minute int, ok bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// IsSet reports whether the time carries any reservation information,
// i.e. it is not the unset variant.
func (bt BookingTime) IsSet() bool { return bt.Kind != BookingTimeUnset }

// String renders the wire form: empty for unset, the N/A marker for
// not-applicable, HH:MM otherwise.
func (bt BookingTime) String() string {
	switch bt.Kind {
	case BookingTimeAt:
		return fmt.Sprintf("%02d:%02d", bt.Hour, bt.Minute)
	case BookingTimeNotApplicable:
		return notApplicableMarker
	default:
		return ""
	}
}

// Table represents one physical table's reservation state for one calendar
// date.  Each business date owns its own logical copy of every table, so
// the same TableID appears once per materialized date with independent
// reservation fields.
//
// Fields:
//  TableID     – identifier, unique within a single date's table set.
//  Capacity    – number of seats; fixed for a TableID across all dates.
//  IsReserved  – true once a booking has been explicitly confirmed.
//  BookingDate – the calendar date this record belongs to.
//  BookingTime – optional time of day; set while a booking is pending or
//                confirmed.
//  UserName    – display name the booking was taken under, if any.
//  UserID      – stable identifier of the requester, set on confirmation;
//                used to scope self-service cancellation and lookups.
type Table struct {
	TableID     int
	Capacity    int
	IsReserved  bool
	BookingDate time.Time
	BookingTime BookingTime
	UserName    string
	UserID      string
}

// ReadableBookingDate renders the table's date as DD.MM.YYYY, or an empty
// string when the record has no date yet.
func (t *Table) ReadableBookingDate() string {
	if t.BookingDate.IsZero() {
		return ""
	}
	return t.BookingDate.Format(DateLayout)
}

// ReadableBookingTime renders the reservation time for display: HH:MM for a
// concrete time, N/A for a forced booking, empty otherwise.
func (t *Table) ReadableBookingTime() string { return t.BookingTime.String() }

// String summarizes the table for logs and bot replies.
func (t *Table) String() string {
	return fmt.Sprintf("Table %d with capacity %d on %s is reserved: %t by %q",
		t.TableID, t.Capacity, t.ReadableBookingDate(), t.IsReserved, t.UserName)
}
