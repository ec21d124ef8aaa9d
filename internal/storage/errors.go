// Package storage defines error values that the calendar store returns from
// lookups and reservation-state transitions. These sentinels let callers
// such as the booking service and the HTTP handlers distinguish failure
// modes with errors.Is instead of matching message text.
package storage

import "errors"

// ErrTableNotFound is returned when a TableRef does not resolve to a record,
// either because the date was never materialized or the table id is not part
// of the inventory.
var ErrTableNotFound = errors.New("table not found")

// ErrAlreadyReserved is returned when a hold, release or re-confirmation is
// attempted on a table that is already confirmed. A reserved table must be
// cancelled before it can be booked again.
var ErrAlreadyReserved = errors.New("table already reserved")

// ErrNotPending is returned when a confirmation is attempted on a table that
// has no pending booking attached (no guest name and no time).
var ErrNotPending = errors.New("table has no pending booking")

// ErrNotReserved is returned when a cancellation is attempted on a table
// that is not confirmed.
var ErrNotReserved = errors.New("table is not reserved")
