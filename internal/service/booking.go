// Package service implements the booking flow on top of the calendar
// storage: finding and holding tables, confirming and cancelling
// reservations, cross-date queries and backups. Both the HTTP handlers and
// the Telegram bot drive this one service, so the flow logic lives in
// exactly one place.
package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/ishcherbinin/telegram-bot-booking/internal/model"
	"github.com/ishcherbinin/telegram-bot-booking/internal/queue"
	"github.com/ishcherbinin/telegram-bot-booking/internal/storage"
)

// ErrNoTableAvailable is returned when no free table can seat the requested
// party size on the requested date. Callers re-prompt rather than abort.
var ErrNoTableAvailable = errors.New("no table available for this party size")

// ErrNotOwner is returned when a self-service cancellation targets a
// reservation that belongs to a different user.
var ErrNotOwner = errors.New("reservation belongs to another user")

// EventPublisher publishes booking events to the broker. It is an interface
// so tests can capture events without a running RabbitMQ.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, event queue.BookingConfirmedEvent) error
}

// brokerPublisher is the production EventPublisher backed by RabbitMQ.
type brokerPublisher struct{}

func (brokerPublisher) PublishBookingConfirmed(ctx context.Context, event queue.BookingConfirmedEvent) error {
	return queue.PublishBookingConfirmed(ctx, event)
}

// BookingService wires the calendar storage to the presentation layers.
//
// Fields:
//  store      – the calendar storage owning all table state.
//  publisher  – destination for confirmed-booking events; may be nil to
//               disable publishing entirely.
//  backupPath – file the calendar is flushed to on Backup.
type BookingService struct {
	store      *storage.TableStorage
	publisher  EventPublisher
	backupPath string
}

// NewBookingService constructs a BookingService publishing to RabbitMQ.
func NewBookingService(store *storage.TableStorage, backupPath string) *BookingService {
	return &BookingService{store: store, publisher: brokerPublisher{}, backupPath: backupPath}
}

// NewBookingServiceWithPublisher is NewBookingService with an explicit
// publisher, used by tests.
func NewBookingServiceWithPublisher(store *storage.TableStorage, backupPath string, pub EventPublisher) *BookingService {
	return &BookingService{store: store, publisher: pub, backupPath: backupPath}
}

// TablesForDate exposes the storage's lazily materialized date view.
func (s *BookingService) TablesForDate(date time.Time) []*model.Table {
	return s.store.TablesForDate(date)
}

// FindTable returns the best-fit free table for a party on a date, along
// with the ref a flow should carry across its conversation turns. It
// returns ErrNoTableAvailable when nothing fits; the table is not held yet.
func (s *BookingService) FindTable(date time.Time, partySize int) (*model.Table, storage.TableRef, error) {
	tables := s.store.TablesForDate(date)
	t := s.store.SearchForTable(partySize, tables)
	if t == nil {
		return nil, storage.TableRef{}, ErrNoTableAvailable
	}
	return t, storage.Ref(t), nil
}

// HoldTable attaches the guest name and time to a found table, moving it to
// the pending state. The table stays searchable until ConfirmBooking.
func (s *BookingService) HoldTable(ref storage.TableRef, guestName string, bookingTime model.BookingTime) error {
	return s.store.Hold(ref, guestName, bookingTime)
}

// ConfirmBooking finalizes a pending booking for the given user and
// publishes a BookingConfirmedEvent. A publish failure is logged and
// swallowed: the reservation already happened and must not be rolled back
// because the broker is down.
func (s *BookingService) ConfirmBooking(ctx context.Context, ref storage.TableRef, userID string) (*model.Table, error) {
	if err := s.store.Confirm(ref, userID); err != nil {
		return nil, err
	}
	t, err := s.store.Lookup(ref)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil {
		ev := queue.BookingConfirmedEvent{
			TableID:     t.TableID,
			Capacity:    t.Capacity,
			BookingDate: t.ReadableBookingDate(),
			BookingTime: t.ReadableBookingTime(),
			UserName:    t.UserName,
			UserID:      t.UserID,
			ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.publisher.PublishBookingConfirmed(ctx, ev); err != nil {
			log.Printf("booking-service: publish confirmed event failed: %v", err)
		}
	}
	return t, nil
}

// RejectBooking abandons a pending booking, freeing the held fields.
func (s *BookingService) RejectBooking(ref storage.TableRef) error {
	return s.store.Release(ref)
}

// CancelBooking clears a confirmed reservation. When requesterID is
// non-empty the cancellation is scoped to the reservation's owner and
// ErrNotOwner is returned on a mismatch; manager flows pass an empty
// requesterID to cancel unconditionally.
func (s *BookingService) CancelBooking(ref storage.TableRef, requesterID string) error {
	if requesterID != "" {
		t, err := s.store.Lookup(ref)
		if err != nil {
			return err
		}
		if t.IsReserved && t.UserID != requesterID {
			return ErrNotOwner
		}
	}
	return s.store.Cancel(ref)
}

// UserBookings returns every confirmed reservation belonging to a user
// across all materialized dates, ordered by date then table id.
func (s *BookingService) UserBookings(userID string) []*model.Table {
	var out []*model.Table
	for _, tables := range s.store.AllTables() {
		for _, t := range tables {
			if t.IsReserved && t.UserID == userID {
				out = append(out, t)
			}
		}
	}
	sortTables(out)
	return out
}

// AllReservations returns every confirmed reservation across all
// materialized dates, ordered by date then table id.
func (s *BookingService) AllReservations() []*model.Table {
	var out []*model.Table
	for _, tables := range s.store.AllTables() {
		for _, t := range tables {
			if t.IsReserved {
				out = append(out, t)
			}
		}
	}
	sortTables(out)
	return out
}

// Backup flushes the whole calendar to the configured backup file.
func (s *BookingService) Backup() error {
	return s.store.BackupToFile(s.backupPath)
}

func sortTables(tables []*model.Table) {
	sort.Slice(tables, func(i, j int) bool {
		if !tables[i].BookingDate.Equal(tables[j].BookingDate) {
			return tables[i].BookingDate.Before(tables[j].BookingDate)
		}
		return tables[i].TableID < tables[j].TableID
	})
}
