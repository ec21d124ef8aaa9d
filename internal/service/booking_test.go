package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ishcherbinin/telegram-bot-booking/internal/model"
	"github.com/ishcherbinin/telegram-bot-booking/internal/queue"
	"github.com/ishcherbinin/telegram-bot-booking/internal/storage"
)

// capturePublisher records published events instead of talking to a broker.
type capturePublisher struct {
	events []queue.BookingConfirmedEvent
	err    error
}

func (p *capturePublisher) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func newTestService(t *testing.T) (*BookingService, *capturePublisher) {
	t.Helper()
	store := storage.NewTableStorage([]storage.InventoryEntry{
		{TableID: 1, Capacity: 4},
		{TableID: 2, Capacity: 2},
	})
	pub := &capturePublisher{}
	backup := filepath.Join(t.TempDir(), "backup.csv")
	return NewBookingServiceWithPublisher(store, backup, pub), pub
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBookingFlow(t *testing.T) {
	t.Parallel()
	svc, pub := newTestService(t)
	date := day(2026, time.September, 30)

	table, ref, err := svc.FindTable(date, 3)
	if err != nil {
		t.Fatalf("FindTable: %v", err)
	}
	if table.TableID != 1 {
		t.Fatalf("FindTable(3): got table %d, want 1 (best fit)", table.TableID)
	}

	if err := svc.HoldTable(ref, "Hanna", model.BookingTimeAtClock(20, 0)); err != nil {
		t.Fatalf("HoldTable: %v", err)
	}
	confirmed, err := svc.ConfirmBooking(context.Background(), ref, "314")
	if err != nil {
		t.Fatalf("ConfirmBooking: %v", err)
	}
	if !confirmed.IsReserved || confirmed.UserID != "314" {
		t.Errorf("confirmed table state wrong: %+v", confirmed)
	}

	if len(pub.events) != 1 {
		t.Fatalf("got %d published events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.TableID != 1 || ev.BookingDate != "30.09.2026" || ev.BookingTime != "20:00" ||
		ev.UserName != "Hanna" || ev.UserID != "314" {
		t.Errorf("published event wrong: %+v", ev)
	}
}

func TestFindTableNoneAvailable(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	_, _, err := svc.FindTable(day(2026, time.October, 1), 10)
	if !errors.Is(err, ErrNoTableAvailable) {
		t.Errorf("got %v, want ErrNoTableAvailable", err)
	}
}

func TestRejectLeavesTableSearchable(t *testing.T) {
	t.Parallel()
	svc, pub := newTestService(t)
	date := day(2026, time.October, 2)

	_, ref, err := svc.FindTable(date, 4)
	if err != nil {
		t.Fatalf("FindTable: %v", err)
	}
	if err := svc.HoldTable(ref, "Igor", model.BookingTimeAtClock(18, 0)); err != nil {
		t.Fatalf("HoldTable: %v", err)
	}
	if err := svc.RejectBooking(ref); err != nil {
		t.Fatalf("RejectBooking: %v", err)
	}

	table, _, err := svc.FindTable(date, 4)
	if err != nil {
		t.Fatalf("FindTable after reject: %v", err)
	}
	if table.TableID != 1 || table.UserName != "" {
		t.Errorf("rejected table should be free again: %+v", table)
	}
	if len(pub.events) != 0 {
		t.Errorf("reject must not publish events, got %d", len(pub.events))
	}
}

func TestPublishFailureDoesNotFailBooking(t *testing.T) {
	t.Parallel()
	svc, pub := newTestService(t)
	pub.err = errors.New("broker down")
	date := day(2026, time.October, 3)

	_, ref, err := svc.FindTable(date, 2)
	if err != nil {
		t.Fatalf("FindTable: %v", err)
	}
	if err := svc.HoldTable(ref, "Jana", model.BookingTimeAtClock(12, 0)); err != nil {
		t.Fatalf("HoldTable: %v", err)
	}
	if _, err := svc.ConfirmBooking(context.Background(), ref, "1"); err != nil {
		t.Errorf("ConfirmBooking must swallow publish errors, got %v", err)
	}
}

func TestCancelBookingOwnership(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	date := day(2026, time.October, 4)

	_, ref, err := svc.FindTable(date, 4)
	if err != nil {
		t.Fatalf("FindTable: %v", err)
	}
	if err := svc.HoldTable(ref, "Karl", model.BookingTimeAtClock(19, 0)); err != nil {
		t.Fatalf("HoldTable: %v", err)
	}
	if _, err := svc.ConfirmBooking(context.Background(), ref, "owner-1"); err != nil {
		t.Fatalf("ConfirmBooking: %v", err)
	}

	if err := svc.CancelBooking(ref, "intruder"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("foreign cancellation: got %v, want ErrNotOwner", err)
	}
	// Manager override with empty requester id.
	if err := svc.CancelBooking(ref, ""); err != nil {
		t.Errorf("manager cancellation: %v", err)
	}
}

func TestUserBookingsAcrossDates(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	book := func(date time.Time, seats int, name, userID string) {
		t.Helper()
		_, ref, err := svc.FindTable(date, seats)
		if err != nil {
			t.Fatalf("FindTable: %v", err)
		}
		if err := svc.HoldTable(ref, name, model.BookingTimeAtClock(19, 0)); err != nil {
			t.Fatalf("HoldTable: %v", err)
		}
		if _, err := svc.ConfirmBooking(context.Background(), ref, userID); err != nil {
			t.Fatalf("ConfirmBooking: %v", err)
		}
	}

	book(day(2026, time.October, 6), 4, "Lena", "u1")
	book(day(2026, time.October, 5), 2, "Lena", "u1")
	book(day(2026, time.October, 6), 2, "Mark", "u2")

	mine := svc.UserBookings("u1")
	if len(mine) != 2 {
		t.Fatalf("UserBookings(u1): got %d, want 2", len(mine))
	}
	// Ordered by date.
	if !mine[0].BookingDate.Before(mine[1].BookingDate) {
		t.Error("UserBookings must be ordered by date")
	}

	all := svc.AllReservations()
	if len(all) != 3 {
		t.Errorf("AllReservations: got %d, want 3", len(all))
	}
}

func TestServiceBackupRoundTrip(t *testing.T) {
	t.Parallel()
	store := storage.NewTableStorage([]storage.InventoryEntry{{TableID: 1, Capacity: 4}})
	backup := filepath.Join(t.TempDir(), "backup.csv")
	svc := NewBookingServiceWithPublisher(store, backup, nil)
	date := day(2026, time.October, 7)

	_, ref, err := svc.FindTable(date, 4)
	if err != nil {
		t.Fatalf("FindTable: %v", err)
	}
	if err := svc.HoldTable(ref, "Nora", model.NotApplicableBookingTime()); err != nil {
		t.Fatalf("HoldTable: %v", err)
	}
	if _, err := svc.ConfirmBooking(context.Background(), ref, "u9"); err != nil {
		t.Fatalf("ConfirmBooking: %v", err)
	}
	if err := svc.Backup(); err != nil {
		t.Fatalf("Backup: %v", err)
	}

	fresh := storage.NewTableStorage([]storage.InventoryEntry{{TableID: 1, Capacity: 4}})
	if err := fresh.RestoreFromFile(backup); err != nil {
		t.Fatalf("RestoreFromFile: %v", err)
	}
	restored := fresh.AllTables()[date]
	if len(restored) != 1 || !restored[0].IsReserved || restored[0].UserName != "Nora" {
		t.Errorf("restored reservation wrong: %+v", restored)
	}
}
