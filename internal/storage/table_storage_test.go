package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/ishcherbinin/telegram-bot-booking/internal/model"
)

// testInventory mirrors the restaurant's smallest useful floor plan: one
// four-seat table and one two-seat table.
func testInventory() []InventoryEntry {
	return []InventoryEntry{
		{TableID: 1, Capacity: 4},
		{TableID: 2, Capacity: 2},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTablesForDateMaterializesFromInventory(t *testing.T) {
	t.Parallel()
	s := NewTableStorage(testInventory())

	tables := s.TablesForDate(day(2026, time.September, 10))
	if len(tables) != 2 {
		t.Fatalf("TablesForDate: got %d tables, want 2", len(tables))
	}
	if tables[0].TableID != 1 || tables[0].Capacity != 4 {
		t.Errorf("first table: got id=%d capacity=%d, want id=1 capacity=4", tables[0].TableID, tables[0].Capacity)
	}
	if tables[1].TableID != 2 || tables[1].Capacity != 2 {
		t.Errorf("second table: got id=%d capacity=%d, want id=2 capacity=2", tables[1].TableID, tables[1].Capacity)
	}
	for _, tbl := range tables {
		if tbl.IsReserved || tbl.UserName != "" || tbl.BookingTime.IsSet() {
			t.Errorf("fresh table %d should have zero reservation state, got %+v", tbl.TableID, tbl)
		}
		if !tbl.BookingDate.Equal(day(2026, time.September, 10)) {
			t.Errorf("table %d booking date: got %s, want the requested date", tbl.TableID, tbl.BookingDate)
		}
	}
}

func TestTablesForDateReturnsSameRecords(t *testing.T) {
	t.Parallel()
	s := NewTableStorage(testInventory())
	date := day(2026, time.September, 11)

	first := s.TablesForDate(date)
	first[0].IsReserved = true
	first[0].UserName = "Anna"

	second := s.TablesForDate(date)
	if first[0] != second[0] {
		t.Fatal("repeated TablesForDate calls must return the same underlying records")
	}
	if !second[0].IsReserved || second[0].UserName != "Anna" {
		t.Errorf("mutation through first slice not visible via second: %+v", second[0])
	}
}

func TestTablesForDateDistinctAcrossDates(t *testing.T) {
	t.Parallel()
	s := NewTableStorage(testInventory())

	today := s.TablesForDate(day(2026, time.September, 12))
	tomorrow := s.TablesForDate(day(2026, time.September, 13))
	if today[0] == tomorrow[0] {
		t.Fatal("different dates must get distinct table records")
	}
	today[0].IsReserved = true
	if tomorrow[0].IsReserved {
		t.Error("reserving today's table 1 must not affect tomorrow's table 1")
	}
}

func TestTablesForDateIgnoresTimeOfDay(t *testing.T) {
	t.Parallel()
	s := NewTableStorage(testInventory())

	morning := s.TablesForDate(time.Date(2026, time.September, 14, 9, 30, 0, 0, time.UTC))
	evening := s.TablesForDate(time.Date(2026, time.September, 14, 21, 0, 0, 0, time.UTC))
	if morning[0] != evening[0] {
		t.Error("two times on the same calendar day must resolve to the same bucket")
	}
}

func TestLookupResolvesRef(t *testing.T) {
	t.Parallel()
	s := NewTableStorage(testInventory())
	date := day(2026, time.October, 1)
	tables := s.TablesForDate(date)

	got, err := s.Lookup(Ref(tables[1]))
	if err != nil {
		t.Fatalf("Lookup: unexpected error: %v", err)
	}
	if got != tables[1] {
		t.Error("Lookup must return the live record the ref was built from")
	}
}

func TestLookupUnknownRef(t *testing.T) {
	t.Parallel()
	s := NewTableStorage(testInventory())
	date := day(2026, time.October, 2)

	// Date never materialized.
	if _, err := s.Lookup(TableRef{Date: date, TableID: 1}); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("unmaterialized date: got %v, want ErrTableNotFound", err)
	}
	// Lookup must not materialize the date as a side effect.
	if len(s.AllTables()) != 0 {
		t.Error("Lookup materialized a date")
	}

	s.TablesForDate(date)
	if _, err := s.Lookup(TableRef{Date: date, TableID: 99}); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("unknown table id: got %v, want ErrTableNotFound", err)
	}
}

func TestHoldConfirmLifecycle(t *testing.T) {
	t.Parallel()
	s := NewTableStorage(testInventory())
	date := day(2026, time.October, 3)
	ref := TableRef{Date: date, TableID: 1}
	s.TablesForDate(date)

	if err := s.Hold(ref, "Boris", model.BookingTimeAtClock(19, 0)); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	tbl, _ := s.Lookup(ref)
	if tbl.IsReserved {
		t.Error("a held table must not be marked reserved yet")
	}
	if tbl.UserName != "Boris" || tbl.BookingTime != model.BookingTimeAtClock(19, 0) {
		t.Errorf("held fields not set: %+v", tbl)
	}

	if err := s.Confirm(ref, "42"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !tbl.IsReserved || tbl.UserID != "42" {
		t.Errorf("confirmed table state wrong: %+v", tbl)
	}

	// No re-booking without cancelling first.
	if err := s.Confirm(ref, "43"); !errors.Is(err, ErrAlreadyReserved) {
		t.Errorf("double confirm: got %v, want ErrAlreadyReserved", err)
	}
	if err := s.Hold(ref, "Clara", model.BookingTimeAtClock(20, 0)); !errors.Is(err, ErrAlreadyReserved) {
		t.Errorf("hold on reserved: got %v, want ErrAlreadyReserved", err)
	}
	if err := s.Release(ref); !errors.Is(err, ErrAlreadyReserved) {
		t.Errorf("release on reserved: got %v, want ErrAlreadyReserved", err)
	}
}

func TestConfirmWithoutHold(t *testing.T) {
	t.Parallel()
	s := NewTableStorage(testInventory())
	date := day(2026, time.October, 4)
	s.TablesForDate(date)

	err := s.Confirm(TableRef{Date: date, TableID: 1}, "42")
	if !errors.Is(err, ErrNotPending) {
		t.Errorf("confirm without hold: got %v, want ErrNotPending", err)
	}
}

func TestReleaseClearsPendingFields(t *testing.T) {
	t.Parallel()
	s := NewTableStorage(testInventory())
	date := day(2026, time.October, 5)
	ref := TableRef{Date: date, TableID: 2}
	s.TablesForDate(date)

	if err := s.Hold(ref, "Dana", model.NotApplicableBookingTime()); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if err := s.Release(ref); err != nil {
		t.Fatalf("Release: %v", err)
	}
	tbl, _ := s.Lookup(ref)
	if tbl.UserName != "" || tbl.BookingTime.IsSet() || tbl.IsReserved {
		t.Errorf("released table should be fully free: %+v", tbl)
	}
}

func TestCancelResetsRecordInPlace(t *testing.T) {
	t.Parallel()
	s := NewTableStorage(testInventory())
	date := day(2026, time.October, 6)
	ref := TableRef{Date: date, TableID: 1}
	before := s.TablesForDate(date)

	if err := s.Hold(ref, "Erik", model.BookingTimeAtClock(18, 15)); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if err := s.Confirm(ref, "7"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := s.Cancel(ref); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	after := s.TablesForDate(date)
	if len(after) != len(before) || after[0] != before[0] {
		t.Error("cancel must reset fields, not remove or replace the record")
	}
	tbl := after[0]
	if tbl.IsReserved || tbl.UserName != "" || tbl.UserID != "" || tbl.BookingTime.IsSet() {
		t.Errorf("cancelled table should be fully free: %+v", tbl)
	}

	if err := s.Cancel(ref); !errors.Is(err, ErrNotReserved) {
		t.Errorf("cancel on free table: got %v, want ErrNotReserved", err)
	}
}

func TestAllTablesSnapshot(t *testing.T) {
	t.Parallel()
	s := NewTableStorage(testInventory())
	d1 := day(2026, time.November, 1)
	d2 := day(2026, time.November, 2)
	s.TablesForDate(d1)
	s.TablesForDate(d2)

	all := s.AllTables()
	if len(all) != 2 {
		t.Fatalf("AllTables: got %d dates, want 2", len(all))
	}
	if len(all[d1]) != 2 || len(all[d2]) != 2 {
		t.Errorf("AllTables slices: got %d and %d tables, want 2 and 2", len(all[d1]), len(all[d2]))
	}
	// The snapshot aliases the live records.
	all[d1][0].IsReserved = true
	if !s.TablesForDate(d1)[0].IsReserved {
		t.Error("AllTables must expose the live records, not copies")
	}
}
