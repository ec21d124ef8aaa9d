package storage

import (
	"sync"
	"time"

	"github.com/ishcherbinin/telegram-bot-booking/internal/model"
)

// InventoryEntry is one row of the static table inventory: a table id and
// the number of seats it offers. The inventory is loaded once at startup
// and never changes while the process runs.
type InventoryEntry struct {
	TableID  int
	Capacity int
}

// calendarDate holds one business date's table records. The slice is built
// once from the inventory template (or filled row by row during a restore)
// and the records inside it are mutated in place for the rest of the
// process lifetime; cancellation resets fields rather than removing a
// record, so there is always exactly one record per table per date.
type calendarDate struct {
	date   time.Time
	tables []*model.Table
}

// TableStorage owns the reservation calendar: the immutable inventory
// template plus a lazily materialized map from business date to that date's
// table records. A date's slice is created the first time the date is
// requested, so memory grows with the set of dates actually touched rather
// than with the calendar itself.
//
// The mutex makes individual operations safe to call from the HTTP handlers
// and the bot loop at once. It deliberately does not serialize whole
// booking flows: a flow holds a TableRef across several conversation turns,
// and two flows that search the same date before either confirms can be
// handed the same table. Only an explicit confirmation claims a table.
type TableStorage struct {
	mu        sync.RWMutex
	inventory []InventoryEntry
	calendar  map[string]*calendarDate
}

// NewTableStorage builds a storage with an empty calendar from the given
// inventory. The entries' order is preserved and becomes the order of every
// date's table slice.
func NewTableStorage(inventory []InventoryEntry) *TableStorage {
	return &TableStorage{
		inventory: append([]InventoryEntry(nil), inventory...),
		calendar:  make(map[string]*calendarDate),
	}
}

// normalizeDate strips the time-of-day and zone from a date so that any two
// time.Time values falling on the same calendar day map to the same bucket.
func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dateKey derives the calendar map key for a date.
func dateKey(t time.Time) string {
	return normalizeDate(t).Format(model.DateLayout)
}

// TablesForDate returns the table records for a business date, materializing
// them from the inventory template on first access. Repeated calls for the
// same date return the same underlying records, so a mutation made through
// one caller's slice is visible to every later caller of that date.
func (s *TableStorage) TablesForDate(date time.Time) []*model.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tablesForDateLocked(date)
}

func (s *TableStorage) tablesForDateLocked(date time.Time) []*model.Table {
	key := dateKey(date)
	if cd, ok := s.calendar[key]; ok {
		return cd.tables
	}
	day := normalizeDate(date)
	tables := make([]*model.Table, 0, len(s.inventory))
	for _, entry := range s.inventory {
		tables = append(tables, &model.Table{
			TableID:     entry.TableID,
			Capacity:    entry.Capacity,
			BookingDate: day,
		})
	}
	s.calendar[key] = &calendarDate{date: day, tables: tables}
	return tables
}

// AllTables returns a snapshot of every materialized date mapped to its
// table slice. The map is a fresh copy but the records themselves are the
// live ones, matching the aliasing contract of TablesForDate.
func (s *TableStorage) AllTables() map[time.Time][]*model.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[time.Time][]*model.Table, len(s.calendar))
	for _, cd := range s.calendar {
		out[cd.date] = cd.tables
	}
	return out
}

// TableRef is a stable key for one table record: the business date plus the
// table id. Handlers and the bot keep a TableRef across conversation turns
// instead of a raw pointer, which makes the record-aliasing contract
// explicit: resolving the same ref always yields the same live record.
type TableRef struct {
	Date    time.Time
	TableID int
}

// Ref builds the TableRef addressing a table record.
func Ref(t *model.Table) TableRef {
	return TableRef{Date: t.BookingDate, TableID: t.TableID}
}

// Lookup resolves a TableRef to its live record. It returns
// ErrTableNotFound when the date was never materialized or the id is not in
// that date's table set; it never materializes a date as a side effect.
func (s *TableStorage) Lookup(ref TableRef) (*model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupLocked(ref)
}

func (s *TableStorage) lookupLocked(ref TableRef) (*model.Table, error) {
	cd, ok := s.calendar[dateKey(ref.Date)]
	if !ok {
		return nil, ErrTableNotFound
	}
	for _, t := range cd.tables {
		if t.TableID == ref.TableID {
			return t, nil
		}
	}
	return nil, ErrTableNotFound
}

// Hold attaches a guest name and booking time to a free table, moving it
// into the pending state. IsReserved stays false so an abandoned flow
// leaves the table searchable; a later Hold simply overwrites the pending
// fields. Holding a confirmed table fails with ErrAlreadyReserved.
func (s *TableStorage) Hold(ref TableRef, guestName string, bookingTime model.BookingTime) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookupLocked(ref)
	if err != nil {
		return err
	}
	if t.IsReserved {
		return ErrAlreadyReserved
	}
	t.UserName = guestName
	t.BookingTime = bookingTime
	return nil
}

// Confirm turns a pending booking into a reservation, recording the
// requester's identity. It fails with ErrAlreadyReserved when the table is
// already confirmed and with ErrNotPending when nothing was held on it.
func (s *TableStorage) Confirm(ref TableRef, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookupLocked(ref)
	if err != nil {
		return err
	}
	if t.IsReserved {
		return ErrAlreadyReserved
	}
	if t.UserName == "" && !t.BookingTime.IsSet() {
		return ErrNotPending
	}
	t.IsReserved = true
	t.UserID = userID
	return nil
}

// Release abandons a pending booking, clearing the held fields so the table
// is fully free again. Releasing a confirmed table fails with
// ErrAlreadyReserved; use Cancel for that.
func (s *TableStorage) Release(ref TableRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookupLocked(ref)
	if err != nil {
		return err
	}
	if t.IsReserved {
		return ErrAlreadyReserved
	}
	t.UserName = ""
	t.BookingTime = model.BookingTime{}
	return nil
}

// Cancel clears a confirmed reservation, returning the table to the free
// state. The record itself stays in the calendar. Cancelling a table that
// is not reserved fails with ErrNotReserved. Ownership checks are the
// caller's concern: manager flows cancel unconditionally, self-service
// flows compare UserID first.
func (s *TableStorage) Cancel(ref TableRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookupLocked(ref)
	if err != nil {
		return err
	}
	if !t.IsReserved {
		return ErrNotReserved
	}
	t.IsReserved = false
	t.UserName = ""
	t.UserID = ""
	t.BookingTime = model.BookingTime{}
	return nil
}
