package storage

// This file implements the flat-file persistence of the calendar: loading
// the static inventory template, writing the full calendar to a backup CSV
// and restoring it after a restart. The backup schema is explicit and the
// decoder is strict: any malformed field fails the whole operation, because
// a partially restored calendar is worse than an empty one.

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/ishcherbinin/telegram-bot-booking/internal/model"
)

// templateHeader is the required header of the inventory template file.
var templateHeader = []string{"table_number", "capacity"}

// backupHeader is the fixed column order of the backup file. The first
// column keys the calendar bucket; booking_date repeats the record's own
// date field so a row is self-contained.
var backupHeader = []string{
	"date", "table_id", "capacity", "is_reserved",
	"booking_date", "booking_time", "user_name", "user_id",
}

// FromTemplateFile builds a fresh TableStorage from the static inventory
// template: a CSV with a table_number,capacity header and one integer row
// per physical table. The inventory is foundational, so any malformed row
// is an error and the caller is expected to treat it as fatal.
func FromTemplateFile(path string) (*TableStorage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("template %s: missing header row", path)
	}
	if err := checkHeader(records[0], templateHeader); err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}

	inventory := make([]InventoryEntry, 0, len(records)-1)
	for i, rec := range records[1:] {
		id, err := parsePositiveInt(rec[0])
		if err != nil {
			return nil, fmt.Errorf("template %s row %d: table_number: %w", path, i+2, err)
		}
		capacity, err := parsePositiveInt(rec[1])
		if err != nil {
			return nil, fmt.Errorf("template %s row %d: capacity: %w", path, i+2, err)
		}
		inventory = append(inventory, InventoryEntry{TableID: id, Capacity: capacity})
	}
	return NewTableStorage(inventory), nil
}

// BackupToFile serializes every materialized date's tables into the backup
// file, one row per table per date, overwriting whatever was there. Dates
// are written in ascending order so backups of the same calendar are
// byte-comparable.
func (s *TableStorage) BackupToFile(path string) error {
	s.mu.RLock()
	keys := make([]string, 0, len(s.calendar))
	for k := range s.calendar {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.calendar[keys[i]].date.Before(s.calendar[keys[j]].date)
	})

	rows := [][]string{backupHeader}
	for _, k := range keys {
		cd := s.calendar[k]
		for _, t := range cd.tables {
			rows = append(rows, encodeBackupRow(cd.date, t))
		}
	}
	s.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write backup: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close backup: %w", err)
	}
	return nil
}

// RestoreFromFile reads a backup file back into the calendar. Every row is
// decoded before anything is applied, so a corrupt file leaves the calendar
// untouched and the caller can continue with a clean one. Rows whose
// fingerprint (table_id, booking_date, booking_time) was already seen in
// this call are skipped, which tolerates an accidentally duplicated backup.
// The load is additive to whatever is already in memory; the intended use
// is a single restore at startup before any live traffic.
func (s *TableStorage) RestoreFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("backup %s: missing header row", path)
	}
	if err := checkHeader(records[0], backupHeader); err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}

	type restoredRow struct {
		bucket time.Time
		table  *model.Table
	}
	seen := make(map[string]struct{})
	rows := make([]restoredRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		bucket, t, err := decodeBackupRow(rec)
		if err != nil {
			return fmt.Errorf("backup %s row %d: %w", path, i+2, err)
		}
		fp := fingerprint(t)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		rows = append(rows, restoredRow{bucket: bucket, table: t})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		key := dateKey(row.bucket)
		cd, ok := s.calendar[key]
		if !ok {
			cd = &calendarDate{date: normalizeDate(row.bucket)}
			s.calendar[key] = cd
		}
		cd.tables = append(cd.tables, row.table)
	}
	return nil
}

// fingerprint derives the dedup key for a restored row.
func fingerprint(t *model.Table) string {
	return fmt.Sprintf("%d|%s|%s", t.TableID, t.ReadableBookingDate(), t.BookingTime)
}

func encodeBackupRow(bucket time.Time, t *model.Table) []string {
	return []string{
		bucket.Format(model.DateLayout),
		strconv.Itoa(t.TableID),
		strconv.Itoa(t.Capacity),
		encodeBool(t.IsReserved),
		t.ReadableBookingDate(),
		t.BookingTime.String(),
		t.UserName,
		t.UserID,
	}
}

func decodeBackupRow(rec []string) (time.Time, *model.Table, error) {
	bucket, err := time.Parse(model.DateLayout, rec[0])
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("date: %w", err)
	}
	id, err := parsePositiveInt(rec[1])
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("table_id: %w", err)
	}
	capacity, err := parsePositiveInt(rec[2])
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("capacity: %w", err)
	}
	reserved, err := parseBool(rec[3])
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("is_reserved: %w", err)
	}
	// booking_date repeats the bucket date; an empty field falls back to it.
	bookingDate := bucket
	if rec[4] != "" {
		bookingDate, err = time.Parse(model.DateLayout, rec[4])
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("booking_date: %w", err)
		}
	}
	bookingTime, err := model.ParseBookingTime(rec[5])
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("booking_time: %w", err)
	}
	return bucket, &model.Table{
		TableID:     id,
		Capacity:    capacity,
		IsReserved:  reserved,
		BookingDate: bookingDate,
		BookingTime: bookingTime,
		UserName:    rec[6],
		UserID:      rec[7],
	}, nil
}

// encodeBool writes booleans the way the backup format defines them:
// literal True/False strings.
func encodeBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func parseBool(s string) (bool, error) {
	switch s {
	case "True":
		return true, nil
	case "False":
		return false, nil
	}
	return false, fmt.Errorf("invalid bool %q: want True or False", s)
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("integer %d out of range: must be positive", n)
	}
	return n, nil
}

// checkHeader verifies an exact match of a file's header row. csv.Reader
// already enforces a uniform field count on the remaining rows.
func checkHeader(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("header has %d columns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("header column %d is %q, want %q", i+1, got[i], want[i])
		}
	}
	return nil
}
