package storage

import "github.com/ishcherbinin/telegram-bot-booking/internal/model"

// SearchForTable picks the best-fit free table for a party size out of the
// given candidates: among tables with enough seats that are not reserved it
// returns the one with the least surplus capacity, so a party of 3 gets the
// 4-seat table even when a 6-seat table is also free. Ties go to the first
// qualifying candidate in input order, which keeps results deterministic
// for a stable inventory ordering. It returns nil when no candidate
// qualifies.
//
// This is a greedy single-request policy. It has no lookahead, so a
// sequence of bookings can end up with a packing a global optimizer would
// beat; that is accepted.
//
// The returned pointer aliases the live calendar record. Returning a table
// does not claim it: only an explicit Confirm marks it reserved, and until
// then another search over the same date can hand out the same table.
func (s *TableStorage) SearchForTable(capacity int, tables []*model.Table) *model.Table {
	var best *model.Table
	for _, t := range tables {
		if t.IsReserved || t.Capacity < capacity {
			continue
		}
		if best == nil || t.Capacity < best.Capacity {
			best = t
		}
	}
	return best
}
