package models

import (
	"fmt"
	"sort"
)

// UnboundPool is the allocation key of the default category: every unit that is
// not bound to an active bounded category belongs to it, and any unbounded
// category may draw from it without limit.
const UnboundPool uint = 0

// StatusCount is one row of a "count units by category and status" query.
type StatusCount struct {
	CategoryID *uint
	Status     TicketStatus
	Count      int64
}

type PoolSummary struct {
	EventID    uint
	TotalSeats int
	Units      int
	// Allocation holds the number of units per allocation key (bounded category id or UnboundPool).
	Allocation map[uint]int
	// Available holds FREE and RELEASED units per allocation key.
	Available map[uint]int
	ByStatus  map[TicketStatus]int
	// Conservation is empty when the pool passes CheckConservation.
	Conservation string
}

// AllocationKey maps a unit's category binding onto the category that owns its capacity.
func AllocationKey(categoryID *uint, bounded map[uint]bool) uint {
	if categoryID == nil || !bounded[*categoryID] {
		return UnboundPool
	}
	return *categoryID
}

func boundedIndex(categories []TicketCategory) map[uint]bool {
	idx := make(map[uint]bool, len(categories))
	for _, c := range categories {
		if c.IsActive() && c.Bounded {
			idx[c.ID] = true
		}
	}
	return idx
}

// BoundAllocation is the sum of maxTickets over active bounded categories.
func BoundAllocation(categories []TicketCategory) int {
	total := 0
	for _, c := range categories {
		if c.IsActive() && c.Bounded {
			total += c.MaxTickets
		}
	}
	return total
}

func SummarizePool(event *Event, categories []TicketCategory, counts []StatusCount) PoolSummary {
	bounded := boundedIndex(categories)
	s := PoolSummary{
		EventID:    event.ID,
		TotalSeats: event.AvailableSeats,
		Allocation: map[uint]int{UnboundPool: 0},
		Available:  map[uint]int{UnboundPool: 0},
		ByStatus:   make(map[TicketStatus]int),
	}
	for id := range bounded {
		s.Allocation[id] = 0
		s.Available[id] = 0
	}
	for _, row := range counts {
		n := int(row.Count)
		key := AllocationKey(row.CategoryID, bounded)
		s.Units += n
		s.Allocation[key] += n
		s.ByStatus[row.Status] += n
		if row.Status.IsAvailable() {
			s.Available[key] += n
		}
	}
	return s
}

// CheckConservation verifies that the pool holds exactly one unit per seat and
// that every active bounded category owns exactly maxTickets units.
func (s PoolSummary) CheckConservation(categories []TicketCategory) error {
	if s.Units != s.TotalSeats {
		return fmt.Errorf("event %d has %d units for %d seats", s.EventID, s.Units, s.TotalSeats)
	}
	ids := make([]uint, 0, len(categories))
	byID := make(map[uint]TicketCategory, len(categories))
	for _, c := range categories {
		if c.IsActive() && c.Bounded {
			ids = append(ids, c.ID)
			byID[c.ID] = c
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if got := s.Allocation[id]; got != byID[id].MaxTickets {
			return fmt.Errorf("category %d owns %d units, expected %d", id, got, byID[id].MaxTickets)
		}
	}
	if bound := BoundAllocation(categories); bound+s.Allocation[UnboundPool] != s.TotalSeats {
		return fmt.Errorf("bound %d + unbound %d != %d seats", bound, s.Allocation[UnboundPool], s.TotalSeats)
	}
	return nil
}
