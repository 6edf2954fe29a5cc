package history

import "github.com/couchcryptid/precip-history-service/internal/domain"

// AddressSet is a set of hour-of-month addresses.
type AddressSet map[domain.Address]struct{}

// Contains reports set membership.
func (s AddressSet) Contains(addr domain.Address) bool {
	_, ok := s[addr]
	return ok
}

// LiveAddresses computes the set of addresses the retention policy keeps:
// the window of retentionHours hours ending at current, inclusive, which is
// always exactly retentionHours+1 slots.
//
// When the window fits inside the current month the set is the single run
// [current-retentionHours .. current]. Early in a month the window straddles
// the boundary: the set is everything so far this month, [0 .. current],
// plus the trailing slots of the previous month. Both sub-ranges live in the
// same numbering space: last month's tail occupies high addresses that this
// month has not reached yet.
//
// maxHoursLastMonth is the slot capacity of the previous month (744 for a
// 31-day month). Callers with no prior-month history may pass 0, collapsing
// the tail range to empty. maxHoursThisMonth only bounds current against
// impossible inputs.
func LiveAddresses(current domain.Address, retentionHours, maxHoursThisMonth, maxHoursLastMonth int) AddressSet {
	c := int(current)
	if c > maxHoursThisMonth-1 {
		c = maxHoursThisMonth - 1
	}

	live := make(AddressSet, retentionHours+1)
	if c-retentionHours > 0 {
		for a := c - retentionHours; a <= c; a++ {
			live[domain.Address(a)] = struct{}{}
		}
		return live
	}

	for a := 0; a <= c; a++ {
		live[domain.Address(a)] = struct{}{}
	}
	// Tail of the previous month. The lower bound lands at 1 or above so the
	// combined set never exceeds retentionHours+1 slots; address 0 already
	// belongs to the current month's range.
	lo := maxHoursLastMonth - retentionHours + c + 1
	if lo < 1 {
		lo = 1
	}
	for a := lo; a <= maxHoursLastMonth; a++ {
		live[domain.Address(a)] = struct{}{}
	}
	return live
}

// Purge removes every stored record whose address is outside live and
// returns the removed addresses in ascending order. The doomed set is taken
// from a snapshot before any delete happens, so purging is idempotent: a
// second pass with the same live set removes nothing.
func Purge(store *Store, live AddressSet) []domain.Address {
	var doomed []domain.Address
	for _, addr := range store.AllAddresses() {
		if !live.Contains(addr) {
			doomed = append(doomed, addr)
		}
	}
	store.DeleteAll(doomed)
	return doomed
}

// ExpiredCounterpart returns the single address that ages out when current
// becomes the newest slot, the incremental complement to a bulk Purge.
// Inside a month that is simply current-retentionHours; at the straddle it
// is the previous month's slot the same distance back. The straddle form
// trails LiveAddresses' lower bound by one slot, so a cycle that relies on
// it alone retains one extra record until the next bulk purge reconciles.
func ExpiredCounterpart(current domain.Address, retentionHours, maxHoursLastMonth int) domain.Address {
	c := int(current)
	if c-retentionHours > 0 {
		return domain.Address(c - retentionHours)
	}
	return domain.Address(maxHoursLastMonth - retentionHours + c)
}
