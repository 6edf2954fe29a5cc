package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/precip-history-service/internal/domain"
)

func marchObs(day, hour int, precip float64) domain.Observation {
	return domain.Observation{
		Year:       2025,
		Month:      time.March,
		DayOfMonth: day,
		HourOfDay:  hour,
		PrecipIn:   precip,
	}
}

func addrOf(day, hour int) domain.Address {
	return domain.HourRef{Year: 2025, Month: time.March, Day: day, Hour: hour}.Address()
}

func TestStoreInsertIfAbsent(t *testing.T) {
	t.Run("first write wins", func(t *testing.T) {
		store := NewStore()
		addr := addrOf(15, 14)

		require.True(t, store.InsertIfAbsent(addr, marchObs(15, 14, 0.02)))
		assert.False(t, store.InsertIfAbsent(addr, marchObs(15, 14, 9.99)))

		obs, ok := store.Get(addr)
		require.True(t, ok)
		assert.Equal(t, 0.02, obs.PrecipIn, "later insert must not change the stored record")
	})

	t.Run("exists tracks occupancy", func(t *testing.T) {
		store := NewStore()
		addr := addrOf(1, 0)

		assert.False(t, store.Exists(addr))
		store.InsertIfAbsent(addr, marchObs(1, 0, 0))
		assert.True(t, store.Exists(addr))
	})
}

func TestStoreAllAddresses(t *testing.T) {
	store := NewStore()
	store.InsertIfAbsent(addrOf(3, 10), marchObs(3, 10, 0))
	store.InsertIfAbsent(addrOf(1, 0), marchObs(1, 0, 0))
	store.InsertIfAbsent(addrOf(2, 5), marchObs(2, 5, 0))

	addrs := store.AllAddresses()
	assert.Equal(t, []domain.Address{addrOf(1, 0), addrOf(2, 5), addrOf(3, 10)}, addrs)

	// The snapshot stays stable while the store shrinks underneath it.
	for _, addr := range addrs {
		store.DeleteAll([]domain.Address{addr})
	}
	assert.Zero(t, store.Len())
}

func TestStoreDeleteAll(t *testing.T) {
	store := NewStore()
	store.InsertIfAbsent(addrOf(1, 0), marchObs(1, 0, 0))
	store.InsertIfAbsent(addrOf(1, 1), marchObs(1, 1, 0))

	store.DeleteAll([]domain.Address{addrOf(1, 0), addrOf(30, 23)}) // second address not present

	assert.False(t, store.Exists(addrOf(1, 0)))
	assert.True(t, store.Exists(addrOf(1, 1)))
	assert.Equal(t, 1, store.Len())
}

func TestStoreClear(t *testing.T) {
	store := NewStore()
	store.InsertIfAbsent(addrOf(5, 5), marchObs(5, 5, 0.5))
	store.Clear()

	assert.Zero(t, store.Len())
	assert.False(t, store.Exists(addrOf(5, 5)))
}

func TestStoreNewest(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		store := NewStore()
		_, ok := store.Newest()
		assert.False(t, ok)
	})

	t.Run("same month picks latest hour", func(t *testing.T) {
		store := NewStore()
		store.InsertIfAbsent(addrOf(15, 14), marchObs(15, 14, 0))
		store.InsertIfAbsent(addrOf(15, 16), marchObs(15, 16, 0))
		store.InsertIfAbsent(addrOf(14, 23), marchObs(14, 23, 0))

		newest, ok := store.Newest()
		require.True(t, ok)
		assert.Equal(t, 15, newest.DayOfMonth)
		assert.Equal(t, 16, newest.HourOfDay)
	})

	t.Run("month boundary beats address order", func(t *testing.T) {
		store := NewStore()
		feb := domain.Observation{Year: 2025, Month: time.February, DayOfMonth: 28, HourOfDay: 23}
		mar := domain.Observation{Year: 2025, Month: time.March, DayOfMonth: 1, HourOfDay: 0}
		store.InsertIfAbsent(domain.Address(671), feb) // February's last hour
		store.InsertIfAbsent(domain.Address(0), mar)

		newest, ok := store.Newest()
		require.True(t, ok)
		assert.Equal(t, time.March, newest.Month, "address 0 in March is newer than February's last hour")
	})

	t.Run("year boundary", func(t *testing.T) {
		store := NewStore()
		dec := domain.Observation{Year: 2024, Month: time.December, DayOfMonth: 31, HourOfDay: 23}
		jan := domain.Observation{Year: 2025, Month: time.January, DayOfMonth: 1, HourOfDay: 0}
		store.InsertIfAbsent(domain.Address(743), dec)
		store.InsertIfAbsent(domain.Address(0), jan)

		newest, ok := store.Newest()
		require.True(t, ok)
		assert.Equal(t, 2025, newest.Year)
	})
}
