package database

import (
	"context"
	"testing"
	"time"

	"stayhub/internal/domain"
	"stayhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRooms_CRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	room := createTestRoom(t, db)
	assert.NotZero(t, room.ID)
	assert.False(t, room.CreatedAt.IsZero())

	t.Run("Get", func(t *testing.T) {
		got, err := db.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, room.Title, got.Title)
		assert.Equal(t, models.PropertyApartment, got.PropertyType)
		assert.Equal(t, models.CurrencyUSD, got.Currency)
		assert.Equal(t, 1.5, got.WeekendMultiplier)
		assert.True(t, got.IsAvailable)
		assert.Nil(t, got.LastBookedAt)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		_, err := db.GetRoom(ctx, 9999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		room.BasePrice = 12345
		room.Status = models.RoomStatusHidden
		require.NoError(t, db.UpdateRoom(ctx, room))

		got, err := db.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(12345), got.BasePrice)
		assert.Equal(t, models.RoomStatusHidden, got.Status)
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		missing := testRoom(1)
		missing.ID = 9999
		assert.ErrorIs(t, db.UpdateRoom(ctx, missing), domain.ErrNotFound)
	})

	t.Run("TouchLastBooked", func(t *testing.T) {
		at := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
		require.NoError(t, db.TouchLastBooked(ctx, room.ID, at))

		got, err := db.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastBookedAt)
		assert.True(t, at.Equal(*got.LastBookedAt))
	})

	t.Run("LockRoomInTx", func(t *testing.T) {
		err := db.WithTx(ctx, func(tx domain.Tx) error {
			got, err := tx.LockRoom(ctx, room.ID)
			if err != nil {
				return err
			}
			assert.Equal(t, room.ID, got.ID)
			return nil
		})
		assert.NoError(t, err)
	})
}

func TestSearchRooms(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	almaty := createTestRoom(t, db)

	astana := testRoom(101)
	astana.City = "Astana"
	astana.GuestsCnt = 2
	astana.BasePrice = 5000
	require.NoError(t, db.CreateRoom(ctx, astana))

	hidden := testRoom(102)
	hidden.Status = models.RoomStatusHidden
	require.NoError(t, db.CreateRoom(ctx, hidden))

	longStay := testRoom(103)
	longStay.MinStay = 7
	longStay.MaxStay = 30
	require.NoError(t, db.CreateRoom(ctx, longStay))

	unseeded := testRoom(104)
	require.NoError(t, db.CreateRoom(ctx, unseeded))

	month := span("2025-03-01", "2025-04-01")
	for _, id := range []int64{almaty.ID, astana.ID, hidden.ID, longStay.ID} {
		_, err := db.SeedCalendar(ctx, id, month)
		require.NoError(t, err)
	}

	page := models.Page{Number: 1, Size: 20}

	t.Run("NoDates", func(t *testing.T) {
		rooms, err := db.SearchRooms(ctx, models.RoomFilter{}, nil, page)
		require.NoError(t, err)
		assert.Equal(t, []int64{almaty.ID, astana.ID, longStay.ID}, roomIDs(rooms), "unseeded room is not listed")
	})

	t.Run("CityCaseInsensitive", func(t *testing.T) {
		rooms, err := db.SearchRooms(ctx, models.RoomFilter{City: "astana"}, nil, page)
		require.NoError(t, err)
		assert.Equal(t, []int64{astana.ID}, roomIDs(rooms))
	})

	t.Run("GuestsAndPrice", func(t *testing.T) {
		rooms, err := db.SearchRooms(ctx, models.RoomFilter{Guests: 3, MaxPrice: 10000}, nil, page)
		require.NoError(t, err)
		assert.Equal(t, []int64{almaty.ID, longStay.ID}, roomIDs(rooms))

		rooms, err = db.SearchRooms(ctx, models.RoomFilter{MinPrice: 6000}, nil, page)
		require.NoError(t, err)
		assert.NotContains(t, roomIDs(rooms), astana.ID)
	})

	t.Run("UnseededNightsAreUnavailable", func(t *testing.T) {
		r := span("2025-05-10", "2025-05-12")
		rooms, err := db.SearchRooms(ctx, models.RoomFilter{}, &r, page)
		require.NoError(t, err)
		assert.Empty(t, rooms)
	})

	t.Run("DatesAndStayLength", func(t *testing.T) {
		_, err := holdRange(ctx, db, astana.ID, span("2025-03-11", "2025-03-12"))
		require.NoError(t, err)

		r := span("2025-03-10", "2025-03-12")
		rooms, err := db.SearchRooms(ctx, models.RoomFilter{}, &r, page)
		require.NoError(t, err)
		assert.Equal(t, []int64{almaty.ID}, roomIDs(rooms), "astana is held, long stay needs 7 nights")

		week := span("2025-03-01", "2025-03-08")
		rooms, err = db.SearchRooms(ctx, models.RoomFilter{}, &week, page)
		require.NoError(t, err)
		assert.Equal(t, []int64{almaty.ID, astana.ID, longStay.ID}, roomIDs(rooms))
	})

	t.Run("Pagination", func(t *testing.T) {
		rooms, err := db.SearchRooms(ctx, models.RoomFilter{}, nil, models.Page{Number: 2, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, []int64{longStay.ID}, roomIDs(rooms))
	})
}

func roomIDs(rooms []*models.Room) []int64 {
	ids := make([]int64, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	return ids
}
