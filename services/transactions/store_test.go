package transactions

import (
	"context"
	"net/http"
	"testing"
	"time"

	"prestoassist-backend/lib/testutil"
	"prestoassist-backend/lib/timezone"
	"prestoassist-backend/services/transactions/db"

	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (Store, func()) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "transactions",
		DbSchema: db.Schema,
	})
	return NewStore(result.DB), cleanup
}

func fakeRecord(userId, cardNumber string, date time.Time) Record {
	return Record{
		UserID:       userId,
		CardNumber:   cardNumber,
		Date:         date,
		DateRaw:      date.Format("1/2/2006 3:04:05 PM"),
		Agency:       "Toronto Transit Commission",
		Location:     "BAY STATION",
		Type:         "Fare Payment",
		ServiceClass: "Regular",
		Discount:     "0.00",
		Amount:       "3.10",
		Balance:      "3.85",
	}
}

func TestStoreCursor(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()
	card := testutil.RandomCardNumber(t)

	_, ok, err := store.MaxDate(ctx, "user", card)
	require.NoError(t, err)
	require.False(t, ok, "empty card must have no cursor")

	base := time.Date(2019, 4, 28, 17, 32, 26, 0, timezone.Location)
	records := []Record{
		fakeRecord("user", card, base),
		fakeRecord("user", card, base.Add(48*time.Hour)),
		fakeRecord("user", card, base.Add(24*time.Hour)),
	}
	inserted, err := store.InsertMany(ctx, records)
	require.NoError(t, err)
	require.EqualValues(t, 3, inserted)

	maxDate, ok, err := store.MaxDate(ctx, "user", card)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, maxDate.Equal(base.Add(48*time.Hour)))

	// the cursor is scoped to the (user, card) pair
	_, ok, err = store.MaxDate(ctx, "other-user", card)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreDedup(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()
	card := testutil.RandomCardNumber(t)
	date := time.Date(2019, 4, 30, 20, 8, 43, 0, timezone.Location)

	ok, err := store.Exists(ctx, "user", card, date)
	require.NoError(t, err)
	require.False(t, ok)

	inserted, err := store.InsertMany(ctx, []Record{fakeRecord("user", card, date)})
	require.NoError(t, err)
	require.EqualValues(t, 1, inserted)

	ok, err = store.Exists(ctx, "user", card, date)
	require.NoError(t, err)
	require.True(t, ok)

	// re-delivering the same row must not create a duplicate
	inserted, err = store.InsertMany(ctx, []Record{fakeRecord("user", card, date)})
	require.NoError(t, err)
	require.EqualValues(t, 0, inserted)

	records, err := store.ListByCard(ctx, "user", card)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestStoreListByCard(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()
	card := testutil.RandomCardNumber(t)
	otherCard := testutil.RandomCardNumber(t)

	base := time.Date(2019, 4, 28, 12, 0, 0, 0, timezone.Location)
	_, err := store.InsertMany(ctx, []Record{
		fakeRecord("user", card, base),
		fakeRecord("user", card, base.Add(time.Hour)),
		fakeRecord("user", otherCard, base),
	})
	require.NoError(t, err)

	records, err := store.ListByCard(ctx, "user", card)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.True(t, records[0].Date.After(records[1].Date), "newest first")
	for _, record := range records {
		require.Equal(t, card, record.CardNumber)
		require.Equal(t, "BAY STATION", record.Location)
	}
}

func TestStoreSessions(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()

	_, ok, err := store.GetSession(ctx, "user")
	require.NoError(t, err)
	require.False(t, ok)

	cookies := []*http.Cookie{
		{Name: "AFMSAuthSession", Value: "abc123", Path: "/"},
		{Name: "clearance", Value: "xyz", Path: "/"},
	}
	err = store.SaveSession(ctx, "user", cookies)
	require.NoError(t, err)

	restored, ok, err := store.GetSession(ctx, "user")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, restored, 2)
	require.Equal(t, "AFMSAuthSession", restored[0].Name)
	require.Equal(t, "abc123", restored[0].Value)

	// saving again overwrites rather than duplicating
	err = store.SaveSession(ctx, "user", cookies[:1])
	require.NoError(t, err)
	restored, ok, err = store.GetSession(ctx, "user")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, restored, 1)

	err = store.DeleteSession(ctx, "user")
	require.NoError(t, err)
	_, ok, err = store.GetSession(ctx, "user")
	require.NoError(t, err)
	require.False(t, ok)
}
