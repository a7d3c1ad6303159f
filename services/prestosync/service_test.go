package prestosync

import (
	"context"
	"errors"
	"testing"
	"time"

	"prestoassist-backend/lib/scrapers/presto"
	"prestoassist-backend/lib/scrapers/presto/prestotest"
	"prestoassist-backend/lib/testutil"
	"prestoassist-backend/lib/timezone"
	"prestoassist-backend/services/transactions"
	"prestoassist-backend/services/transactions/db"

	"github.com/stretchr/testify/require"
)

const (
	testUsername = "user@example.com"
	testPassword = "hunter2"
)

type syncFixture struct {
	portal  *prestotest.Server
	store   transactions.Store
	service *Service
	card    string
}

func setupSync(t *testing.T) (syncFixture, func()) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "prestosync",
		DbSchema: db.Schema,
	})

	card := testutil.RandomCardNumber(t)
	portal := prestotest.NewServer(testUsername, testPassword, []prestotest.Card{
		{Number: card, Balance: "3.85"},
	})
	store := transactions.NewStore(result.DB)
	service := NewService(store, Options{BaseUrl: portal.URL()})

	return syncFixture{
			portal:  portal,
			store:   store,
			service: service,
			card:    card,
		}, func() {
			portal.Close()
			cleanup()
		}
}

func fareRow(date, amount, balance string) prestotest.ActivityRow {
	return prestotest.ActivityRow{
		Date:         date,
		Agency:       "Toronto Transit Commission",
		Location:     "BAY STATION",
		Type:         "Fare Payment",
		ServiceClass: "Regular",
		Discount:     "0.00",
		Amount:       amount,
		Balance:      balance,
	}
}

func TestLoginPersistsSession(t *testing.T) {
	fixture, cleanup := setupSync(t)
	defer cleanup()

	ctx := context.Background()

	loggedIn, err := fixture.service.CheckLogin(ctx, "user")
	require.NoError(t, err)
	require.False(t, loggedIn)

	cards, err := fixture.service.Login(ctx, "user", testUsername, testPassword)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.Equal(t, fixture.card, cards[0].Number)

	loggedIn, err = fixture.service.CheckLogin(ctx, "user")
	require.NoError(t, err)
	require.True(t, loggedIn)

	// a separate service over the same store starts with a cold cache
	// and must restore the session from the persisted cookies
	restored := NewService(fixture.store, Options{BaseUrl: fixture.portal.URL()})
	loggedIn, err = restored.CheckLogin(ctx, "user")
	require.NoError(t, err)
	require.True(t, loggedIn)

	cards, err = restored.Cards(ctx, "user")
	require.NoError(t, err)
	require.Len(t, cards, 1)

	err = fixture.service.Logout(ctx, "user")
	require.NoError(t, err)
	loggedIn, err = fixture.service.CheckLogin(ctx, "user")
	require.NoError(t, err)
	require.False(t, loggedIn)
}

func TestLoginInvalidCredentials(t *testing.T) {
	fixture, cleanup := setupSync(t)
	defer cleanup()

	_, err := fixture.service.Login(context.Background(), "user", testUsername, "wrong")
	var authErr *presto.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, presto.KindInvalidCredentials, authErr.Kind)
}

func TestSyncIdempotence(t *testing.T) {
	fixture, cleanup := setupSync(t)
	defer cleanup()

	ctx := context.Background()
	fixture.portal.Activity[fixture.card] = []prestotest.ActivityRow{
		fareRow("4/30/2019 8:08:43 PM", "3.10", "3.85"),
		fareRow("4/29/2019 5:32:09 PM", "3.10", "6.95"),
		fareRow("4/28/2019 8:46:30 AM", "3.10", "10.05"),
	}

	_, err := fixture.service.Login(ctx, "user", testUsername, testPassword)
	require.NoError(t, err)

	from := time.Date(2019, 4, 1, 0, 0, 0, 0, timezone.Location)
	to := time.Date(2019, 5, 1, 0, 0, 0, 0, timezone.Location)

	result, err := fixture.service.Sync(ctx, "user", []string{fixture.card}, from, to)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	require.NoError(t, result.Outcomes[0].Err)
	require.Equal(t, 3, result.Outcomes[0].Fetched)
	require.EqualValues(t, 3, result.Inserted)

	// running the same sync again refetches but persists nothing new
	result, err = fixture.service.Sync(ctx, "user", []string{fixture.card}, from, to)
	require.NoError(t, err)
	require.Equal(t, 3, result.Outcomes[0].Fetched)
	require.EqualValues(t, 0, result.Inserted)

	records, err := fixture.store.ListByCard(ctx, "user", fixture.card)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "4/30/2019 8:08:43 PM", records[0].DateRaw)
	require.Equal(t, "3.10", records[0].Amount)
}

func TestSyncCursorPicksUpNewRows(t *testing.T) {
	fixture, cleanup := setupSync(t)
	defer cleanup()

	ctx := context.Background()
	fixture.portal.Activity[fixture.card] = []prestotest.ActivityRow{
		fareRow("4/30/2019 8:08:43 PM", "3.10", "3.85"),
		fareRow("4/30/2019 7:49:21 AM", "3.10", "6.95"),
	}

	_, err := fixture.service.Login(ctx, "user", testUsername, testPassword)
	require.NoError(t, err)

	from := time.Date(2019, 4, 1, 0, 0, 0, 0, timezone.Location)
	result, err := fixture.service.Sync(ctx, "user", []string{fixture.card}, from, time.Time{})
	require.NoError(t, err)
	require.EqualValues(t, 2, result.Inserted)

	// new activity lands, the refetch window starts at the stored
	// cursor so the boundary day comes back in full
	fixture.portal.Activity[fixture.card] = append([]prestotest.ActivityRow{
		fareRow("5/2/2019 9:14:02 AM", "3.10", "0.75"),
	}, fixture.portal.Activity[fixture.card]...)

	result, err = fixture.service.Sync(ctx, "user", []string{fixture.card}, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 3, result.Outcomes[0].Fetched)
	require.EqualValues(t, 1, result.Inserted, "boundary rows must not be duplicated")

	records, err := fixture.store.ListByCard(ctx, "user", fixture.card)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "5/2/2019 9:14:02 AM", records[0].DateRaw)
}

func TestSyncMultipleCards(t *testing.T) {
	fixture, cleanup := setupSync(t)
	defer cleanup()

	ctx := context.Background()
	emptyCard := testutil.RandomCardNumber(t)
	fixture.portal.Cards = append(fixture.portal.Cards, prestotest.Card{
		Number:  emptyCard,
		Balance: "20.00",
	})
	fixture.portal.Activity[fixture.card] = []prestotest.ActivityRow{
		fareRow("4/30/2019 8:08:43 PM", "3.10", "3.85"),
	}

	_, err := fixture.service.Login(ctx, "user", testUsername, testPassword)
	require.NoError(t, err)

	from := time.Date(2019, 4, 1, 0, 0, 0, 0, timezone.Location)
	result, err := fixture.service.Sync(ctx, "user", []string{fixture.card, emptyCard}, from, time.Time{})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)
	require.NoError(t, result.Outcomes[0].Err)
	require.NoError(t, result.Outcomes[1].Err)
	require.Equal(t, 1, result.Outcomes[0].Fetched)
	require.Equal(t, 0, result.Outcomes[1].Fetched)
	require.EqualValues(t, 1, result.Inserted)
}

func TestSyncRequiresLogin(t *testing.T) {
	fixture, cleanup := setupSync(t)
	defer cleanup()

	_, err := fixture.service.Sync(context.Background(), "user", []string{fixture.card}, time.Time{}, time.Time{})
	var authErr *presto.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, presto.KindNotLoggedIn, authErr.Kind)
}

func TestSyncExpiredSession(t *testing.T) {
	fixture, cleanup := setupSync(t)
	defer cleanup()

	ctx := context.Background()
	fixture.portal.Activity[fixture.card] = []prestotest.ActivityRow{
		fareRow("4/30/2019 8:08:43 PM", "3.10", "3.85"),
	}

	_, err := fixture.service.Login(ctx, "user", testUsername, testPassword)
	require.NoError(t, err)

	from := time.Date(2019, 4, 1, 0, 0, 0, 0, timezone.Location)
	result, err := fixture.service.Sync(ctx, "user", []string{fixture.card}, from, time.Time{})
	require.NoError(t, err)
	require.EqualValues(t, 1, result.Inserted)

	fixture.portal.ExpireSessions()

	// the sync itself proceeds, the dead session surfaces per card
	result, err = fixture.service.Sync(ctx, "user", []string{fixture.card}, from, time.Time{})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	var authErr *presto.AuthError
	require.True(t, errors.As(result.Outcomes[0].Err, &authErr))
	require.Equal(t, presto.KindNotLoggedIn, authErr.Kind)
	require.EqualValues(t, 0, result.Inserted)
}
