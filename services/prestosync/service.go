package prestosync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"prestoassist-backend/lib/scrapers/presto"
	"prestoassist-backend/lib/timezone"
	"prestoassist-backend/services/transactions"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/prestosync")

// how far back the first sync of a card reaches when the caller gives
// no explicit lower bound
const defaultLookback = 365 * 24 * time.Hour

type Options struct {
	// defaults to the live portal
	BaseUrl string
}

// Service drives incremental activity sync: it owns the per-user portal
// sessions and moves scraped rows into the transactions store without
// re-persisting ones an earlier sync already captured.
type Service struct {
	store    transactions.Store
	sessions sessionCache
	baseUrl  string
}

func NewService(store transactions.Store, opts Options) *Service {
	return &Service{
		store:    store,
		sessions: newSessionCache(store, opts.BaseUrl),
		baseUrl:  opts.BaseUrl,
	}
}

// Login authenticates the user against the portal on a fresh session
// and persists the resulting cookies so syncs can run without
// credentials until the session expires. returns the account's cards.
func (s *Service) Login(ctx context.Context, userId, username, password string) ([]presto.Card, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()
	span.SetAttributes(attribute.String("user", userId))

	client, err := presto.NewClient(presto.ClientOptions{BaseUrl: s.baseUrl})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create portal client")
		return nil, err
	}

	cards, err := client.Login(ctx, username, password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return nil, err
	}

	err = s.store.SaveSession(ctx, userId, client.ExportCookies())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist session")
		return nil, err
	}
	s.sessions.Put(userId, client)

	return cards, nil
}

// CheckLogin reports whether the user's stored session is still
// authenticated. a user with no stored session is simply not logged in.
func (s *Service) CheckLogin(ctx context.Context, userId string) (bool, error) {
	ctx, span := tracer.Start(ctx, "CheckLogin")
	defer span.End()
	span.SetAttributes(attribute.String("user", userId))

	client, err := s.sessions.Get(ctx, userId)
	var authErr *presto.AuthError
	if errors.As(err, &authErr) && authErr.Kind == presto.KindNotLoggedIn {
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to restore session")
		return false, err
	}

	return client.CheckLogin(ctx)
}

// Cards fetches the account's cards and balances over the stored
// session.
func (s *Service) Cards(ctx context.Context, userId string) ([]presto.Card, error) {
	ctx, span := tracer.Start(ctx, "Cards")
	defer span.End()
	span.SetAttributes(attribute.String("user", userId))

	client, err := s.sessions.Get(ctx, userId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to restore session")
		return nil, err
	}
	return client.GetCardsAndBalances(ctx)
}

// Logout discards the user's stored portal session.
func (s *Service) Logout(ctx context.Context, userId string) error {
	ctx, span := tracer.Start(ctx, "Logout")
	defer span.End()
	span.SetAttributes(attribute.String("user", userId))

	s.sessions.Drop(userId)
	return s.store.DeleteSession(ctx, userId)
}

// CardOutcome is the result of syncing one card. Err carries the
// card's failure without aborting the other cards, an expired session
// shows up here as an auth error of kind KindNotLoggedIn.
type CardOutcome struct {
	CardNumber string
	Fetched    int
	Inserted   int64
	Err        error
}

type SyncResult struct {
	Outcomes []CardOutcome
	Inserted int64
}

// Sync incrementally pulls activity for the user's cards, one card at a
// time since portal requests share one session. the lower bound per
// card is the stored cursor, then the caller's from, then a year back;
// the upper bound is the caller's to, then now. a zero time means
// unset.
func (s *Service) Sync(ctx context.Context, userId string, cards []string, from, to time.Time) (SyncResult, error) {
	ctx, span := tracer.Start(ctx, "Sync")
	defer span.End()
	span.SetAttributes(
		attribute.String("user", userId),
		attribute.Int("card_count", len(cards)),
	)

	client, err := s.sessions.Get(ctx, userId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to restore session")
		return SyncResult{}, err
	}

	var result SyncResult
	for _, cardNumber := range cards {
		fetched, inserted, err := s.syncCard(ctx, client, userId, cardNumber, from, to)
		if err != nil {
			slog.ErrorContext(ctx, "card sync failed", "user", userId, "card", cardNumber, "err", err)
		} else {
			slog.InfoContext(ctx, "card synced", "user", userId, "card", cardNumber, "fetched", fetched, "inserted", inserted)
		}
		result.Outcomes = append(result.Outcomes, CardOutcome{
			CardNumber: cardNumber,
			Fetched:    fetched,
			Inserted:   inserted,
			Err:        err,
		})
		result.Inserted += inserted
	}

	span.SetAttributes(attribute.Int64("inserted", result.Inserted))
	return result, nil
}

func (s *Service) syncCard(ctx context.Context, client *presto.Client, userId, cardNumber string, from, to time.Time) (int, int64, error) {
	ctx, span := tracer.Start(ctx, "syncCard")
	defer span.End()
	span.SetAttributes(attribute.String("card_number", cardNumber))

	cursor, hasCursor, err := s.store.MaxDate(ctx, userId, cardNumber)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read sync cursor")
		return 0, 0, err
	}

	lower := from
	if hasCursor {
		lower = cursor
	}
	if lower.IsZero() {
		lower = timezone.Now().Add(-defaultLookback)
	}
	upper := to
	if upper.IsZero() {
		upper = timezone.Now()
	}

	// re-login is the caller's business, the engine never holds
	// credentials
	loggedIn, err := client.CheckLogin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to probe login state")
		return 0, 0, err
	}
	if !loggedIn {
		err := &presto.AuthError{
			Kind:    presto.KindNotLoggedIn,
			Message: "the portal session has expired",
		}
		span.SetStatus(codes.Error, err.Error())
		return 0, 0, err
	}

	rows, err := client.GetActivityByDateRange(
		ctx,
		cardNumber,
		lower.Format(presto.ActivityRangeLayout),
		upper.Format(presto.ActivityRangeLayout),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch activity")
		return 0, 0, err
	}

	var records []transactions.Record
	for _, row := range rows {
		date, err := presto.ParseActivityDate(row.Date)
		if err != nil {
			err = fmt.Errorf("unparseable transaction date %q: %w", row.Date, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "activity row has a malformed date")
			return len(rows), 0, err
		}

		// the cursor window re-fetches its boundary timestamp, so
		// rows the previous sync already stored come back again.
		// the very first sync of a card has nothing stored and
		// skips the probe.
		if hasCursor {
			exists, err := s.store.Exists(ctx, userId, cardNumber, date)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to probe for duplicate row")
				return len(rows), 0, err
			}
			if exists {
				continue
			}
		}

		records = append(records, transactions.Record{
			UserID:       userId,
			CardNumber:   row.CardNumber,
			Date:         date,
			DateRaw:      row.Date,
			Agency:       row.Agency,
			Location:     row.Location,
			Type:         row.Type,
			ServiceClass: row.ServiceClass,
			Discount:     row.Discount,
			Amount:       row.Amount,
			Balance:      row.Balance,
		})
	}

	inserted, err := s.store.InsertMany(ctx, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist activity")
		return len(rows), 0, err
	}

	span.SetAttributes(
		attribute.Int("fetched", len(rows)),
		attribute.Int64("inserted", inserted),
	)
	return len(rows), inserted, nil
}
