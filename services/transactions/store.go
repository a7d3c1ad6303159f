package transactions

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"prestoassist-backend/lib/timezone"
	"prestoassist-backend/services/transactions/db"
)

// Store is the persistence collaborator for scraped card activity. it
// exposes only what incremental sync needs: the per-card cursor, a
// dedup probe and bulk insertion, plus the serialized portal session
// for each user.
type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// Record is one persisted transaction. Date is the parsed timestamp
// used for cursor math and dedup, DateRaw keeps the portal's exact
// rendering of the same instant.
type Record struct {
	UserID       string
	CardNumber   string
	Date         time.Time
	DateRaw      string
	Agency       string
	Location     string
	Type         string
	ServiceClass string
	Discount     string
	Amount       string
	Balance      string
}

func recordFromRow(row db.Transaction) Record {
	return Record{
		UserID:       row.UserID,
		CardNumber:   row.CardNumber,
		Date:         time.Unix(row.Date, 0).In(timezone.Location),
		DateRaw:      row.DateRaw,
		Agency:       row.Agency,
		Location:     row.Location,
		Type:         row.Type,
		ServiceClass: row.ServiceClass,
		Discount:     row.Discount,
		Amount:       row.Amount,
		Balance:      row.Balance,
	}
}

// MaxDate returns the sync cursor for (user, card): the latest
// transaction date already persisted. the second return is false when
// no transaction exists yet, the first-sync signal.
func (s Store) MaxDate(ctx context.Context, userId, cardNumber string) (time.Time, bool, error) {
	maxDate, err := s.qry.GetMaxTransactionDate(ctx, db.GetMaxTransactionDateParams{
		UserID:     userId,
		CardNumber: cardNumber,
	})
	if err != nil {
		return time.Time{}, false, err
	}
	if maxDate == 0 {
		return time.Time{}, false, nil
	}
	return time.Unix(maxDate, 0).In(timezone.Location), true, nil
}

// Exists reports whether a transaction with the exact dedup key
// (user, card, date) is already persisted.
func (s Store) Exists(ctx context.Context, userId, cardNumber string, date time.Time) (bool, error) {
	count, err := s.qry.GetTransactionCount(ctx, db.GetTransactionCountParams{
		UserID:     userId,
		CardNumber: cardNumber,
		Date:       date.Unix(),
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertMany persists records in one transaction and returns how many
// rows were actually inserted. the unique index on the dedup key makes
// a re-delivered row a no-op rather than a duplicate.
func (s Store) InsertMany(ctx context.Context, records []Record) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	var inserted int64
	for _, record := range records {
		res, err := txqry.CreateTransaction(ctx, db.CreateTransactionParams{
			UserID:       record.UserID,
			CardNumber:   record.CardNumber,
			Date:         record.Date.Unix(),
			DateRaw:      record.DateRaw,
			Agency:       record.Agency,
			Location:     record.Location,
			Type:         record.Type,
			ServiceClass: record.ServiceClass,
			Discount:     record.Discount,
			Amount:       record.Amount,
			Balance:      record.Balance,
		})
		if err != nil {
			return 0, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += affected
	}

	err = tx.Commit()
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListByCard returns persisted records for (user, card) newest first.
func (s Store) ListByCard(ctx context.Context, userId, cardNumber string) ([]Record, error) {
	rows, err := s.qry.GetTransactionsByCard(ctx, db.GetTransactionsByCardParams{
		UserID:     userId,
		CardNumber: cardNumber,
	})
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = recordFromRow(row)
	}
	return records, nil
}

// SaveSession persists the user's portal cookies so a later process
// can resume the session without re-submitting credentials.
func (s Store) SaveSession(ctx context.Context, userId string, cookies []*http.Cookie) error {
	serialized, err := json.Marshal(cookies)
	if err != nil {
		return err
	}
	return s.qry.UpsertSession(ctx, db.UpsertSessionParams{
		UserID:    userId,
		Cookies:   string(serialized),
		UpdatedAt: timezone.Now().Unix(),
	})
}

// GetSession returns the user's persisted portal cookies, or false
// when the user has never logged in.
func (s Store) GetSession(ctx context.Context, userId string) ([]*http.Cookie, bool, error) {
	row, err := s.qry.GetSession(ctx, userId)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var cookies []*http.Cookie
	err = json.Unmarshal([]byte(row.Cookies), &cookies)
	if err != nil {
		return nil, false, err
	}
	return cookies, true, nil
}

// DeleteSession discards the user's persisted portal session.
func (s Store) DeleteSession(ctx context.Context, userId string) error {
	return s.qry.DeleteSession(ctx, userId)
}
