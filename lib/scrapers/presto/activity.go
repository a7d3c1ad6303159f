package presto

import (
	"bytes"
	"context"
	"strings"
	"time"

	"prestoassist-backend/lib/htmlutil"
	"prestoassist-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Transaction is one row of the card activity table, encoded exactly
// as the portal presented it: amounts stay decimal strings and the
// date stays the portal's locale format. parsing to numeric types is
// the consumer's problem, and only where comparison is required.
type Transaction struct {
	CardNumber   string
	Date         string
	Agency       string
	Location     string
	Type         string
	ServiceClass string
	Discount     string
	Amount       string
	Balance      string
}

// the portal's transaction timestamp format, e.g. "4/30/2019 8:08:43 PM"
const ActivityDateLayout = "1/2/2006 3:04:05 PM"

// ParseActivityDate interprets a scraped transaction date in the
// portal's own timezone.
func ParseActivityDate(raw string) (time.Time, error) {
	return time.ParseInLocation(ActivityDateLayout, raw, timezone.Location)
}

// the date-only format the activity filter endpoint accepts as bounds
const ActivityRangeLayout = "01/02/2006"

const (
	activityTableSelector = "#tblTUR tbody"
	noActivitySelector    = "td.no-activity"
)

// GetActivityByDateRange fetches the activity rows for one card over
// [from, to]. the filter endpoint is an authenticated form post, so the
// page-scope anti-forgery token is lifted from the card activity page
// first, a missing one there means the session expired.
func (c *Client) GetActivityByDateRange(ctx context.Context, cardNumber, from, to string) ([]Transaction, error) {
	ctx, span := tracer.Start(ctx, "client:GetActivityByDateRange")
	defer span.End()
	span.SetAttributes(
		attribute.String("card_number", cardNumber),
		attribute.String("from", from),
		attribute.String("to", to),
	)

	res, err := c.Http.R().
		SetContext(ctx).
		Get(cardActivityPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch card activity page")
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse card activity html")
		return nil, err
	}

	token, err := ExtractVerificationToken(doc, ScopeGeneric)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find page token")
		return nil, &AuthError{Kind: KindNotLoggedIn, Message: err.Error(), cause: err}
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetHeader("__RequestVerificationToken", token).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetFormData(map[string]string{
			"fareMediaId":         cardNumber,
			"startDateString":     from,
			"endDateString":       to,
			"TransactionCategory": "0",
			"currentPageIndex":    "0",
			"pageSize":            "100",
		}).
		Post(activityFilterPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch filtered activity")
		return nil, err
	}
	partial, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse filtered activity html")
		return nil, err
	}

	transactions, err := parseCardActivity(partial, cardNumber)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "activity markup changed shape")
		return nil, err
	}
	span.SetAttributes(attribute.Int("row_count", len(transactions)))
	return transactions, nil
}

// parseCardActivity extracts transaction rows in document order, which
// is the portal's newest-first convention, no re-sorting. the card
// number is bound from the caller since not every response shape
// repeats it per row.
func parseCardActivity(doc *goquery.Document, cardNumber string) ([]Transaction, error) {
	container := doc.Find(activityTableSelector)
	if len(container.Nodes) == 0 {
		return nil, &ParseError{Selector: activityTableSelector}
	}

	if len(container.Find(noActivitySelector).Nodes) > 0 {
		return nil, nil
	}

	var transactions []Transaction
	var rowErr error
	container.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if len(cells.Nodes) != 8 {
			rowErr = &ParseError{Selector: activityTableSelector + " tr td"}
			return false
		}

		transactions = append(transactions, Transaction{
			CardNumber:   cardNumber,
			Date:         htmlutil.CellText(cells.Eq(0)),
			Agency:       htmlutil.CellText(cells.Eq(1)),
			Location:     htmlutil.CellText(cells.Eq(2)),
			Type:         htmlutil.CellText(cells.Eq(3)),
			ServiceClass: htmlutil.CellText(cells.Eq(4)),
			Discount:     trimCurrency(cells.Eq(5)),
			Amount:       trimCurrency(cells.Eq(6)),
			Balance:      trimCurrency(cells.Eq(7)),
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return transactions, nil
}

func trimCurrency(sel *goquery.Selection) string {
	return strings.TrimPrefix(htmlutil.CellText(sel), "$")
}
