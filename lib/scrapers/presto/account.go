package presto

import (
	"bytes"
	"context"
	"strings"

	"prestoassist-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Card is a fare card as listed on the dashboard, a snapshot at fetch
// time. Balance stays the portal's decimal string, never a float.
type Card struct {
	Number  string
	Balance string
}

const (
	cardListingSelector = "a.fareMediaID"
	cardBalanceSelector = ".dashboard__quantity"
	noCardsSelector     = ".dashboard__no-cards"
)

// GetCardsAndBalances fetches the dashboard and extracts the cards
// belonging to the signed-in account.
func (c *Client) GetCardsAndBalances(ctx context.Context) ([]Card, error) {
	ctx, span := tracer.Start(ctx, "client:GetCardsAndBalances")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(dashboardPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch dashboard")
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse dashboard html")
		return nil, err
	}

	cards, err := parseCardsAndBalances(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dashboard markup changed shape")
		return nil, err
	}
	return cards, nil
}

func parseCardsAndBalances(doc *goquery.Document) ([]Card, error) {
	listing := doc.Find(cardListingSelector)
	if len(listing.Nodes) == 0 {
		// an account with no cards renders its own marker, anything
		// else is the parser looking at the wrong page
		if len(doc.Find(noCardsSelector).Nodes) > 0 {
			return nil, nil
		}
		return nil, &ParseError{Selector: cardListingSelector}
	}

	balances := doc.Find(cardBalanceSelector)
	if len(balances.Nodes) != len(listing.Nodes) {
		return nil, &ParseError{Selector: cardBalanceSelector}
	}

	cards := make([]Card, len(listing.Nodes))
	for i := range listing.Nodes {
		number := htmlutil.CellText(listing.Eq(i))
		if number == "" {
			return nil, &ParseError{Selector: cardListingSelector}
		}
		balance := strings.TrimPrefix(htmlutil.CellText(balances.Eq(i)), "$")
		cards[i] = Card{
			Number:  number,
			Balance: balance,
		}
	}
	return cards, nil
}
