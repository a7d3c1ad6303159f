package presto

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const fixtureCardNumber = "3139856309122658"

func fareTransaction(date, location, balance string) Transaction {
	return Transaction{
		CardNumber:   fixtureCardNumber,
		Date:         date,
		Agency:       "Toronto Transit Commission",
		Location:     location,
		Type:         "Fare Payment",
		ServiceClass: "Regular",
		Discount:     "0.00",
		Amount:       "3.10",
		Balance:      balance,
	}
}

func TestParseCardActivity(t *testing.T) {
	doc := loadFixture(t, "card-activity.html")

	expected := []Transaction{
		fareTransaction("4/30/2019 8:08:43 PM", "BAY STATION", "3.85"),
		fareTransaction("4/30/2019 7:29:56 AM", "PAPE STATION", "6.95"),
		fareTransaction("4/29/2019 5:28:57 PM", "BAY STATION", "10.05"),
		fareTransaction("4/29/2019 7:41:19 AM", "PAPE STATION", "13.15"),
		fareTransaction("4/27/2019 2:34:19 PM", "ST CLAIR WEST STATION", "16.25"),
		fareTransaction("4/27/2019 11:42:28 AM", "PAPE STATION", "19.35"),
		fareTransaction("4/26/2019 7:43:47 PM", "BAY STATION", "22.45"),
		fareTransaction("4/26/2019 7:31:55 AM", "PAPE STATION", "25.55"),
		fareTransaction("4/25/2019 5:56:48 PM", "BAY STATION", "28.65"),
		{
			CardNumber:   fixtureCardNumber,
			Date:         "4/25/2019 5:56:19 PM",
			Agency:       "Toronto Transit Commission",
			Location:     "BAY STATION",
			Type:         "Payment By Credit",
			ServiceClass: "",
			Discount:     "0.00",
			Amount:       "30.00",
			Balance:      "0.00",
		},
	}

	transactions, err := parseCardActivity(doc, fixtureCardNumber)
	require.NoError(t, err)

	if diff := cmp.Diff(expected, transactions); diff != "" {
		t.Fatalf("parsed activity mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCardActivityMissingContainer(t *testing.T) {
	// the homepage has no activity table at all
	doc := loadFixture(t, "homepage.html")

	_, err := parseCardActivity(doc, fixtureCardNumber)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseCardActivityEmptyMarker(t *testing.T) {
	doc := docFromString(t, `<table id="tblTUR"><tbody>
		<tr><td class="no-activity" colspan="8">There are no transactions for the selected criteria.</td></tr>
	</tbody></table>`)

	transactions, err := parseCardActivity(doc, fixtureCardNumber)
	require.NoError(t, err)
	require.Len(t, transactions, 0)
}

func TestParseActivityDate(t *testing.T) {
	parsed, err := ParseActivityDate("4/30/2019 8:08:43 PM")
	require.NoError(t, err)
	require.Equal(t, 2019, parsed.Year())
	require.Equal(t, 20, parsed.Hour())
	require.Equal(t, "America/Toronto", parsed.Location().String())
}
