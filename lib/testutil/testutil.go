package testutil

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"prestoassist-backend/lib/telemetry"

	"github.com/mazen160/go-random"

	_ "modernc.org/sqlite"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
}

type ServiceResult struct {
	DB *sql.DB
}

func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))

	var sqlite *sql.DB
	if params.DbSchema != "" {
		var err error
		sqlite, err = sql.Open("sqlite", ":memory:")
		if err != nil {
			t.Fatal(err)
		}
		// in-memory sqlite exists per connection, a second pooled
		// connection would see an empty database
		sqlite.SetMaxOpenConns(1)
		_, err = sqlite.Exec(params.DbSchema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			t.Fatal(err)
		}
	}

	return ServiceResult{
		DB: sqlite,
	}, cleanup
}

// a random 17-digit fare media number like the ones printed on
// physical transit cards
func RandomCardNumber(t testing.TB) string {
	var out strings.Builder
	for i := 0; i < 17; i++ {
		digit, err := random.IntRange(0, 10)
		if err != nil {
			t.Fatal(err)
		}
		fmt.Fprintf(&out, "%d", digit)
	}
	return out.String()
}
