package presto

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func loadFixture(t testing.TB, name string) *goquery.Document {
	contents, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(contents)))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func docFromString(t testing.TB, markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtractLoginToken(t *testing.T) {
	doc := loadFixture(t, "homepage.html")

	token, err := ExtractVerificationToken(doc, ScopeLogin)
	require.NoError(t, err)
	require.Equal(t, "CfDJ8BoOQ4dXuU1FoXVPkCQWJTn6homepagetoken", token)
}

func TestExtractGenericToken(t *testing.T) {
	doc := loadFixture(t, "dashboard.html")

	token, err := ExtractVerificationToken(doc, ScopeGeneric)
	require.NoError(t, err)
	require.Equal(t, "CfDJ8BoOQ4dXuU1FoXVPkCQWJTn6dashboardtoken", token)
}

func TestExtractTokenMissingLoginScope(t *testing.T) {
	// the dashboard has a page token but no sign-in panel
	doc := loadFixture(t, "dashboard.html")

	_, err := ExtractVerificationToken(doc, ScopeLogin)
	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	require.Equal(t, TokenNotFound, tokenErr.Kind)
	require.Equal(t, "login verification token not found", tokenErr.Error())
}

func TestExtractTokenMissingGenericScope(t *testing.T) {
	doc := docFromString(t, `<html><body><p>session timed out</p></body></html>`)

	_, err := ExtractVerificationToken(doc, ScopeGeneric)
	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	require.Equal(t, TokenNotFound, tokenErr.Kind)
	// a generic-scope miss reads as an expired session, not a missing form
	require.Equal(t, "not logged in", tokenErr.Error())
}

func TestExtractTokenWithoutValue(t *testing.T) {
	doc := docFromString(t, `<html><body>
		<div id="signwithaccount">
			<input name="__RequestVerificationToken" type="hidden" />
		</div>
	</body></html>`)

	_, err := ExtractVerificationToken(doc, ScopeLogin)
	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	require.Equal(t, TokenMalformed, tokenErr.Kind)
}
