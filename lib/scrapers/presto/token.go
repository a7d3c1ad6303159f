package presto

import (
	"github.com/PuerkitoBio/goquery"
)

// TokenScope is the containment boundary the anti-forgery token is
// looked up under. the portal renders one token inside the login panel
// and another on every authenticated page.
type TokenScope string

const (
	// the sign-in form, the token required to submit credentials
	ScopeLogin TokenScope = "#signwithaccount"
	// the whole page, the token required for any authenticated post
	ScopeGeneric TokenScope = "body"
)

const tokenFieldSelector = "input[name='__RequestVerificationToken']"

// ExtractVerificationToken pulls the anti-forgery token out of a parsed
// page. the scope decides both where to look and what its absence
// means, see TokenError.
func ExtractVerificationToken(doc *goquery.Document, scope TokenScope) (string, error) {
	scoped := doc.Find(string(scope))
	if len(scoped.Nodes) == 0 {
		return "", &TokenError{Kind: TokenNotFound, Scope: scope}
	}

	field := scoped.Find(tokenFieldSelector)
	if len(field.Nodes) == 0 {
		return "", &TokenError{Kind: TokenNotFound, Scope: scope}
	}

	token, exists := field.First().Attr("value")
	if !exists {
		return "", &TokenError{Kind: TokenMalformed, Scope: scope}
	}
	return token, nil
}
