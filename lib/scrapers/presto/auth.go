package presto

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// the exact strings the portal responds with on a failed sign-in.
// classification is a lookup so new vocabulary is a one-line change.
var authErrorVocabulary = map[string]AuthErrorKind{
	"You could not be signed in to your account. Please check your username/email and password and try again.":          KindInvalidCredentials,
	"You have exceeded the number of available attempts to sign in. Please reset your password to access your account.": KindAttemptLimitExceeded,
}

func classifyAuthMessage(message string) *AuthError {
	kind, known := authErrorVocabulary[message]
	if !known {
		kind = KindAuthFailed
	}
	return &AuthError{Kind: kind, Message: message}
}

type signInPayload struct {
	AnonymousOrderACard bool         `json:"anonymousOrderACard"`
	CustSecurity        custSecurity `json:"custSecurity"`
}

type custSecurity struct {
	Login    string `json:"Login"`
	Password string `json:"Password"`
	Token    string `json:"__RequestVerificationToken"`
}

// Login establishes an authenticated session: fetch the landing page,
// lift the login-scope anti-forgery token, post credentials with the
// token echoed both in the body and as a header, then interpret the
// sentinel in the response. on success the account's cards are fetched
// right away, the way the portal's own frontend does.
func (c *Client) Login(ctx context.Context, username, password string) ([]Card, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(homepagePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch landing page")
		return nil, &AuthError{Kind: KindAuthFailed, Message: "could not log in: " + err.Error(), cause: err}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse landing page html")
		return nil, &AuthError{Kind: KindAuthFailed, Message: "could not log in: " + err.Error(), cause: err}
	}

	token, err := ExtractVerificationToken(doc, ScopeLogin)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find login token")
		return nil, &AuthError{Kind: KindAuthFailed, Message: err.Error(), cause: err}
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetHeader("__RequestVerificationToken", token).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetHeader("content-type", "application/json; charset=utf-8").
		SetBody(signInPayload{
			AnonymousOrderACard: false,
			CustSecurity: custSecurity{
				Login:    username,
				Password: password,
				Token:    token,
			},
		}).
		Post(signInPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make sign-in request")
		return nil, &AuthError{Kind: KindAuthFailed, Message: "could not log in: " + err.Error(), cause: err}
	}

	if !isSuccessfulLogin(res.Body()) {
		authErr := interpretSignInFailure(res.Body())
		span.SetStatus(codes.Error, authErr.Error())
		return nil, authErr
	}

	slog.InfoContext(ctx, "signed in to portal", "username", username)

	cards, err := c.GetCardsAndBalances(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch account info after login")
		return nil, err
	}
	return cards, nil
}

type signInSentinel struct {
	Result string `json:"Result"`
}

func isSuccessfulLogin(body []byte) bool {
	var sentinel signInSentinel
	err := json.Unmarshal(body, &sentinel)
	return err == nil && sentinel.Result == "success"
}

// a failed sign-in comes back as a bare json string holding one of a
// small set of human readable messages. anything else is unclassifiable.
func interpretSignInFailure(body []byte) *AuthError {
	var message string
	err := json.Unmarshal(body, &message)
	if err != nil {
		return &AuthError{Kind: KindAuthFailed, Message: "an unexpected sign-in error occurred"}
	}
	return classifyAuthMessage(message)
}

// CheckLogin probes whether the session is still authenticated by
// looking for the signed-in marker on the dashboard. a missing marker
// is an expired session, not an error.
func (c *Client) CheckLogin(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:CheckLogin")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(dashboardPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch dashboard")
		return false, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse dashboard html")
		return false, err
	}

	loggedIn := len(doc.Find(".signInright").Nodes) > 0
	return loggedIn, nil
}
