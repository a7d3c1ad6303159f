// Package prestotest runs an in-process imitation of the card portal
// so session, scrape and sync behavior can be exercised hermetically.
package prestotest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"prestoassist-backend/lib/timezone"
)

const (
	LoginToken = "0mn1busfake-login-token"
	PageToken  = "0mn1busfake-page-token"

	InvalidCredentialsMessage = "You could not be signed in to your account. Please check your username/email and password and try again."
	AttemptLimitMessage       = "You have exceeded the number of available attempts to sign in. Please reset your password to access your account."
	sessionCookieName         = "AFMSAuthSession"
	activityTimestampLayout   = "1/2/2006 3:04:05 PM"
	activityRangeLayout       = "01/02/2006"
)

type Card struct {
	Number  string
	Balance string
}

type ActivityRow struct {
	Date         string
	Agency       string
	Location     string
	Type         string
	ServiceClass string
	Discount     string
	Amount       string
	Balance      string
}

// Server is a fake portal backed by an httptest server. mutate the
// exported fields before driving a client at Server.URL().
type Server struct {
	Username string
	Password string
	Cards    []Card
	// rows per card number, newest first like the portal renders them
	Activity map[string][]ActivityRow
	// when non-empty, every sign-in fails with this exact message
	ForcedFailure string
	// when true, the sign-in response body is not json at all
	MalformedSignIn bool

	mu       sync.Mutex
	sessions map[string]bool
	httpsrv  *httptest.Server
}

func NewServer(username, password string, cards []Card) *Server {
	s := &Server{
		Username: username,
		Password: password,
		Cards:    cards,
		Activity: map[string][]ActivityRow{},
		sessions: map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /home", s.handleHomepage)
	mux.HandleFunc("POST /api/sitecore/AFMSAuthentication/SignInWithAccount", s.handleSignIn)
	mux.HandleFunc("GET /en/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /en/dashboard/card-activity", s.handleCardActivityPage)
	mux.HandleFunc("POST /api/sitecore/Paginator/CardActivityFilteredIndex", s.handleActivityFilter)
	s.httpsrv = httptest.NewServer(mux)
	return s
}

func (s *Server) URL() string {
	return s.httpsrv.URL
}

func (s *Server) Close() {
	s.httpsrv.Close()
}

// ExpireSessions invalidates every session the fake portal has handed
// out, imitating a server-side session timeout.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = map[string]bool{}
}

func (s *Server) isLoggedIn(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[cookie.Value]
}

func (s *Server) handleHomepage(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, `<!DOCTYPE html><html><body>
		<div id="signwithaccount">
			<form method="post">
				<input name="__RequestVerificationToken" type="hidden" value="%s" />
			</form>
		</div>
	</body></html>`, LoginToken)
}

type signInBody struct {
	CustSecurity struct {
		Login    string `json:"Login"`
		Password string `json:"Password"`
		Token    string `json:"__RequestVerificationToken"`
	} `json:"custSecurity"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if s.MalformedSignIn {
		fmt.Fprint(w, "<html>the portal is having a moment</html>")
		return
	}

	var body signInBody
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil ||
		r.Header.Get("__RequestVerificationToken") != LoginToken ||
		body.CustSecurity.Token != LoginToken {
		json.NewEncoder(w).Encode("A required anti-forgery token was not supplied or was invalid.")
		return
	}

	if s.ForcedFailure != "" {
		json.NewEncoder(w).Encode(s.ForcedFailure)
		return
	}
	if body.CustSecurity.Login != s.Username || body.CustSecurity.Password != s.Password {
		json.NewEncoder(w).Encode(InvalidCredentialsMessage)
		return
	}

	session := fmt.Sprintf("session-%d", time.Now().UnixNano())
	s.mu.Lock()
	s.sessions[session] = true
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:  sessionCookieName,
		Value: session,
		Path:  "/",
	})
	json.NewEncoder(w).Encode(map[string]string{"Result": "success"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !s.isLoggedIn(r) {
		fmt.Fprint(w, `<!DOCTYPE html><html><body>
			<p>Your session has timed out, please sign in again.</p>
		</body></html>`)
		return
	}

	var cards strings.Builder
	for _, card := range s.Cards {
		fmt.Fprintf(&cards, `<div class="dashboard__card">
			<a class="fareMediaID" href="/en/dashboard/card-activity">%s</a>
			<p class="dashboard__quantity">$%s</p>
		</div>`, card.Number, card.Balance)
	}

	fmt.Fprintf(w, `<!DOCTYPE html><html><body>
		<header><div class="signInright"><a href="/signout">Sign Out</a></div></header>
		<form><input name="__RequestVerificationToken" type="hidden" value="%s" /></form>
		<section class="dashboard__cards">%s</section>
	</body></html>`, PageToken, cards.String())
}

func (s *Server) handleCardActivityPage(w http.ResponseWriter, r *http.Request) {
	if !s.isLoggedIn(r) {
		fmt.Fprint(w, `<!DOCTYPE html><html><body>
			<p>Your session has timed out, please sign in again.</p>
		</body></html>`)
		return
	}
	fmt.Fprintf(w, `<!DOCTYPE html><html><body>
		<form><input name="__RequestVerificationToken" type="hidden" value="%s" /></form>
	</body></html>`, PageToken)
}

func (s *Server) handleActivityFilter(w http.ResponseWriter, r *http.Request) {
	if !s.isLoggedIn(r) || r.Header.Get("__RequestVerificationToken") != PageToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	card := r.PostFormValue("fareMediaId")
	from, err := time.ParseInLocation(activityRangeLayout, r.PostFormValue("startDateString"), timezone.Location)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	to, err := time.ParseInLocation(activityRangeLayout, r.PostFormValue("endDateString"), timezone.Location)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	// the portal treats the end bound as inclusive of the whole day
	to = to.AddDate(0, 0, 1)

	var rows strings.Builder
	for _, row := range s.Activity[card] {
		at, err := time.ParseInLocation(activityTimestampLayout, row.Date, timezone.Location)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if at.Before(from) || !at.Before(to) {
			continue
		}
		fmt.Fprintf(&rows, `<tr>
			<td>%s</td><td>%s</td><td>%s</td><td>%s</td>
			<td>%s</td><td>$%s</td><td>$%s</td><td>$%s</td>
		</tr>`, row.Date, row.Agency, row.Location, row.Type,
			row.ServiceClass, row.Discount, row.Amount, row.Balance)
	}
	if rows.Len() == 0 {
		rows.WriteString(`<tr><td class="no-activity" colspan="8">There are no transactions for the selected criteria.</td></tr>`)
	}

	fmt.Fprintf(w, `<table id="tblTUR"><tbody>%s</tbody></table>`, rows.String())
}
