package web_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gameportal/internal/factory"
	gamemw "github.com/mcoot/gameportal/internal/middleware"
)

func TestHomeGreetsGuest(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/")
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#greeting", "Welcome, Guest!")
	assertContainsElement(t, doc, "#nav-login")
	assertContainsElement(t, doc, "#nav-signup")
	assertNotContainsElement(t, doc, "#logout-form")
	assert.Equal(t, 3, doc.Find("#game-list li.game").Length())
}

func TestSignupSignsIn(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/signup", url.Values{
		"username":         {"alice"},
		"first_name":       {"Alice"},
		"password":         {"password123"},
		"password_confirm": {"password123"},
	})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.True(t, ts.cookies.hasSession())

	rr = ts.followRedirect(rr)
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#greeting", "Welcome, Alice!")
	assertContainsText(t, doc, "nav .identity", "alice")
	assertContainsElement(t, doc, "#logout-form")
	assertContainsText(t, doc, ".flash-success", "Account created")
}

func TestSignupSessionCookieIsBrowserSession(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")

	cookie := ts.cookies.cookies["session"]
	require.NotNil(t, cookie)
	assert.Zero(t, cookie.MaxAge)
	assert.True(t, cookie.Expires.IsZero())
	assert.True(t, cookie.HttpOnly)
}

func TestSignupFieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		form      url.Values
		status    int
		field     string
		errorText string
	}{
		{
			name:      "username too short",
			form:      url.Values{"username": {"bob"}, "first_name": {"Bob"}, "password": {"password123"}, "password_confirm": {"password123"}},
			status:    http.StatusUnprocessableEntity,
			field:     "username",
			errorText: "between 4 and 15",
		},
		{
			name:      "password too short",
			form:      url.Values{"username": {"bobby"}, "first_name": {"Bob"}, "password": {"short"}, "password_confirm": {"short"}},
			status:    http.StatusUnprocessableEntity,
			field:     "password",
			errorText: "between 8 and 30",
		},
		{
			name:      "first name too long",
			form:      url.Values{"username": {"bobby"}, "first_name": {strings.Repeat("b", 31)}, "password": {"password123"}, "password_confirm": {"password123"}},
			status:    http.StatusUnprocessableEntity,
			field:     "first_name",
			errorText: "between 1 and 30",
		},
		{
			name:      "passwords differ",
			form:      url.Values{"username": {"bobby"}, "first_name": {"Bob"}, "password": {"password123"}, "password_confirm": {"password124"}},
			status:    http.StatusUnprocessableEntity,
			field:     "password_confirm",
			errorText: "do not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newWebTestServer(t)

			rr := ts.post("/signup", tt.form)
			assert.Equal(t, tt.status, rr.Code)
			assert.False(t, ts.cookies.hasSession())

			doc := parseHTML(rr.Body)
			assertContainsText(t, doc, "span.field-error[data-field='"+tt.field+"']", tt.errorText)
		})
	}
}

func TestSignupKeepsEnteredValues(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/signup", url.Values{
		"username": {"bobby"}, "first_name": {"Bob"}, "password": {"short"}, "password_confirm": {"short"},
	})
	doc := parseHTML(rr.Body)

	username, _ := doc.Find("input#username").Attr("value")
	firstName, _ := doc.Find("input#first_name").Attr("value")
	password, _ := doc.Find("input#password").Attr("value")
	assert.Equal(t, "bobby", username)
	assert.Equal(t, "Bob", firstName)
	assert.Empty(t, password)
}

func TestSignupDuplicateUsername(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")
	ts.logout()

	rr := ts.post("/signup", url.Values{
		"username":         {"alice"},
		"first_name":       {"Other"},
		"password":         {"password456"},
		"password_confirm": {"password456"},
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "span.field-error[data-field='username']", "Username already taken")
}

func TestLoginAndLogout(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")
	ts.logout()
	assert.False(t, ts.cookies.hasSession())

	rr := ts.login("alice", "password123", false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.True(t, ts.cookies.hasSession())

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, "#greeting", "Welcome, Alice!")

	ts.logout()
	doc = parseHTML(ts.get("/").Body)
	assertContainsText(t, doc, "#greeting", "Welcome, Guest!")
	assertContainsText(t, doc, ".flash-info", "logged out")
}

func TestLoggedOutTokenNoLongerWorks(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")
	session := *ts.cookies.cookies["session"]

	ts.logout()

	// Replay the old cookie
	ts.cookies.cookies["session"] = &session
	doc := parseHTML(ts.get("/").Body)
	assertContainsText(t, doc, "#greeting", "Welcome, Guest!")
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")
	ts.logout()

	rr := ts.login("alice", "wrong-password", false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, ts.cookies.hasSession())

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".form-error", "Invalid username or password")
	username, _ := doc.Find("input#username").Attr("value")
	assert.Equal(t, "alice", username)
}

func TestLoginUnknownUserSameMessage(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.login("nobody", "password123", false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".form-error", "Invalid username or password")
}

func TestLoginRememberMeIssuesPersistentCookie(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")
	ts.logout()

	rr := ts.login("alice", "password123", true)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	cookie := ts.cookies.cookies["session"]
	require.NotNil(t, cookie)
	assert.Equal(t, int((365 * 24 * time.Hour).Seconds()), cookie.MaxAge)

	// Survives closing the browser
	ts.cookies.closeBrowser()
	assert.True(t, ts.cookies.hasSession())
	doc := parseHTML(ts.get("/").Body)
	assertContainsText(t, doc, "#greeting", "Welcome, Alice!")
}

func TestLoginWithoutRememberEndsWithBrowser(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")
	ts.logout()

	rr := ts.login("alice", "password123", false)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	ts.cookies.closeBrowser()
	assert.False(t, ts.cookies.hasSession())
	doc := parseHTML(ts.get("/").Body)
	assertContainsText(t, doc, "#greeting", "Welcome, Guest!")
}

func TestSessionExpiresAfterADay(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")

	ts.app.MockClock.Advance(23 * time.Hour)
	doc := parseHTML(ts.get("/").Body)
	assertContainsText(t, doc, "#greeting", "Welcome, Alice!")

	ts.app.MockClock.Advance(2 * time.Hour)
	doc = parseHTML(ts.get("/").Body)
	assertContainsText(t, doc, "#greeting", "Welcome, Guest!")
}

func TestLoginRedirectsToNext(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")
	ts.logout()

	rr := ts.get("/games/snake")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Fgames%2Fsnake", rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	next, _ := doc.Find("#login-form input[name='next']").Attr("value")
	assert.Equal(t, "/games/snake", next)

	rr = ts.post("/login", url.Values{"username": {"alice"}, "password": {"password123"}, "next": {next}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/games/snake", rr.Header().Get("Location"))
}

func TestLoginIgnoresOffsiteNext(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")
	ts.logout()

	for _, next := range []string{"https://evil.example", "//evil.example", "/\\evil.example"} {
		rr := ts.post("/login", url.Values{"username": {"alice"}, "password": {"password123"}, "next": {next}})
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"), "next=%q", next)
	}
}

func TestLoginPageRedirectsSignedIn(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")

	rr := ts.get("/login")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	rr = ts.get("/signup")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestLoginRateLimited(t *testing.T) {
	ts := newWebTestServerWithApp(t, factory.NewTestApp(), gamemw.NewRateLimiter(0.001, 2))
	ts.signup("alice", "password123", "Alice")
	ts.logout()

	assert.Equal(t, http.StatusUnauthorized, ts.login("alice", "wrong-password", false).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.login("alice", "wrong-password", false).Code)

	rr := ts.login("alice", "password123", false)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.False(t, ts.cookies.hasSession())

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".form-error", "Too many login attempts")
}

func TestLogoutRequiresLogin(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Flogout", rr.Header().Get("Location"))
}

func TestTamperedCookieIsGuest(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")
	ts.cookies.cookies["session"].Value += "x"

	doc := parseHTML(ts.get("/").Body)
	assertContainsText(t, doc, "#greeting", "Welcome, Guest!")
}
