package web_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlashShownOnce(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")

	doc := parseHTML(ts.get("/").Body)
	assertContainsElement(t, doc, ".flash")

	doc = parseHTML(ts.get("/").Body)
	assertNotContainsElement(t, doc, ".flash")
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/arcade")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestErrorPageKeepsNav(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("alice", "password123", "Alice")

	rr := ts.get("/games/chess/leaderboard")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "nav .identity", "alice")
	assertContainsText(t, doc, "#error-message", "No such game")
}
