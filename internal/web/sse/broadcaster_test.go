package sse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/testutil"
)

type stubLeaderboard struct {
	ranked []model.RankedScore
	err    error
}

func (s *stubLeaderboard) RankedScores(ctx context.Context, game model.GameKind) ([]model.RankedScore, error) {
	return s.ranked, s.err
}

func receive(t *testing.T, client *Client) string {
	t.Helper()
	select {
	case msg := <-client.send:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
		return ""
	}
}

func TestBroadcaster_BroadcastLeaderboardUpdate(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	source := &stubLeaderboard{ranked: []model.RankedScore{
		{Rank: 1, IdentityID: 2, Username: "bobby", FirstName: "Bob", Score: 50},
		{Rank: 2, IdentityID: 1, Username: "alice", FirstName: "Alice", Score: 10},
	}}
	broadcaster := NewBroadcaster(manager, source, testutil.NopLogger())

	hub := manager.GetOrCreateHub(model.GameSnake)
	client := NewClient(hub, 0)
	hub.Register(client)
	waitForClients(t, hub, 1)

	broadcaster.BroadcastLeaderboardUpdate(context.Background(), model.GameSnake)

	msg := receive(t, client)
	if !strings.HasPrefix(msg, "event: leaderboard-update\n") {
		t.Errorf("unexpected event: %q", msg)
	}
	if !strings.Contains(msg, `id="leaderboard-table"`) {
		t.Errorf("message missing leaderboard table: %q", msg)
	}
	if strings.Index(msg, "bobby") > strings.Index(msg, "alice") {
		t.Errorf("rows out of order: %q", msg)
	}
}

func TestBroadcaster_EscapesNames(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	source := &stubLeaderboard{ranked: []model.RankedScore{
		{Rank: 1, IdentityID: 1, Username: "evil", FirstName: "<script>", Score: 1},
	}}
	broadcaster := NewBroadcaster(manager, source, testutil.NopLogger())

	hub := manager.GetOrCreateHub(model.GameSnake)
	client := NewClient(hub, 0)
	hub.Register(client)
	waitForClients(t, hub, 1)

	broadcaster.BroadcastLeaderboardUpdate(context.Background(), model.GameSnake)

	if msg := receive(t, client); strings.Contains(msg, "<script>") {
		t.Errorf("first name was not escaped: %q", msg)
	}
}

func TestBroadcaster_NoHubIsNoop(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	source := &stubLeaderboard{err: errors.New("should not be called")}
	broadcaster := NewBroadcaster(manager, source, testutil.NopLogger())

	broadcaster.BroadcastLeaderboardUpdate(context.Background(), model.GameSnake)

	if manager.GetHub(model.GameSnake) != nil {
		t.Error("broadcast should not create a hub")
	}
}

func TestBroadcaster_SourceErrorSendsNothing(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	broadcaster := NewBroadcaster(manager, &stubLeaderboard{err: errors.New("storage down")}, testutil.NopLogger())

	hub := manager.GetOrCreateHub(model.GameSnake)
	client := NewClient(hub, 0)
	hub.Register(client)
	waitForClients(t, hub, 1)

	broadcaster.BroadcastLeaderboardUpdate(context.Background(), model.GameSnake)

	select {
	case msg := <-client.send:
		t.Errorf("unexpected message: %q", string(msg))
	case <-time.After(50 * time.Millisecond):
	}
}
