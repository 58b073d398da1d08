package e2e_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/gameportal/internal/api"
	"github.com/mcoot/gameportal/internal/factory"
	"github.com/mcoot/gameportal/internal/services/auth"
	"github.com/mcoot/gameportal/internal/services/session"
	"github.com/mcoot/gameportal/internal/web"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "portal-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/portal")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

// withTokenFile returns a runner for a second user sharing the same binary
func (r *cliRunner) withTokenFile(path string) *cliRunner {
	return &cliRunner{binaryPath: r.binaryPath, serverURL: r.serverURL, tokenFile: path}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", token,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// cleanEnv drops PORTAL_* variables so the developer's own session cannot leak in
func cleanEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "PORTAL_") {
			env = append(env, kv)
		}
	}
	return env
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sessionCfg := session.DefaultConfig()
	sessionCfg.Secret = []byte("e2e-secret")

	// Create application
	app, err := factory.New(context.Background(), factory.Config{
		AuthConfig:    auth.Config{BcryptCost: bcrypt.MinCost},
		SessionConfig: sessionCfg,
		Logger:        logger,
	})
	require.NoError(t, err)

	// Create routers
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		AuthService:        app.AuthService,
		SessionService:     app.SessionService,
		ScoreService:       app.ScoreService,
		LeaderboardService: app.LeaderboardService,
		Broadcaster:        app.Broadcaster,
		Metrics:            app.Metrics,
	})

	webRouter := web.NewRouter(web.RouterConfig{
		Logger:             logger,
		AuthService:        app.AuthService,
		SessionService:     app.SessionService,
		ScoreService:       app.ScoreService,
		LeaderboardService: app.LeaderboardService,
		HubManager:         app.HubManager,
		Broadcaster:        app.Broadcaster,
		Metrics:            app.Metrics,
		StaticDir:          filepath.Join(findProjectRoot(t), "internal/web/static"),
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/metrics", apiRouter)
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type playerResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

type authResponse struct {
	Player       playerResponse `json:"player"`
	SessionToken string         `json:"session_token"`
	Remember     bool           `json:"remember"`
}

type scoreResponse struct {
	Game  string `json:"game"`
	Score int    `json:"score"`
}

type leaderboardResponse struct {
	Game struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	} `json:"game"`
	Entries []struct {
		Rank      int    `json:"rank"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		Score     int    `json:"score"`
	} `json:"entries"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_PlayerCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("player", "register", "--user", "alice", "--pass", "password123", "--first-name", "Alice")
	require.NoError(t, err, "output: %s", output)

	var authResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &authResp))
	assert.Equal(t, "Alice", authResp.Player.FirstName)
	assert.NotEmpty(t, authResp.SessionToken)

	// Get me (token should be saved in token file)
	output, err = cli.run("player", "me")
	require.NoError(t, err, "output: %s", output)

	var player playerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &player))
	assert.Equal(t, "alice", player.Username)
	assert.Equal(t, authResp.Player.ID, player.ID)

	// Logout removes the token file and revokes the token
	output, err = cli.run("player", "logout")
	require.NoError(t, err, "output: %s", output)
	var msg messageResponse
	require.NoError(t, json.Unmarshal([]byte(output), &msg))
	assert.Equal(t, "Logged out", msg.Message)
	assert.NoFileExists(t, cli.tokenFile)

	output, err = cli.runWithToken(authResp.SessionToken, "player", "me")
	require.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	// Logging back in with remember
	output, err = cli.run("player", "login", "--user", "alice", "--pass", "password123", "--remember")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &authResp))
	assert.True(t, authResp.Remember)
}

func TestCLI_ScoresAndLeaderboard(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	alice := newCLIRunner(t, ts.addr)
	bob := alice.withTokenFile(filepath.Join(t.TempDir(), "token2"))

	output, err := alice.run("player", "register", "--user", "alice", "--pass", "password123", "--first-name", "Alice")
	require.NoError(t, err, "output: %s", output)
	output, err = bob.run("player", "register", "--user", "bobby", "--pass", "password123", "--first-name", "Bob")
	require.NoError(t, err, "output: %s", output)

	output, err = alice.run("score", "submit", "brickbreaker", "120")
	require.NoError(t, err, "output: %s", output)
	var score scoreResponse
	require.NoError(t, json.Unmarshal([]byte(output), &score))
	assert.Equal(t, scoreResponse{Game: "brickbreaker", Score: 120}, score)

	output, err = bob.run("score", "submit", "BrickBreaker", "300")
	require.NoError(t, err, "output: %s", output)

	// Invalid scores are rejected without changing the stored value
	output, err = alice.run("score", "submit", "brickbreaker", "12.5")
	require.Error(t, err)
	assert.Contains(t, output, "VALIDATION_FAILED")

	output, err = alice.run("score", "get", "brickbreaker")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &score))
	assert.Equal(t, 120, score.Score)

	// Leaderboard is public
	anon := alice.withTokenFile(filepath.Join(t.TempDir(), "none"))
	output, err = anon.run("leaderboard", "brickbreaker")
	require.NoError(t, err, "output: %s", output)

	var board leaderboardResponse
	require.NoError(t, json.Unmarshal([]byte(output), &board))
	assert.Equal(t, "BrickBreaker", board.Game.Name)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "bobby", board.Entries[0].Username)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, "alice", board.Entries[1].Username)
	assert.Equal(t, 2, board.Entries[1].Rank)
}

func TestCLI_ScoreVisibleOnWebLeaderboard(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("player", "register", "--user", "alice", "--pass", "password123", "--first-name", "Alice")
	require.NoError(t, err, "output: %s", output)
	output, err = cli.run("score", "submit", "snake", "64")
	require.NoError(t, err, "output: %s", output)

	resp, err := http.Get(ts.addr + "/games/snake/leaderboard")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	row := doc.Find("tr.entry").First()
	assert.Equal(t, "alice", row.AttrOr("data-username", ""))
	assert.Contains(t, row.Find(".player").Text(), "Alice")
	assert.Equal(t, "64", strings.TrimSpace(row.Find(".score").Text()))
}

func TestStaticAssetsServed(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	resp, err := http.Get(ts.addr + "/static/portal.css")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
