// Package testserver runs the full HTTP stack on an in-memory database for
// end-to-end tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/meshit/meshit/internal/app"
	"github.com/meshit/meshit/internal/auth"
	"github.com/meshit/meshit/internal/config"
	"github.com/meshit/meshit/internal/domain/skilltree"
	"github.com/meshit/meshit/internal/effects"
	"github.com/meshit/meshit/internal/mcp"
	"github.com/meshit/meshit/internal/sqlite"
	"github.com/meshit/meshit/internal/transport"
)

const testSecret = "test-secret"

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	App      *app.App
	verifier *auth.Verifier
}

// New starts a server with inline effects, so notifications and events are
// written before each request returns.
func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	cfg := config.Default()
	a, err := app.New(app.Deps{
		DB:       db,
		Launcher: effects.NewInline(nil),
		Config:   cfg,
	})
	require.NoError(t, err)

	verifier, err := auth.NewVerifier(testSecret, "meshit-test")
	require.NoError(t, err)

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      a.MCPServices(),
		Resolver:      verifier,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server { return mcpServer }, nil)

	server := httptest.NewServer(transport.NewServer(
		a.HTTPServices(),
		transport.AuthMiddleware(verifier),
		transport.Options{MCP: mcpHandler},
	))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{Server: server, DB: db, App: a, verifier: verifier}
}

// Token issues a bearer token acting as actorID.
func (ts *TestServer) Token(t *testing.T, actorID string) string {
	t.Helper()
	token, err := ts.verifier.Issue(actorID, time.Hour)
	require.NoError(t, err)
	return token
}

// Do sends body as JSON on behalf of actorID and decodes the response into
// out when it is non-nil. An empty actorID sends no credentials.
func (ts *TestServer) Do(t *testing.T, actorID, method, path string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set("Authorization", "Bearer "+ts.Token(t, actorID))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// SeedSkill inserts a skill tree node. An empty parentID makes a root.
func (ts *TestServer) SeedSkill(t *testing.T, id, parentID, name string) {
	t.Helper()
	node := &skilltree.Node{ID: id, Name: name}
	if parentID != "" {
		node.ParentID = &parentID
	}
	require.NoError(t, sqlite.NewSkillRepository(ts.DB).Create(context.Background(), node))
}

// SetEmbedding stores a vector for a profile or posting row directly.
func (ts *TestServer) SetEmbedding(t *testing.T, table, id, vector string) {
	t.Helper()
	_, err := ts.DB.Exec(`UPDATE `+table+` SET embedding = ? WHERE id = ?`, vector, id)
	require.NoError(t, err)
}
