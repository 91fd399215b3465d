package functional_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/meshit/meshit/internal/domain/matching"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/domain/profile"
	"github.com/meshit/meshit/internal/testserver"
)

// bearerTransport adds an Authorization header to every request.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(req)
}

func connectHTTP(t *testing.T, ts *testserver.TestServer, actorID string) *sdkmcp.ClientSession {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	transport := &sdkmcp.StreamableClientTransport{
		Endpoint: ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: &bearerTransport{
			token: ts.Token(t, actorID),
			base:  http.DefaultTransport,
		}},
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, transport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) (*sdkmcp.CallToolResult, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "CallTool %s failed", name)
	require.NotEmpty(t, result.Content, "Tool %s returned no content", name)
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "Tool %s returned no text content", name)
	return result, text.Text
}

func TestHTTPFunctional_MatchesAndAvailability(t *testing.T) {
	ts := testserver.New(t)
	for _, id := range []string{"alice", "bob"} {
		require.Equal(t, http.StatusOK, ts.Do(t, id, http.MethodPut, "/profile", profile.SaveRequest{DisplayName: id}, nil))
	}
	var p posting.Posting
	require.Equal(t, http.StatusCreated, ts.Do(t, "alice", http.MethodPost, "/postings", posting.CreateRequest{
		Title:       "Mesh radio",
		Description: "LoRa relay firmware",
		TeamSizeMin: 1,
		TeamSizeMax: 2,
	}, &p))

	session := connectHTTP(t, ts, "alice")

	res, text := callTool(t, session, "matches_for_posting", map[string]any{"posting_id": p.ID})
	require.False(t, res.IsError, text)
	var matches []matching.RankedMatch
	require.NoError(t, json.Unmarshal([]byte(text), &matches))
	require.Len(t, matches, 1)
	require.Equal(t, "bob", matches[0].ProfileID)

	res, text = callTool(t, session, "common_availability", map[string]any{"posting_id": p.ID})
	require.False(t, res.IsError, text)
	require.JSONEq(t, `{"windows":[]}`, text)
}

func TestHTTPFunctional_ActorComesFromToken(t *testing.T) {
	ts := testserver.New(t)
	for _, id := range []string{"alice", "bob"} {
		require.Equal(t, http.StatusOK, ts.Do(t, id, http.MethodPut, "/profile", profile.SaveRequest{DisplayName: id}, nil))
	}
	var p posting.Posting
	require.Equal(t, http.StatusCreated, ts.Do(t, "alice", http.MethodPost, "/postings", posting.CreateRequest{
		Title:       "Mesh radio",
		Description: "LoRa relay firmware",
		TeamSizeMin: 1,
		TeamSizeMax: 2,
	}, &p))

	// Bob is not the creator, so the posting's matches are hidden from him.
	session := connectHTTP(t, ts, "bob")
	res, text := callTool(t, session, "matches_for_posting", map[string]any{"posting_id": p.ID})
	require.True(t, res.IsError)

	var apiErr struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &apiErr))
	require.Equal(t, "FORBIDDEN", apiErr.Code)
}

func TestHTTPFunctional_RejectsMissingToken(t *testing.T) {
	ts := testserver.New(t)

	resp, err := http.Post(ts.Server.URL+"/mcp", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
