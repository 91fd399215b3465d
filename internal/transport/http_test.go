package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshit/meshit/internal/auth"
	"github.com/meshit/meshit/internal/errcode"
)

func newTestRouter(resolver auth.ActorResolver) http.Handler {
	return NewServer(Services{}, AuthMiddleware(resolver), Options{})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHTTPServer_Health(t *testing.T) {
	router := newTestRouter(&testResolver{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestHTTPServer_RequiresAuth(t *testing.T) {
	router := newTestRouter(&testResolver{tokenToActor: map[string]string{}})

	for _, path := range []string{"/matches", "/notifications", "/postings/p1/common-availability"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
		require.Equal(t, errcode.Unauthorized, decodeError(t, rec).Code, path)
	}
}

func TestHTTPServer_RejectsMalformedBody(t *testing.T) {
	router := newTestRouter(&testResolver{tokenToActor: map[string]string{"token": "alice"}})

	cases := map[string]struct {
		method string
		path   string
		body   string
	}{
		"unknown field":    {http.MethodPost, "/postings", `{"title":"x","bogus":1}`},
		"not json":         {http.MethodPut, "/profile", `{`},
		"missing deadline": {http.MethodPatch, "/postings/p1/extend", `{}`},
		"missing answer":   {http.MethodPatch, "/meetings/m1/respond", `{}`},
		"bad limit":        {http.MethodGet, "/notifications?limit=-1", ``},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Authorization", "Bearer token")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, errcode.Validation, decodeError(t, rec).Code)
		})
	}
}

func TestHTTPServer_CORS(t *testing.T) {
	router := NewServer(Services{}, nil, Options{CORSOrigins: []string{"https://meshit.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/postings", nil)
	req.Header.Set("Origin", "https://meshit.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, "https://meshit.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestIntParam(t *testing.T) {
	n, err := intParam("")
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = intParam("25")
	require.NoError(t, err)
	require.Equal(t, 25, n)

	_, err = intParam("-3")
	require.Error(t, err)

	_, err = intParam("ten")
	require.Error(t, err)
}
