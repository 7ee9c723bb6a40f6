package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/stdtrack/stdtrack/internal/config"
	"github.com/stdtrack/stdtrack/internal/filestore"
	"github.com/stdtrack/stdtrack/internal/lineage"
	"github.com/stdtrack/stdtrack/internal/lineage/repository"
	"github.com/stdtrack/stdtrack/internal/registry"
	"github.com/stdtrack/stdtrack/internal/sessions"
	"github.com/stdtrack/stdtrack/pkg/middleware"
)

// testServer wires the full handler stack against in-memory stores and
// a temp-dir file store, the same shape main assembles for deployment.
type testServer struct {
	router *gin.Engine
	store  lineage.Store
	files  filestore.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "handler-test-secret-32-bytes-xxxxxxx"
	cfg.Auth.AccessTokenTTL = 15 * time.Minute

	store := repository.NewMemoryStore()
	files, err := filestore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	engine := lineage.NewEngine(store)
	reg := registry.NewService(registry.NewMemoryCatalog(), store, files)

	sessionsSvc := sessions.NewService(
		sessions.NewMemoryRepository(),
		sessions.NewMemoryCredentialStore(sessions.Credentials{
			ChairPassword:       "chair",
			ContributorPassword: "cont",
		}),
		sessions.NewMemoryLoginRecorder(),
		0,
	)
	auth := NewAuthHandler(cfg, sessionsSvc)

	r := gin.New()
	r.Use(middleware.Authentication(auth, nil))
	api := r.Group("/api")
	auth.Register(api)
	NewStandardsHandler(reg).Register(api)
	NewMeetingsHandler(reg, engine).Register(api)
	NewDocumentsHandler(engine, files).Register(api)

	return &testServer{router: r, store: store, files: files}
}

// do issues a JSON request; cookie is the session token ("" for anonymous).
func (ts *testServer) do(t *testing.T, method, path, cookie string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: cookie})
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// login returns the session token for the given role.
func (ts *testServer) login(t *testing.T, role, password, username string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"role": role, "password": password, "username": username,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c.Value
		}
	}
	t.Fatalf("login response set no session cookie")
	return ""
}

func (ts *testServer) loginChair(t *testing.T) string {
	return ts.login(t, "chair", "chair", "")
}

func (ts *testServer) loginContributor(t *testing.T, username string) string {
	return ts.login(t, "contributor", "cont", username)
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// createStandard and createMeeting are fixture shortcuts used across
// the handler tests.
func (ts *testServer) createStandard(t *testing.T, cookie, acronym, title string) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/standards", cookie, gin.H{"acronym": acronym, "title": title})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func (ts *testServer) createMeeting(t *testing.T, cookie, acronym, title, start, end string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/meetings", cookie, gin.H{
		"standardAcronyms": []string{acronym},
		"title":            title,
		"startDate":        start,
		"endDate":          end,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Meetings []struct {
			ID string `json:"id"`
		} `json:"meetings"`
	}
	decodeJSON(t, w, &resp)
	require.Len(t, resp.Meetings, 1)
	return resp.Meetings[0].ID
}

// upload posts a multipart document; extra carries form fields such as
// kind and parentId.
func (ts *testServer) upload(t *testing.T, cookie, acronym, meetingID, fileName string, payload []byte, extra map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	for k, v := range extra {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost,
		"/api/standards/"+acronym+"/meetings/"+meetingID+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: cookie})
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}
