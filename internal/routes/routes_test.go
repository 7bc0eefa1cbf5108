package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/handlers"
	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/AnshRaj112/moodjournal-backend/internal/services"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testAPI struct {
	router    http.Handler
	hub       *services.SessionHub
	completer *services.FakeCompleter
	mailer    *services.FakeMailer
}

// hubPublisher delivers events straight to the hub, standing in for Redis pub/sub.
type hubPublisher struct{ hub *services.SessionHub }

func (p hubPublisher) Publish(_ context.Context, e models.SessionEvent) error {
	p.hub.FanOut(e)
	return nil
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zap.NewNop()
	hub := services.NewSessionHub(log)
	events := hubPublisher{hub: hub}
	users := services.NewFakeUserStore()
	mailer := services.NewFakeMailer()
	completer := &services.FakeCompleter{Reply: services.Completion{
		Content:          `{"mood":{"happiness":1,"fear":7,"sadness":6,"anger":0,"surprise":2,"disgust":0},"keywords":["exam","nervous"],"summary":"Anxious about an exam."}`,
		CompletionTokens: 120,
	}}

	auth := services.NewAuthService(services.AuthDeps{
		Users:    users,
		Sessions: services.NewFakeSessionStore(),
		Events:   events,
		Mailer:   mailer,
		ResetURL: "moodjournal://auth/reset-password?token=",
		Log:      log,
	})
	analyzer := services.NewMoodAnalyzer(completer, &services.FakeAnalysisRecorder{}, time.Second, log)
	h := handlers.New(handlers.Deps{
		Auth:     auth,
		Journals: services.NewJournalService(services.NewFakeJournalStore(), analyzer, 5),
		Moods:    analyzer,
		Profiles: services.NewProfileService(users, nil, &services.FakeUploader{}, events, log),
		Events:   hub,
		Log:      log,
	})
	router := NewRouter(h, Options{
		Sessions:       auth,
		AllowedOrigins: []string{"http://localhost:8081"},
		Log:            log,
	})
	return &testAPI{router: router, hub: hub, completer: completer, mailer: mailer}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func (a *testAPI) signUp(t *testing.T, email string) string {
	t.Helper()
	rec, body := a.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"full_name":        "Test User",
		"email":            email,
		"password":         "secret1",
		"confirm_password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return body["session"].(map[string]any)["token"].(string)
}

func journalTexts(body map[string]any) []string {
	var out []string
	for _, j := range body["journals"].([]any) {
		out = append(out, j.(map[string]any)["text"].(string))
	}
	return out
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec, body := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	rec, body := api.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"full_name": "Ada", "email": "not-an-email", "password": "secret1", "confirm_password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email", body["message"])
	assert.Equal(t, "email", body["field"])

	token := api.signUp(t, "ada@example.com")

	rec, _ = api.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"full_name": "Ada", "email": "ada@example.com", "password": "secret1", "confirm_password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = api.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "ada@example.com", "password": "nope123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = api.do(t, http.MethodGet, "/api/auth/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", body["session"].(map[string]any)["email"])

	rec, _ = api.do(t, http.MethodPost, "/api/auth/signout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/auth/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = api.do(t, http.MethodGet, "/api/journals", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	api := newTestAPI(t)
	oldToken := api.signUp(t, "ada@example.com")

	rec, body := api.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ghost@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	unknownMsg := body["message"]

	rec, body = api.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ada@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, unknownMsg, body["message"], "same answer for known and unknown addresses")

	link, ok := api.mailer.Link("ada@example.com")
	require.True(t, ok)
	resetToken := link[strings.Index(link, "token=")+len("token="):]

	rec, body = api.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token": resetToken, "password": "newpass1", "confirm_password": "other12",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Passwords do not match", body["message"])

	rec, _ = api.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token": resetToken, "password": "newpass1", "confirm_password": "newpass1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/auth/session", oldToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = api.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "ada@example.com", "password": "newpass1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJournalCRUD(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "ada@example.com")
	other := api.signUp(t, "bob@example.com")

	rec, body := api.do(t, http.MethodPost, "/api/journals", token, map[string]any{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "text", body["field"])

	rec, body = api.do(t, http.MethodPost, "/api/journals", token, map[string]any{"text": "Morning run", "mood": map[string]float64{"happiness": 8}})
	require.Equal(t, http.StatusCreated, rec.Code)
	runID := body["journal"].(map[string]any)["id"].(string)

	rec, body = api.do(t, http.MethodPost, "/api/journals", token, map[string]any{"text": "Exam tomorrow", "analyze": true})
	require.Equal(t, http.StatusCreated, rec.Code)
	journal := body["journal"].(map[string]any)
	assert.Equal(t, 7.0, journal["mood"].(map[string]any)["fear"])
	assert.InDelta(t, 0.82, journal["mood_confidence"], 1e-9)
	assert.Equal(t, 1, api.completer.Calls())

	rec, body = api.do(t, http.MethodPost, "/api/journals", token, map[string]any{"text": "Nothing much"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 5.0, body["journal"].(map[string]any)["mood"].(map[string]any)["happiness"])

	rec, body = api.do(t, http.MethodGet, "/api/journals/mood/happiness", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []string{"Morning run", "Nothing much"}, journalTexts(body))

	rec, body = api.do(t, http.MethodGet, "/api/journals?mood=fear&search=EXAM", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Exam tomorrow"}, journalTexts(body))

	rec, _ = api.do(t, http.MethodGet, "/api/journals/mood/joy", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = api.do(t, http.MethodGet, "/api/journals?start=yesterday", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/journals/"+runID, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "entries are private to their owner")
	rec, body = api.do(t, http.MethodGet, "/api/journals", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["journals"])

	rec, body = api.do(t, http.MethodPut, "/api/journals/"+runID, token, map[string]any{"text": "Morning run, 5k"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Morning run, 5k", body["journal"].(map[string]any)["text"])

	rec, _ = api.do(t, http.MethodPut, "/api/journals/"+runID, token, map[string]any{"mood": map[string]float64{"anger": 12}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(t, http.MethodDelete, "/api/journals/"+runID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.do(t, http.MethodGet, "/api/journals/"+runID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, body = api.do(t, http.MethodGet, "/api/journals", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, journalTexts(body), "Morning run, 5k")

	rec, _ = api.do(t, http.MethodGet, "/api/journals/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMoodEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "ada@example.com")

	rec, body := api.do(t, http.MethodPost, "/api/mood/analyze", token, map[string]string{"text": "Exam tomorrow"})
	require.Equal(t, http.StatusOK, rec.Code)
	analysis := body["analysis"].(map[string]any)
	assert.Equal(t, []any{"exam", "nervous"}, analysis["keywords"])

	rec, body = api.do(t, http.MethodGet, "/api/mood/analyses", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["analyses"], 1)

	api.completer.Reply = services.Completion{Content: "not json"}
	rec, _ = api.do(t, http.MethodPost, "/api/mood/analyze", token, map[string]string{"text": "again"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "ada@example.com")

	rec, body := api.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Test User", body["profile"].(map[string]any)["name"])

	rec, body = api.do(t, http.MethodPut, "/api/profile", token, map[string]string{"name": "Ada L."})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada L.", body["profile"].(map[string]any)["name"])

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG fake image"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/profile/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	api.router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Contains(t, res.Body.String(), "https://res.example.com/avatars/")
}

func TestSessionWebSocket(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.router)
	defer srv.Close()

	token := api.signUp(t, "ada@example.com")
	second, body := api.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "ada@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, second.Code)
	otherToken := body["session"].(map[string]any)["token"].(string)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/session?access_token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Wait until the socket has subscribed before publishing.
	subscribed := func() bool {
		rec, body := api.do(t, http.MethodGet, "/api/auth/session", token, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		id := body["session"].(map[string]any)["user_id"].(string)
		return api.hub.Subscribers(id) == 1
	}
	require.Eventually(t, subscribed, 2*time.Second, 10*time.Millisecond)

	// Another device signs out: this socket stays open.
	rec, _ := api.do(t, http.MethodPost, "/api/auth/signout", otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var evt models.SessionEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, models.SessionSignedOut, evt.Type)

	// This device signs out: the event arrives and the socket closes.
	rec, _ = api.do(t, http.MethodPost, "/api/auth/signout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, models.SessionSignedOut, evt.Type)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)
	rec, body := api.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}
