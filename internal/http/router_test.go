package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"studio/internal/auth"
	"studio/internal/config"
	"studio/internal/db"
	"studio/internal/studio/session"
	"studio/internal/upload"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testApp struct {
	router   http.Handler
	cfg      config.Config
	gdb      *gorm.DB
	sessions *session.Registry
}

func newTestApp(t *testing.T, llmURL string) *testApp {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "app.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	uploads, err := upload.New(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("upload store: %v", err)
	}

	cfg := config.Config{
		HTTPAddr:           ":0",
		JWTSecret:          "test-secret",
		OpenRouterAPIKey:   "test-key",
		OpenRouterModel:    "test-model",
		OpenRouterEndpoint: llmURL,
		GuestSessionTTL:    time.Hour,
	}

	sessions := session.NewRegistry(cfg.GuestSessionTTL)
	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := NewRouter(cfg, gdb, jwtSvc, uploads, sessions, zap.NewNop())

	return &testApp{router: r, cfg: cfg, gdb: gdb, sessions: sessions}
}

func (a *testApp) do(t *testing.T, method, path, cookie string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

// register creates an account and returns the session cookie.
func (a *testApp) register(t *testing.T, username string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": username,
		"password": "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", username, w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c.Name + "=" + c.Value
		}
	}
	t.Fatal("no session cookie set")
	return ""
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, "")
	w := app.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t, "")

	w := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{"username": "ab", "password": "secret123"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("short username = %d", w.Code)
	}
	w = app.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{"username": "maya", "password": "short"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("short password = %d", w.Code)
	}

	app.register(t, "maya")
	w = app.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{"username": "maya", "password": "secret123"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate username = %d", w.Code)
	}

	// only duplicates map to 409; other storage failures surface as 500
	if err := app.gdb.Exec(`drop table users`).Error; err != nil {
		t.Fatalf("drop users: %v", err)
	}
	w = app.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{"username": "noah", "password": "secret123"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("storage failure = %d", w.Code)
	}
}

func TestLoginAndMe(t *testing.T) {
	app := newTestApp(t, "")
	app.register(t, "maya")

	w := app.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": "maya", "password": "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d %s", w.Code, w.Body.String())
	}
	resp := decode[map[string]any](t, w)
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatal("no token in login response")
	}

	w = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": "maya", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password = %d", w.Code)
	}

	// bearer header works as well as the cookie
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me = %d", rec.Code)
	}
	me := decode[map[string]any](t, rec)
	if me["username"] != "maya" {
		t.Fatalf("me = %v", me)
	}

	w = app.do(t, http.MethodGet, "/api/auth/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous me = %d", w.Code)
	}
}

func TestOnboarding(t *testing.T) {
	app := newTestApp(t, "")
	cookie := app.register(t, "maya")

	w := app.do(t, http.MethodPost, "/api/auth/onboarding", cookie, map[string]any{
		"favorite_mediums": []string{"watercolor", "gouache"},
		"skill_level":      "intermediate",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("onboarding = %d %s", w.Code, w.Body.String())
	}
	u := decode[map[string]any](t, w)
	if u["onboarding_completed"] != true {
		t.Fatalf("onboarding_completed = %v", u["onboarding_completed"])
	}
	if u["skill_level"] != "intermediate" {
		t.Fatalf("skill_level = %v", u["skill_level"])
	}
}

func TestSuppliesEndpoints(t *testing.T) {
	app := newTestApp(t, "")
	cookie := app.register(t, "maya")

	if w := app.do(t, http.MethodGet, "/api/supplies", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list = %d", w.Code)
	}

	w := app.do(t, http.MethodPost, "/api/supplies", cookie, map[string]any{
		"name": "Phthalo Blue", "brand": "W&N", "quantity": 1,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	created := decode[map[string]any](t, w)
	if created["stock_status"] != "low" {
		t.Fatalf("stock_status = %v", created["stock_status"])
	}
	id := uint64(created["id"].(float64))

	w = app.do(t, http.MethodPost, "/api/supplies", cookie, map[string]any{"name": "Gesso", "quantity": 9})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}

	w = app.do(t, http.MethodGet, "/api/supplies/low-stock", cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("low stock = %d", w.Code)
	}
	low := decode[[]map[string]any](t, w)
	if len(low) != 1 || low[0]["name"] != "Phthalo Blue" {
		t.Fatalf("low stock = %v", low)
	}

	w = app.do(t, http.MethodPost, "/api/supplies", cookie, map[string]any{"name": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank name = %d", w.Code)
	}

	// another account cannot see or touch it
	other := app.register(t, "satsuki")
	if w := app.do(t, http.MethodGet, fmt.Sprintf("/api/supplies/%d", id), other, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign get = %d", w.Code)
	}
	if w := app.do(t, http.MethodDelete, fmt.Sprintf("/api/supplies/%d", id), other, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign delete = %d", w.Code)
	}

	if w := app.do(t, http.MethodDelete, fmt.Sprintf("/api/supplies/%d", id), cookie, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
}

// fakeLLM answers every chat completion with a plain text reply.
func fakeLLM(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": text}},
			},
		})
	}))
}

func TestAuthenticatedChatPersists(t *testing.T) {
	llm := fakeLLM(t, "Try a misty forest scene.")
	defer llm.Close()

	app := newTestApp(t, llm.URL)
	cookie := app.register(t, "maya")

	w := app.do(t, http.MethodPost, "/api/chat", cookie, map[string]any{"message": "What should I paint?"})
	if w.Code != http.StatusOK {
		t.Fatalf("chat = %d %s", w.Code, w.Body.String())
	}
	resp := decode[map[string]any](t, w)
	if resp["response"] != "Try a misty forest scene." {
		t.Fatalf("response = %v", resp["response"])
	}
	convID := uint64(resp["conversation_id"].(float64))

	// both turns were stored
	w = app.do(t, http.MethodGet, fmt.Sprintf("/api/conversations/%d/messages", convID), cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("messages = %d", w.Code)
	}
	msgs := decode[[]map[string]any](t, w)
	if len(msgs) != 2 || msgs[0]["role"] != "user" || msgs[1]["role"] != "assistant" {
		t.Fatalf("transcript = %v", msgs)
	}

	// continuing the thread reuses the conversation
	w = app.do(t, http.MethodPost, "/api/chat", cookie, map[string]any{
		"message":         "Something smaller?",
		"conversation_id": convID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("chat = %d", w.Code)
	}
	w = app.do(t, http.MethodGet, "/api/conversations", cookie, nil)
	convs := decode[[]map[string]any](t, w)
	if len(convs) != 1 {
		t.Fatalf("have %d conversations, want 1", len(convs))
	}
	if convs[0]["message_count"] != float64(4) {
		t.Fatalf("message_count = %v", convs[0]["message_count"])
	}
}

func TestGuestChatStaysOutOfDatabase(t *testing.T) {
	llm := fakeLLM(t, "Welcome, guest!")
	defer llm.Close()

	app := newTestApp(t, llm.URL)

	w := app.do(t, http.MethodPost, "/api/chat", "", map[string]any{
		"message":     "Hello",
		"preferences": map[string]any{"skill_level": "beginner"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("guest chat = %d %s", w.Code, w.Body.String())
	}

	var guestCookie string
	for _, c := range w.Result().Cookies() {
		if c.Name == "studio_guest" {
			guestCookie = c.Name + "=" + c.Value
		}
	}
	if guestCookie == "" {
		t.Fatal("no guest cookie set")
	}
	if app.sessions.Len() != 1 {
		t.Fatalf("have %d guest sessions, want 1", app.sessions.Len())
	}

	resp := decode[map[string]any](t, w)
	convID := uint64(resp["conversation_id"].(float64))

	// same session continues the same thread
	w = app.do(t, http.MethodPost, "/api/chat", guestCookie, map[string]any{
		"message":         "And again",
		"conversation_id": convID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("second guest chat = %d %s", w.Code, w.Body.String())
	}

	// nothing guest-owned touched the database
	var n int64
	if err := app.gdb.Table("conversations").Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("%d conversations persisted for a guest", n)
	}
}

func TestChatApologizesWhenLLMDown(t *testing.T) {
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer llm.Close()

	app := newTestApp(t, llm.URL)
	cookie := app.register(t, "maya")

	w := app.do(t, http.MethodPost, "/api/chat", cookie, map[string]any{"message": "Hi"})
	if w.Code != http.StatusOK {
		t.Fatalf("chat = %d", w.Code)
	}
	resp := decode[map[string]any](t, w)
	text, _ := resp["response"].(string)
	if !strings.Contains(text, "sorry") {
		t.Fatalf("response = %q, want apology", text)
	}
}

func TestPortfolioUploadAndSharing(t *testing.T) {
	app := newTestApp(t, "")
	cookie := app.register(t, "maya")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("image", "study.png")
	_, _ = fw.Write([]byte("png bytes"))
	_ = mw.WriteField("title", "Morning study")
	_ = mw.WriteField("medium", "oil")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload = %d %s", rec.Code, rec.Body.String())
	}
	art := decode[map[string]any](t, rec)
	if art["is_copyrighted"] != true {
		t.Fatal("copyright must default on")
	}
	imagePath, _ := art["image_path"].(string)
	if imagePath == "" {
		t.Fatal("no image_path recorded")
	}
	id := uint64(art["id"].(float64))

	// owner can fetch the file
	w := app.do(t, http.MethodGet, "/uploads/"+imagePath, cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("owner fetch = %d", w.Code)
	}
	if w.Header().Get("X-Copyright") == "" {
		t.Fatal("copyright header missing")
	}

	// anonymous access is blocked until sharing is allowed
	if w := app.do(t, http.MethodGet, "/uploads/"+imagePath, "", nil); w.Code != http.StatusForbidden {
		t.Fatalf("anonymous fetch = %d", w.Code)
	}

	w = app.do(t, http.MethodPut, fmt.Sprintf("/api/portfolio/%d", id), cookie, map[string]any{"allow_sharing": true})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d", w.Code)
	}
	if w := app.do(t, http.MethodGet, "/uploads/"+imagePath, "", nil); w.Code != http.StatusOK {
		t.Fatalf("shared fetch = %d", w.Code)
	}

	// deleting removes the file too
	if w := app.do(t, http.MethodDelete, fmt.Sprintf("/api/portfolio/%d", id), cookie, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := app.do(t, http.MethodGet, "/uploads/"+imagePath, cookie, nil); w.Code != http.StatusNotFound {
		t.Fatalf("fetch after delete = %d", w.Code)
	}

	// bad extension rejected
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	fw, _ = mw.CreateFormFile("image", "script.sh")
	_, _ = fw.Write([]byte("#!/bin/sh"))
	_ = mw.Close()
	req = httptest.NewRequest(http.MethodPost, "/api/portfolio", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Cookie", cookie)
	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type upload = %d", rec.Code)
	}
}

func TestIdeaEndpoints(t *testing.T) {
	app := newTestApp(t, "")
	cookie := app.register(t, "maya")

	w := app.do(t, http.MethodPost, "/api/ideas", cookie, map[string]any{
		"title": "Moss terrarium", "category": "project", "tags": []string{"green"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	idea := decode[map[string]any](t, w)
	id := uint64(idea["id"].(float64))

	w = app.do(t, http.MethodPost, fmt.Sprintf("/api/ideas/%d/favorite", id), cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("favorite = %d", w.Code)
	}
	if decode[map[string]any](t, w)["is_favorite"] != true {
		t.Fatal("favorite not toggled")
	}

	w = app.do(t, http.MethodGet, "/api/ideas?favorite=true", cookie, nil)
	if len(decode[[]map[string]any](t, w)) != 1 {
		t.Fatal("favorite filter empty")
	}

	w = app.do(t, http.MethodGet, "/api/ideas/categories", cookie, nil)
	cats := decode[[]map[string]any](t, w)
	if len(cats) != 1 || cats[0]["category"] != "project" {
		t.Fatalf("categories = %v", cats)
	}

	w = app.do(t, http.MethodPost, fmt.Sprintf("/api/ideas/%d/archive", id), cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("archive = %d", w.Code)
	}
	w = app.do(t, http.MethodGet, "/api/ideas", cookie, nil)
	if len(decode[[]map[string]any](t, w)) != 0 {
		t.Fatal("archived idea still listed")
	}
	w = app.do(t, http.MethodGet, "/api/ideas?archived=true", cookie, nil)
	if len(decode[[]map[string]any](t, w)) != 1 {
		t.Fatal("archived filter empty")
	}
}
