package https_server_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"direct_chat_server/internal/config"
	dao "direct_chat_server/internal/dao/mysql"
	"direct_chat_server/internal/dao/mysql/repository"
	gatewayws "direct_chat_server/internal/gateway/websocket"
	"direct_chat_server/internal/handler"
	"direct_chat_server/internal/https_server"
	"direct_chat_server/internal/service"
	"direct_chat_server/internal/service/chat"
	"direct_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := handler.InitTrans("en"); err != nil {
		t.Fatalf("init translator: %v", err)
	}

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := dao.OpenSqlite("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	tokens := jwt.NewManager(jwt.Config{
		Secret:      "test-secret",
		Issuer:      "direct-chat",
		Audience:    "chat-users",
		TokenExpiry: 15 * time.Minute,
	})
	svc := service.NewServices(service.Dependencies{
		Repos:  repository.NewRepositories(db),
		Tokens: tokens,
	})
	handlers := handler.NewHandlers(svc, tokens, gatewayws.Options{WriteWait: 5 * time.Second, MaxMessageSize: 4096})

	server := httptest.NewServer(https_server.Init(config.Default(), handlers))
	t.Cleanup(func() {
		server.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return server
}

func mustJSON(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, method, url string, body io.Reader, authHeader string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("do request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("decode %s response: %v", url, err)
	}
	return resp.StatusCode, out
}

func credentials(t *testing.T, username, password string) io.Reader {
	return mustJSON(t, map[string]string{"username": username, "password": password})
}

func register(t *testing.T, server *httptest.Server, username string) string {
	t.Helper()
	status, body := doReq(t, http.MethodPost, server.URL+"/register", credentials(t, username, "pw-"+username), "")
	if status != http.StatusCreated {
		t.Fatalf("register %s: status=%d body=%v", username, status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("register %s: no token in %v", username, body)
	}
	return token
}

func TestAuthEndpoints(t *testing.T) {
	server := newTestServer(t)
	register(t, server, "alice")

	tests := []struct {
		name   string
		path   string
		user   string
		pass   string
		status int
	}{
		{"duplicate register", "/register", "alice", "x", http.StatusConflict},
		{"blank register", "/register", "", "x", http.StatusBadRequest},
		{"whitespace register", "/register", "   ", "x", http.StatusBadRequest},
		{"login ok", "/login", "alice", "pw-alice", http.StatusOK},
		{"login wrong password", "/login", "alice", "nope", http.StatusUnauthorized},
		{"login unknown user", "/login", "bob", "pw", http.StatusUnauthorized},
		{"login blank", "/login", "alice", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doReq(t, http.MethodPost, server.URL+tt.path, credentials(t, tt.user, tt.pass), "")
			if status != tt.status {
				t.Fatalf("status=%d want %d body=%v", status, tt.status, body)
			}
			if status == http.StatusOK {
				if _, ok := body["token"].(string); !ok {
					t.Errorf("missing token in %v", body)
				}
			} else if _, ok := body["error"].(string); !ok {
				t.Errorf("missing error in %v", body)
			}
		})
	}
}

func dial(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/chat"
	if token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) chat.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	e, err := chat.Decode(data)
	if err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return e
}

func expectClose(t *testing.T, conn *websocket.Conn, code int, reason string) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		t.Fatalf("expected close error, got %v", err)
	}
	if closeErr.Code != code || closeErr.Text != reason {
		t.Fatalf("close = %d %q, want %d %q", closeErr.Code, closeErr.Text, code, reason)
	}
}

func send(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		t.Fatalf("write %q: %v", text, err)
	}
}

func TestWebSocketRejectsBadTokens(t *testing.T) {
	server := newTestServer(t)

	expectClose(t, dial(t, server, ""), websocket.ClosePolicyViolation, "Missing token")
	expectClose(t, dial(t, server, "garbage"), websocket.ClosePolicyViolation, "Invalid token")
}

func TestWebSocketConversation(t *testing.T) {
	server := newTestServer(t)
	aliceToken := register(t, server, "alice")
	bobToken := register(t, server, "bob")

	alice := dial(t, server, aliceToken)
	if got := readEvent(t, alice); got != (chat.SystemMessage{Text: "Welcome, alice! You are now connected."}) {
		t.Fatalf("welcome = %#v", got)
	}

	// bob 离线，消息进入待补发队列
	send(t, alice, "@bob hello")
	want := chat.CommandResult{Command: "queued", Result: "to bob (offline — will be delivered later)"}
	if got := readEvent(t, alice); got != want {
		t.Fatalf("got %#v, want %#v", got, want)
	}

	bob := dial(t, server, bobToken)
	if got := readEvent(t, bob); got != (chat.SystemMessage{Text: "Welcome, bob! You are now connected."}) {
		t.Fatalf("bob welcome = %#v", got)
	}
	if got := readEvent(t, bob); got != (chat.UserMessage{Sender: "alice", Text: "hello"}) {
		t.Fatalf("bob backlog = %#v", got)
	}

	send(t, alice, "@bob hi")
	if got := readEvent(t, bob); got != (chat.UserMessage{Sender: "alice", Text: "hi"}) {
		t.Fatalf("bob live = %#v", got)
	}
	if got := readEvent(t, alice); got != (chat.CommandResult{Command: "sent", Result: "to bob"}) {
		t.Fatalf("alice sent = %#v", got)
	}

	send(t, alice, "/users")
	if got := readEvent(t, alice); got != (chat.CommandResult{Command: "users", Result: "Online users: alice, bob"}) {
		t.Fatalf("users = %#v", got)
	}

	status, body := doReq(t, http.MethodGet, server.URL+"/api/users/online", nil, "Bearer "+aliceToken)
	if status != http.StatusOK || body["count"] != float64(2) {
		t.Fatalf("online users status=%d body=%v", status, body)
	}
	status, body = doReq(t, http.MethodGet, server.URL+"/api/history/bob", nil, "Bearer "+aliceToken)
	if status != http.StatusOK {
		t.Fatalf("history status=%d body=%v", status, body)
	}
	if msgs, _ := body["messages"].([]any); len(msgs) != 2 {
		t.Fatalf("history = %v", body)
	}
	if status, _ := doReq(t, http.MethodGet, server.URL+"/api/history/zed", nil, "Bearer "+aliceToken); status != http.StatusNotFound {
		t.Errorf("history unknown user status=%d", status)
	}
	if status, _ := doReq(t, http.MethodGet, server.URL+"/api/users/online", nil, ""); status != http.StatusUnauthorized {
		t.Errorf("unauthenticated status=%d", status)
	}

	send(t, alice, "/bye")
	if got := readEvent(t, alice); got != (chat.CloseConnection{Text: "Goodbye!"}) {
		t.Fatalf("bye = %#v", got)
	}
	expectClose(t, alice, websocket.CloseNormalClosure, "User left")

	// bob 重连不会再次收到已送达的消息
	_ = bob.Close()
	bobAgain := dial(t, server, bobToken)
	readEvent(t, bobAgain)
	send(t, bobAgain, "/history alice")
	got, ok := readEvent(t, bobAgain).(chat.CommandResult)
	if !ok || got.Command != "history" || len(strings.Split(got.Result, "\n")) != 2 {
		t.Fatalf("history = %#v", got)
	}
}
