package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/codepad-io/codepad-server/internal/config"
	"github.com/codepad-io/codepad-server/internal/core"
	"github.com/codepad-io/codepad-server/internal/proto"
	"github.com/codepad-io/codepad-server/internal/runner"
	"github.com/codepad-io/codepad-server/internal/store/sqlite"
)

// catBackend runs without a compiler and prints the source verbatim,
// so transport tests never depend on a toolchain being installed.
func catBackend() runner.Backend {
	return runner.Backend{
		Name:       "cat",
		SourceFile: "main.txt",
		RunCmd:     []string{"cat", "{src}"},
	}
}

func startTestServer(t *testing.T, backend runner.Backend) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	reg := core.NewRegistry(&logger)

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	run := runner.New(backend, runner.Options{
		WorkRoot:   t.TempDir(),
		RunTimeout: 5 * time.Second,
	}, &logger)

	cfg := config.Default()
	cfg.Addr = ":0"

	server := NewServer(reg, run, st, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func createRoom(t *testing.T, ts *httptest.Server) string {
	t.Helper()

	resp, err := ts.Client().Post(ts.URL+"/create-room", "application/json", nil)
	if err != nil {
		t.Fatalf("create room request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create room status: %d", resp.StatusCode)
	}

	var body CreateRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode create room response: %v", err)
	}
	if body.RoomID == "" {
		t.Fatal("expected non-empty room id")
	}
	return body.RoomID
}

func dialRoom(t *testing.T, ctx context.Context, ts *httptest.Server, roomID string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws/" + roomID
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial room %s: %v", roomID, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendHello(t *testing.T, ctx context.Context, conn *websocket.Conn, username string) {
	t.Helper()

	if err := wsjson.Write(ctx, conn, proto.Hello{Username: username}); err != nil {
		t.Fatalf("send hello: %v", err)
	}
}

func readOutbound(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.Outbound {
	t.Helper()

	var out proto.Outbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

func expectStatus(t *testing.T, ctx context.Context, conn *websocket.Conn, content string) {
	t.Helper()

	out := readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeStatus || out.Content != content {
		t.Fatalf("expected status %q, got %+v", content, out)
	}
}
