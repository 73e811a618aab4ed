package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/codepad-io/codepad-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	user := flag.String("user", "tester", "username to announce")
	code := flag.String("code", "public class Main { public static void main(String[] a) { System.out.println(\"hi\"); } }", "source to send and run")
	timeout := flag.Duration("timeout", 30*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	roomID, err := createRoom(ctx, *base)
	if err != nil {
		return err
	}
	fmt.Printf("created room %s\n", roomID)

	wsURL := strings.Replace(*base, "http", "ws", 1) + "/ws/" + roomID
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, conn, proto.Hello{Username: *user}); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeCode, Content: *code}); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeRun, Content: *code}); err != nil {
		return fmt.Errorf("send run: %w", err)
	}

	for {
		var out proto.Outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("received: type=%s user=%s content=%q\n", out.Type, out.Username, out.Content)
		if out.Type == proto.OutboundTypeOutput {
			return nil
		}
	}
}

func createRoom(ctx context.Context, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/create-room", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("create room: status %d: %s", resp.StatusCode, body)
	}

	var parsed struct {
		RoomID string `json:"room_id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse create room response: %w", err)
	}
	return parsed.RoomID, nil
}
