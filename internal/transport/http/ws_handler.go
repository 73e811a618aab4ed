package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/codepad-io/codepad-server/internal/core"
	"github.com/codepad-io/codepad-server/internal/metrics"
	"github.com/codepad-io/codepad-server/internal/proto"
	"github.com/codepad-io/codepad-server/internal/runner"
	"github.com/codepad-io/codepad-server/internal/store"
	"github.com/codepad-io/codepad-server/internal/utils"
)

// StatusRoomNotFound is the application close code sent when the
// upgrade targets a room that does not exist.
const StatusRoomNotFound websocket.StatusCode = 4004

// helloTimeout bounds the wait for the initial username frame.
const helloTimeout = 10 * time.Second

// WSHandler upgrades HTTP connections and bridges them to core sessions.
type WSHandler struct {
	registry        *core.Registry
	runner          *runner.Runner
	store           store.Store
	maxMessageBytes int64
	log             *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(reg *core.Registry, run *runner.Runner, st store.Store, maxMessageBytes int64, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		registry:        reg,
		runner:          run,
		store:           st,
		maxMessageBytes: maxMessageBytes,
		log:             logger,
	}
}

// Serve handles GET /ws/:room_id for the whole lifetime of a session.
func (h *WSHandler) Serve(c *gin.Context) {
	roomID := c.Param("room_id")
	ctx := c.Request.Context()

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	if !h.registry.RoomExists(roomID) {
		h.log.Debug().Str("room_id", roomID).Msg("ws upgrade for unknown room")
		conn.Close(StatusRoomNotFound, "room not found")
		return
	}

	// The first frame names the client; everything before that is
	// protocol state, not room state.
	helloCtx, cancelHello := context.WithTimeout(ctx, helloTimeout)
	var hello proto.Hello
	err = wsjson.Read(helloCtx, conn, &hello)
	cancelHello()
	if err != nil {
		h.log.Warn().Err(err).Str("room_id", roomID).Msg("ws hello not received")
		conn.Close(websocket.StatusProtocolError, "expected hello frame")
		return
	}

	sess := core.NewSession(utils.NewID(), strings.TrimSpace(hello.Username))
	if err := h.registry.Join(roomID, sess); err != nil {
		conn.Close(StatusRoomNotFound, "room not found")
		return
	}

	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	h.log.Info().
		Str("room_id", roomID).
		Str("session_id", sess.ID).
		Str("username", sess.Name).
		Msg("session joined")

	// Registry cleanup runs on every exit path. Leave is idempotent and
	// reports whether the session was still a member, so the departure
	// notice goes out exactly once.
	defer func() {
		if h.registry.Leave(sess) {
			h.broadcast(roomID, &core.Event{
				Kind:    core.EventStatus,
				Content: sess.Name + " left",
			})
			h.log.Info().Str("room_id", roomID).Str("session_id", sess.ID).Msg("session left")
		}
	}()

	h.broadcast(roomID, &core.Event{
		Kind:    core.EventStatus,
		Content: sess.Name + " joined",
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sess)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		switch inbound.Type {
		case proto.InboundTypeCode:
			h.broadcast(sess.Room(), &core.Event{
				Kind:     core.EventCode,
				Content:  inbound.Content,
				Username: sess.Name,
			})
		case proto.InboundTypeRun:
			h.handleRun(ctx, sess, inbound.Content)
		default:
			return fmt.Errorf("unknown message type %q", inbound.Type)
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		select {
		case event, ok := <-sess.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_id", sess.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handleRun executes the shared buffer and broadcasts the result to the
// whole room. Only the requesting session's read loop suspends while the
// sandbox runs; the runner's timeout bounds the wait. Compile and
// runtime failures are user-visible output, never a session error.
func (h *WSHandler) handleRun(ctx context.Context, sess *core.Session, source string) {
	res, err := h.runner.Execute(ctx, source)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sess.ID).Msg("sandbox execution failed")
		h.broadcast(sess.Room(), &core.Event{
			Kind:    core.EventOutput,
			Content: "execution failed: internal error",
		})
		return
	}

	metrics.ExecutionsTotal.WithLabelValues(res.Kind.String()).Inc()
	metrics.ExecutionDuration.Observe(res.Duration.Seconds())

	if h.store != nil {
		// The record survives even if the requesting session is gone.
		if _, err := h.store.SaveRun(context.WithoutCancel(ctx), &store.Run{
			RoomID:   sess.Room(),
			Backend:  h.runner.Backend().Name,
			Status:   res.Kind.String(),
			Output:   res.Output,
			Duration: res.Duration,
		}); err != nil {
			h.log.Warn().Err(err).Str("room_id", sess.Room()).Msg("failed to record run")
		}
	}

	h.broadcast(sess.Room(), &core.Event{
		Kind:    core.EventOutput,
		Content: res.Render(),
	})
}

func (h *WSHandler) broadcast(roomID string, ev *core.Event) {
	_, dropped := h.registry.Broadcast(roomID, ev)
	metrics.BroadcastsTotal.WithLabelValues(eventLabel(ev.Kind)).Inc()
	if dropped > 0 {
		metrics.DeliveriesDropped.Add(float64(dropped))
	}
}
