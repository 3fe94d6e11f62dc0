package fastview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	pingResolution = time.Millisecond * 200
	// The number of lost pings tolerated before the peer is considered gone.
	pongWait = pingResolution * 4
	// Time the peer has to answer our close message.
	closeGracePeriod = time.Second
)

var upgrader = websocket.Upgrader{}

// errPublished and errClientClosed end a client's routines without failing Sync.
var (
	errPublished    = errors.New("all updates published")
	errClientClosed = errors.New("client closed the websocket")
)

// ErrPongDeadlineExceeded indicates the peer stopped answering pings.
var ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")

// A client publishes updates unidirectionally to a web page via websocket. Every update is
// sent, in order; pacing is the producer's concern.
type client[T any] struct {
	updates <-chan T
	ws      *websock
	pong    chan struct{}
	rootCtx context.Context
}

// NewClient upgrades the request to a websocket and returns a publisher of the updates
// chan. On failure an http error has already been written to w.
func NewClient[T any](
	updates <-chan T,
	w http.ResponseWriter,
	r *http.Request,
) (*client[T], error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(maxMessageSize)

	cli := &client[T]{
		updates: updates,
		ws:      newWebSocket(ws),
		pong:    make(chan struct{}, 1),
		rootCtx: r.Context(),
	}
	// Handlers must be in place before the first read.
	ws.SetPongHandler(func(_ string) error {
		select {
		case cli.pong <- struct{}{}:
		default:
		}
		return nil
	})
	return cli, nil
}

// Sync publishes every update to the client as JSON, then closes the websocket normally once
// the updates chan is closed. Sync returns nil upon completion or client disconnect, and an
// error if an unexpected error occurred.
func (cli *client[T]) Sync() error {
	defer cli.ws.Close()

	group, groupCtx := errgroup.WithContext(cli.rootCtx)
	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		if err := cli.publish(groupCtx); err != nil {
			return err
		}
		return errPublished
	})

	err := group.Wait()
	if errors.Is(err, errPublished) || errors.Is(err, errClientClosed) {
		return nil
	}
	return err
}

// pingPong checks the client's liveness. readMessages must be running for the pong handler
// to be called.
func (cli *client[T]) pingPong(ctx context.Context) error {
	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-cli.pong:
			lastPong = time.Now()
		}
	}
}

func (cli *client[T]) ping(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) (err error) {
			if err = ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				err = fmt.Errorf("ping failed: %w", err)
			}
			return
		})
}

// readMessages drains messages from the client so that control frames are processed.
// Errors returned by websocket Read methods are permanent, hence any error ends the client.
func (cli *client[T]) readMessages(ctx context.Context) error {
	for {
		err := cli.ws.Read(
			ctx,
			func(ws *websocket.Conn) (readErr error) {
				_, _, readErr = ws.ReadMessage()
				return
			})
		switch {
		case err == nil:
			if ctx.Err() != nil {
				return nil
			}
		case ctx.Err() != nil:
			return nil
		case isClosure(err):
			return errClientClosed
		default:
			return fmt.Errorf("read failed: %w", err)
		}
	}
}

// publish writes each update, then a close message once the updates chan is closed.
func (cli *client[T]) publish(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-cli.updates:
			if !ok {
				return cli.closeNormally(ctx)
			}
			err := cli.ws.Write(
				ctx,
				func(ws *websocket.Conn) (writeErr error) {
					if writeErr = ws.SetWriteDeadline(time.Now().Add(writeWait)); writeErr != nil {
						return fmt.Errorf("failed to set deadline: %w", writeErr)
					}
					if writeErr = ws.WriteJSON(update); writeErr != nil {
						writeErr = fmt.Errorf("publish failed: %w", writeErr)
					}
					return
				})
			if err != nil {
				return err
			}
		}
	}
}

// closeNormally sends the close message and bounds the wait for the peer's reply, which
// unblocks readMessages.
func (cli *client[T]) closeNormally(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) error {
			err := ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				return fmt.Errorf("close failed: %w", err)
			}
			return ws.SetReadDeadline(time.Now().Add(closeGracePeriod))
		})
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived)
}
