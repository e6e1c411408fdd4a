/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/samber/lo"
	"nhooyr.io/websocket"

	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
)

const (
	// ExchangeIDParam is the query parameter a subscriber names its exchange with.
	ExchangeIDParam = "exchangeId"

	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

type subscriber struct {
	msgs      chan []byte
	closeSlow func()
}

// WSNotifier fans messages out to the WebSocket subscribers of their exchange. A subscriber that
// falls behind is disconnected.
type WSNotifier struct {
	subscribers map[string]map[*subscriber]struct{}
	lock        sync.Mutex
	origins     []string
}

// NewWSNotifier creates a WSNotifier. originPatterns lists the extra origin hosts, as path.Match
// patterns, allowed to subscribe from a browser. Same-host origins are always allowed.
func NewWSNotifier(originPatterns ...string) *WSNotifier {
	return &WSNotifier{
		subscribers: make(map[string]map[*subscriber]struct{}),
		origins:     originPatterns,
	}
}

// allowedOrigin reports whether the Origin header matches one of the extra origin patterns.
func (n *WSNotifier) allowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}

	return lo.ContainsBy(n.origins, func(pattern string) bool {
		ok, err := path.Match(pattern, u.Host)

		return err == nil && ok
	})
}

// ServeHTTP upgrades the request and streams the messages of the exchange named by the exchangeId
// query parameter until the client goes away.
func (n *WSNotifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	exchangeID := r.URL.Query().Get(ExchangeIDParam)
	if exchangeID == "" {
		http.Error(w, "missing exchangeId", http.StatusBadRequest)

		return
	}

	// websocket.Accept rejects cross-origin requests unless told the origin was checked here.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: n.allowedOrigin(r.Header.Get("Origin")),
	})
	if err != nil {
		logger.Errorf("websocket accept: %s", err)

		return
	}

	sub := &subscriber{
		msgs: make(chan []byte, subscriberBuffer),
		closeSlow: func() {
			conn.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with messages") //nolint:errcheck
		},
	}

	n.add(exchangeID, sub)
	defer n.remove(exchangeID, sub)

	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case raw := <-sub.msgs:
			err = write(ctx, conn, raw)
			if err != nil {
				logger.Debugf("websocket write for exchange %s: %s", exchangeID, err)

				return
			}
		case <-ctx.Done():
			closeConn(conn)

			return
		}
	}
}

// Notify queues msg for every subscriber of its exchange.
func (n *WSNotifier) Notify(_ context.Context, _ string, msg message.Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.GetMetadata().Kind, err)
	}

	n.lock.Lock()
	defer n.lock.Unlock()

	for sub := range n.subscribers[msg.GetMetadata().ExchangeID] {
		select {
		case sub.msgs <- raw:
		default:
			go sub.closeSlow()
		}
	}

	return nil
}

// Subscribers returns the number of subscribers of the exchange.
func (n *WSNotifier) Subscribers(exchangeID string) int {
	n.lock.Lock()
	defer n.lock.Unlock()

	return len(n.subscribers[exchangeID])
}

func (n *WSNotifier) add(exchangeID string, sub *subscriber) {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.subscribers[exchangeID] == nil {
		n.subscribers[exchangeID] = make(map[*subscriber]struct{})
	}

	n.subscribers[exchangeID][sub] = struct{}{}
}

func (n *WSNotifier) remove(exchangeID string, sub *subscriber) {
	n.lock.Lock()
	defer n.lock.Unlock()

	delete(n.subscribers[exchangeID], sub)

	if len(n.subscribers[exchangeID]) == 0 {
		delete(n.subscribers, exchangeID)
	}
}

func write(ctx context.Context, conn *websocket.Conn, raw []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return conn.Write(ctx, websocket.MessageText, raw)
}

func closeConn(conn *websocket.Conn) {
	err := conn.Close(websocket.StatusNormalClosure, "closing the connection")
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		logger.Debugf("connection close: %s", err)
	}
}
