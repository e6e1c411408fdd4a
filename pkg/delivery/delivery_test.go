/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package delivery_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/TBD54566975/tbdex-go/pkg/delivery"
	mockdelivery "github.com/TBD54566975/tbdex-go/pkg/internal/gomocks/delivery"
	"github.com/TBD54566975/tbdex-go/pkg/internal/tbdextest"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
)

func fastConfig() delivery.Config {
	return delivery.Config{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		RequestTimeout:  time.Second,
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := delivery.LoadConfig()
	require.NoError(t, err)
	require.Equal(t, uint64(5), cfg.MaxRetries)
	require.Equal(t, 500*time.Millisecond, cfg.InitialInterval)

	t.Setenv("TBDEX_DELIVERY_MAX_RETRIES", "9")
	t.Setenv("TBDEX_DELIVERY_REQUEST_TIMEOUT", "2s")

	cfg, err = delivery.LoadConfig()
	require.NoError(t, err)
	require.Equal(t, uint64(9), cfg.MaxRetries)
	require.Equal(t, 2*time.Second, cfg.RequestTimeout)

	t.Setenv("TBDEX_DELIVERY_MAX_RETRIES", "many")

	_, err = delivery.LoadConfig()
	require.Error(t, err)
}

func TestReplyToNotifier(t *testing.T) {
	p := tbdextest.NewParties(t)
	rfq := p.RFQ(t, p.Offering(t, false), "10")
	quote := p.Quote(t, rfq.Metadata.ID, time.Hour)

	t.Run("retries server errors", func(t *testing.T) {
		var calls int32

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)

				return
			}

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			got, err := message.ParseQuote(body)
			require.NoError(t, err)
			require.Equal(t, quote.Metadata.ID, got.Metadata.ID)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		}))
		defer srv.Close()

		n := delivery.NewReplyToNotifier(fastConfig())
		require.NoError(t, n.Notify(context.Background(), srv.URL, quote))
		require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls int32

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		n := delivery.NewReplyToNotifier(fastConfig(), delivery.WithHTTPClient(srv.Client()))

		err := n.Notify(context.Background(), srv.URL, quote)
		require.ErrorIs(t, err, delivery.ErrDeliveryFailed)
		require.Equal(t, int32(4), atomic.LoadInt32(&calls))
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls int32

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		err := delivery.NewReplyToNotifier(fastConfig()).Notify(context.Background(), srv.URL, quote)
		require.ErrorIs(t, err, delivery.ErrDeliveryFailed)
		require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("no reply-to", func(t *testing.T) {
		require.NoError(t, delivery.NewReplyToNotifier(fastConfig()).Notify(context.Background(), "", quote))
	})

	t.Run("bad url", func(t *testing.T) {
		err := delivery.NewReplyToNotifier(fastConfig()).Notify(context.Background(), "://nope", quote)
		require.Error(t, err)
	})
}

func TestNotifiers(t *testing.T) {
	ctrl := gomock.NewController(t)

	p := tbdextest.NewParties(t)
	rfq := p.RFQ(t, p.Offering(t, false), "10")

	failing := mockdelivery.NewMockNotifier(ctrl)
	failing.EXPECT().Notify(gomock.Any(), "https://cb", rfq).Return(errors.New("offline"))

	working := mockdelivery.NewMockNotifier(ctrl)
	working.EXPECT().Notify(gomock.Any(), "https://cb", rfq).Return(nil)

	err := delivery.Notifiers{failing, working}.Notify(context.Background(), "https://cb", rfq)
	require.EqualError(t, err, "offline")
}

func TestWSNotifier(t *testing.T) {
	p := tbdextest.NewParties(t)
	rfq := p.RFQ(t, p.Offering(t, false), "10")
	id := rfq.Metadata.ID

	n := delivery.NewWSNotifier()

	srv := httptest.NewServer(n)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?" + delivery.ExchangeIDParam + "=" + id

	conn, _, err := websocket.Dial(ctx, url, nil) //nolint:bodyclose
	require.NoError(t, err)

	defer conn.Close(websocket.StatusNormalClosure, "") //nolint:errcheck

	require.Eventually(t, func() bool { return n.Subscribers(id) == 1 }, time.Second, 10*time.Millisecond)

	other := p.RFQ(t, p.Offering(t, false), "10")
	require.NoError(t, n.Notify(ctx, "", other))

	quote := p.Quote(t, id, time.Hour)
	require.NoError(t, n.Notify(ctx, "", quote))

	_, raw, err := conn.Read(ctx)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, quote.Metadata.ID, got["metadata"].(map[string]interface{})["id"])

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	require.Eventually(t, func() bool { return n.Subscribers(id) == 0 }, time.Second, 10*time.Millisecond)
}

func TestWSNotifier_Origins(t *testing.T) {
	srv := httptest.NewServer(delivery.NewWSNotifier("wallet.example", "*.tbdex.example"))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?" + delivery.ExchangeIDParam + "=rfq_01h2e8kqvbfwea724h75qc655w"

	tests := []struct {
		origin string
		ok     bool
	}{
		{"", true},
		{"https://wallet.example", true},
		{"https://app.tbdex.example", true},
		{"https://evil.example", false},
		{"not a url", false},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.origin, func(t *testing.T) {
			header := http.Header{}
			if tc.origin != "" {
				header.Set("Origin", tc.origin)
			}

			conn, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header}) //nolint:bodyclose

			if !tc.ok {
				require.Error(t, err)
				require.Equal(t, http.StatusForbidden, resp.StatusCode)
				require.NoError(t, resp.Body.Close())

				return
			}

			require.NoError(t, err)
			require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
		})
	}
}

func TestPoller(t *testing.T) {
	ctrl := gomock.NewController(t)

	p := tbdextest.NewParties(t)
	rfq := p.RFQ(t, p.Offering(t, false), "10")
	id := rfq.Metadata.ID
	quote := p.Quote(t, id, time.Hour)
	closeMsg := p.Close(t, id, false)

	fetcher := mockdelivery.NewMockFetcher(ctrl)
	gomock.InOrder(
		fetcher.EXPECT().GetExchange(gomock.Any(), id).Return([]message.Message{rfq}, nil),
		fetcher.EXPECT().GetExchange(gomock.Any(), id).Return(nil, errors.New("unavailable")),
		fetcher.EXPECT().GetExchange(gomock.Any(), id).Return([]message.Message{rfq, quote}, nil),
		fetcher.EXPECT().GetExchange(gomock.Any(), id).Return([]message.Message{rfq, quote, closeMsg}, nil),
	)

	var handled []string

	err := delivery.NewPoller(fetcher, time.Millisecond).Poll(context.Background(), id, func(msg message.Message) error {
		handled = append(handled, msg.GetMetadata().ID)

		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{rfq.Metadata.ID, quote.Metadata.ID, closeMsg.Metadata.ID}, handled)

	t.Run("handler stops", func(t *testing.T) {
		fetcher.EXPECT().GetExchange(gomock.Any(), id).Return([]message.Message{rfq, quote}, nil)

		err := delivery.NewPoller(fetcher, time.Millisecond).Poll(context.Background(), id, func(message.Message) error {
			return delivery.ErrStopPolling
		})
		require.NoError(t, err)
	})

	t.Run("context done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		fetcher.EXPECT().GetExchange(gomock.Any(), id).DoAndReturn(
			func(context.Context, string) ([]message.Message, error) {
				cancel()

				return []message.Message{rfq}, nil
			})

		err := delivery.NewPoller(fetcher, time.Hour).Poll(ctx, id, func(message.Message) error { return nil })
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewMessages(t *testing.T) {
	p := tbdextest.NewParties(t)
	rfq := p.RFQ(t, p.Offering(t, false), "10")
	quote := p.Quote(t, rfq.Metadata.ID, time.Hour)

	seen := map[string]struct{}{}

	require.Equal(t, []message.Message{rfq}, delivery.NewMessages(seen, []message.Message{rfq}))
	require.Equal(t, []message.Message{quote}, delivery.NewMessages(seen, []message.Message{rfq, quote}))
	require.Empty(t, delivery.NewMessages(seen, []message.Message{rfq, quote}))
}
