package rtds

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestRTDSNumber_Unmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`"0.52"`, "0.52"},
		{`0.52`, "0.52"},
		{`1000`, "1000"},
		{`"1000"`, "1000"},
	}

	for _, tc := range cases {
		var n RTDSNumber
		if err := json.Unmarshal([]byte(tc.in), &n); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if n.String() != tc.want {
			t.Errorf("unmarshal %s: got %q, want %q", tc.in, n.String(), tc.want)
		}
	}

	var n RTDSNumber
	if err := json.Unmarshal([]byte(`{"x":1}`), &n); err == nil {
		t.Error("expected error unmarshaling an object into RTDSNumber")
	}
}

func TestRTDSNumber_Float64(t *testing.T) {
	n := RTDSNumber(" 0.75 ")
	f, err := n.Float64()
	if err != nil {
		t.Fatalf("Float64: %v", err)
	}
	if f != 0.75 {
		t.Errorf("got %v, want 0.75", f)
	}

	if _, err := RTDSNumber("").Float64(); err == nil {
		t.Error("expected error for empty number")
	}
}

func TestParseTrade_FieldGenerations(t *testing.T) {
	// Newer firehose shape.
	payload := []byte(`{
		"proxyWallet": "0xAbC0000000000000000000000000000000000001",
		"side": "BUY",
		"asset": "7137",
		"conditionId": "0xcond",
		"price": 0.5,
		"size": "12",
		"timestamp": 1735000000000,
		"title": "Will it rain?",
		"outcome": "Yes",
		"transactionHash": "0xtx"
	}`)

	trade, err := ParseTrade(payload)
	if err != nil {
		t.Fatalf("ParseTrade: %v", err)
	}
	if trade.Token() != "7137" {
		t.Errorf("Token: got %q, want 7137", trade.Token())
	}
	if trade.Condition() != "0xcond" {
		t.Errorf("Condition: got %q, want 0xcond", trade.Condition())
	}
	if trade.Price.String() != "0.5" {
		t.Errorf("Price: got %q, want 0.5", trade.Price.String())
	}

	// Older shape with asset_id/market.
	payload = []byte(`{"asset_id":"9999","market":"0xold","side":"SELL","size":3,"price":"0.1"}`)
	trade, err = ParseTrade(payload)
	if err != nil {
		t.Fatalf("ParseTrade: %v", err)
	}
	if trade.Token() != "9999" {
		t.Errorf("Token: got %q, want 9999", trade.Token())
	}
	if trade.Condition() != "0xold" {
		t.Errorf("Condition: got %q, want 0xold", trade.Condition())
	}
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{})
	if client == nil {
		t.Fatal("NewClientWithConfig should return a non-nil client")
	}
	if client.url != RTDSWebSocketURL {
		t.Errorf("url: got %q, want %q", client.url, RTDSWebSocketURL)
	}
	if client.pingInterval != 5*time.Second {
		t.Errorf("pingInterval: got %v, want 5s", client.pingInterval)
	}
	if client.maxReconnect != 10 {
		t.Errorf("maxReconnect: got %d, want 10", client.maxReconnect)
	}
}

func TestClient_SendMessage_NotConnected(t *testing.T) {
	client := NewClient()
	if err := client.SendMessage(SubscriptionRequest{Action: ActionSubscribe}); err == nil {
		t.Error("expected error when sending while disconnected")
	}
}

func TestClient_ActivityHandlerReceivesTrade(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		msg := Message{
			Topic:     TopicActivity,
			Type:      TypeTrades,
			Timestamp: time.Now().UnixMilli(),
			Payload:   json.RawMessage(`{"proxyWallet":"0x1","side":"BUY","asset":"42","size":1,"price":0.5}`),
		}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
		// Keep the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client := NewClientWithConfig(&ClientConfig{URL: wsURL, Reconnect: false})

	got := make(chan *Trade, 1)
	client.RegisterHandler(TopicActivity, CreateTradeHandler(func(trade *Trade) error {
		select {
		case got <- trade:
		default:
		}
		return nil
	}))

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Disconnect()

	select {
	case trade := <-got:
		if trade.Token() != "42" {
			t.Errorf("Token: got %q, want 42", trade.Token())
		}
		if trade.Side != "BUY" {
			t.Errorf("Side: got %q, want BUY", trade.Side)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for trade handler")
	}
}

func TestSubscribeTracksActiveSubscriptions(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client := NewClientWithConfig(&ClientConfig{URL: wsURL, Reconnect: false})
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Disconnect()

	if err := client.SubscribeToActivity("", ""); err != nil {
		t.Fatalf("SubscribeToActivity: %v", err)
	}

	client.subscriptionsMutex.RLock()
	n := len(client.activeSubscriptions)
	client.subscriptionsMutex.RUnlock()
	if n != 2 {
		t.Errorf("active subscriptions: got %d, want 2 (trades + orders_matched)", n)
	}

	// Subscribing again must not duplicate entries.
	if err := client.SubscribeToActivity("", ""); err != nil {
		t.Fatalf("SubscribeToActivity: %v", err)
	}
	client.subscriptionsMutex.RLock()
	n = len(client.activeSubscriptions)
	client.subscriptionsMutex.RUnlock()
	if n != 2 {
		t.Errorf("active subscriptions after resubmit: got %d, want 2", n)
	}
}
