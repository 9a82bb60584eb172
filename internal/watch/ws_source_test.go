package watch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// subscribeEchoServer confirms every logsSubscribe and then sends the given
// notifications over each accepted connection.
func subscribeEchoServer(t *testing.T, logs []string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Read subscribe request and confirm it.
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Method != "logsSubscribe" {
			t.Errorf("method = %s, want logsSubscribe", req.Method)
		}
		if err := conn.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: 42}); err != nil {
			return
		}

		// Push one notification for the confirmed subscription.
		notif := wsNotification{
			JSONRPC: "2.0",
			Method:  "logsNotification",
			Params: &wsNotificationParams{
				Subscription: 42,
				Result: wsNotificationResult{
					Context: &wsContext{Slot: 1000},
					Value: wsLogsValue{
						Signature: "sig-1",
						Logs:      logs,
					},
				},
			},
		}
		if err := conn.WriteJSON(notif); err != nil {
			return
		}

		// Keep the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestWSSource_EmitsParsedAssets(t *testing.T) {
	server := subscribeEchoServer(t, []string{
		"Program log: Instruction: InitializeMint",
		"Program log: mint: " + validMint,
	})
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	source, err := NewWSSource(context.Background(), wsURL,
		[]ProgramFeed{{Address: tokenProgram, Source: domain.SourceMintFeed}},
		NewMintLogParser(tokenProgram), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWSSource() error = %v", err)
	}
	defer source.Close()

	select {
	case asset := <-source.Assets():
		if asset.Mint != validMint {
			t.Errorf("Mint = %s, want %s", asset.Mint, validMint)
		}
		if asset.Source != domain.SourceMintFeed {
			t.Errorf("Source = %s, want MINT_FEED", asset.Source)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no asset emitted")
	}
}

func TestWSSource_IgnoresUnparseableEvents(t *testing.T) {
	server := subscribeEchoServer(t, []string{
		"Program log: Instruction: Transfer",
	})
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	source, err := NewWSSource(context.Background(), wsURL,
		[]ProgramFeed{{Address: tokenProgram, Source: domain.SourceMintFeed}},
		NewMintLogParser(tokenProgram), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWSSource() error = %v", err)
	}
	defer source.Close()

	select {
	case asset := <-source.Assets():
		t.Errorf("unexpected asset emitted: %+v", asset)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWSSource_CloseClosesChannel(t *testing.T) {
	server := subscribeEchoServer(t, nil)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	source, err := NewWSSource(context.Background(), wsURL,
		[]ProgramFeed{{Address: tokenProgram, Source: domain.SourceMintFeed}},
		NewMintLogParser(tokenProgram), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWSSource() error = %v", err)
	}

	if err := source.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case _, open := <-source.Assets():
		if open {
			t.Error("channel delivered an event after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Close")
	}
}

func TestChanSource(t *testing.T) {
	source := NewChanSource(4)

	asset := &domain.AssetDescriptor{Mint: validMint, Source: domain.SourceMintFeed}
	if !source.Emit(asset) {
		t.Fatal("Emit() = false before Close")
	}

	got := <-source.Assets()
	if got != asset {
		t.Error("received asset differs from emitted one")
	}

	if err := source.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if source.Emit(asset) {
		t.Error("Emit() = true after Close")
	}
	if _, open := <-source.Assets(); open {
		t.Error("channel still open after Close")
	}
}
