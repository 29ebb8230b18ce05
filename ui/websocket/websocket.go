package websocket

import (
	"context"
	"encoding/json"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/infrastructure/valkey"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type client struct{}

// BroadcastMessage is the frame sent to dashboard clients. Code carries the
// status event type (connected, qr, filtered...).
type BroadcastMessage struct {
	Code      string `json:"code"`
	BotID     string `json:"bot_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Result    any    `json:"result,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	SenderID  string `json:"sender_id,omitempty"`
}

const (
	codeFetchBots = "FETCH_BOTS"
	codeListBots  = "LIST_BOTS"
)

var (
	Clients    = make(map[*websocket.Conn]client)
	Register   = make(chan *websocket.Conn)
	Broadcast  = make(chan BroadcastMessage, 64)
	Unregister = make(chan *websocket.Conn)

	vkClient *valkey.Client
	localID  string
)

// SetValkeyClient enables fan-out of events between server instances.
func SetValkeyClient(client *valkey.Client, serverID string) {
	vkClient = client
	localID = serverID
}

func channel() string {
	if vkClient == nil {
		return ""
	}
	return vkClient.Key("ws", "broadcast")
}

// PublishStatus queues a bot status event for every connected client. It
// never blocks the caller; events are dropped while the hub is saturated.
func PublishStatus(evt domainBot.StatusEvent) {
	msg := BroadcastMessage{
		Code:      evt.Type,
		BotID:     evt.BotID,
		Result:    evt.Data,
		Timestamp: evt.Timestamp.UnixMilli(),
	}
	select {
	case Broadcast <- msg:
	default:
		logrus.Warnf("[WS] Dropped %s event of %s, hub is busy", evt.Type, evt.BotID)
	}
}

func handleRegister(conn *websocket.Conn) {
	Clients[conn] = client{}
	logrus.Debug("[WS] Connection registered")
}

func handleUnregister(conn *websocket.Conn) {
	delete(Clients, conn)
	logrus.Debug("[WS] Connection unregistered")
}

func broadcastToLocal(message BroadcastMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("[WS] Marshal error: %v", err)
		return
	}

	for conn := range Clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logrus.Warnf("[WS] Write error: %v", err)
			closeConnection(conn)
		}
	}
}

func publishToValkey(message BroadcastMessage) {
	message.SenderID = localID
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	if err := vkClient.Publish(context.Background(), channel(), string(data)); err != nil {
		logrus.Errorf("[WS] Failed to publish to Valkey: %v", err)
	}
}

func startValkeySubscriber(ctx context.Context) {
	logrus.Info("[WS] Subscribing to Valkey events of other instances")
	go func() {
		err := vkClient.Subscribe(ctx, channel(), func(payload string) {
			var remote BroadcastMessage
			if err := json.Unmarshal([]byte(payload), &remote); err != nil || remote.SenderID == localID {
				return
			}
			Broadcast <- BroadcastMessage{
				Code:      remote.Code,
				BotID:     remote.BotID,
				Message:   remote.Message,
				Result:    remote.Result,
				Timestamp: remote.Timestamp,
				SenderID:  remote.SenderID,
			}
		})
		if err != nil && ctx.Err() == nil {
			logrus.Errorf("[WS] Valkey subscriber failed: %v", err)
		}
	}()
}

func closeConnection(conn *websocket.Conn) {
	_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
	_ = conn.Close()
	delete(Clients, conn)
}

// RunHub serves the channels until ctx is done.
func RunHub(ctx context.Context) {
	if vkClient != nil {
		startValkeySubscriber(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			for conn := range Clients {
				closeConnection(conn)
			}
			return

		case conn := <-Register:
			handleRegister(conn)

		case conn := <-Unregister:
			handleUnregister(conn)

		case message := <-Broadcast:
			broadcastToLocal(message)
			// Messages relayed from other instances carry their sender.
			if vkClient != nil && message.SenderID == "" {
				publishToValkey(message)
			}
		}
	}
}

// BotSummary is the per bot entry of LIST_BOTS.
type BotSummary struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Connected   bool   `json:"connected"`
}

func summarize(registry domainBot.IBotRegistry) []BotSummary {
	bots := registry.List()
	out := make([]BotSummary, 0, len(bots))
	for _, b := range bots {
		out = append(out, BotSummary{ID: b.ID(), PhoneNumber: b.PhoneNumber(), Connected: b.IsConnected()})
	}
	return out
}

func RegisterRoutes(app fiber.Router, registry domainBot.IBotRegistry) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		defer func() {
			Unregister <- conn
			_ = conn.Close()
		}()

		Register <- conn

		for {
			messageType, payload, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.Debugf("[WS] Read error: %v", err)
				}
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}

			var request BroadcastMessage
			if err := json.Unmarshal(payload, &request); err != nil {
				logrus.Debugf("[WS] Ignoring malformed frame: %v", err)
				continue
			}
			if request.Code == codeFetchBots {
				// Writes go through the hub; a connection takes one writer only.
				Broadcast <- BroadcastMessage{Code: codeListBots, Message: "Bots found", Result: summarize(registry), SenderID: localID}
			}
		}
	}))
}
