package whatsapp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/cenkalti/backoff/v5"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
)

const noticeTimeLayout = "02/01/2006 15:04:05"

// Initialize opens the session store and connects. When the device is not
// paired yet the QR code (or a pairing code) is emitted from the event loop.
func (b *Bot) Initialize(ctx context.Context) error {
	if b.getClient() != nil {
		return fmt.Errorf("bot %s already initialized", b.ID())
	}

	level := b.opts.Whatsapp.LogLevel
	driver := b.opts.SessionDriver
	if driver == "" {
		driver = "sqlite3"
	}
	if strings.HasPrefix(b.opts.SessionURI, "postgres:") {
		driver = "postgres"
	}

	container, err := sqlstore.New(ctx, driver, b.opts.SessionURI, waLog.Stdout("DB-"+b.ID(), level, true))
	if err != nil {
		return fmt.Errorf("failed to open session store for %s: %w", b.ID(), err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		_ = container.Close()
		return fmt.Errorf("failed to get device for %s: %w", b.ID(), err)
	}
	if device == nil {
		device = container.NewDevice()
	}

	platform := b.opts.App.Platform
	if platform == 0 {
		platform = waCompanionReg.DeviceProps_CHROME
	}
	osName := b.opts.App.OS
	if osName == "" {
		osName = "ravenabot"
	}
	store.DeviceProps.PlatformType = &platform
	store.DeviceProps.Os = &osName

	client := whatsmeow.NewClient(device, waLog.Stdout("Client-"+b.ID(), level, true))
	client.EnableAutoReconnect = true
	client.AutoTrustIdentity = true

	b.clientMu.Lock()
	b.client = client
	b.container = container
	b.handlerID = client.AddEventHandler(b.handleEvent)
	b.clientMu.Unlock()

	b.announced.Store(false)
	b.pairRequested.Store(false)

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		if err := client.Connect(); err != nil {
			logrus.WithError(err).Warnf("[BOT] %s connection attempt failed", b.ID())
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(5))
	if err != nil {
		b.teardown()
		return fmt.Errorf("failed to connect bot %s: %w", b.ID(), err)
	}

	b.startedAt.Store(time.Now().UnixNano())

	janitorCtx, cancel := context.WithCancel(context.Background())
	b.stopJanitor = cancel
	b.cache.StartJanitor(janitorCtx, time.Minute)

	logrus.WithField("bot_id", b.ID()).Info("[BOT] Client connected, waiting for session")
	return nil
}

// Destroy announces the shutdown to the logs group and disconnects.
func (b *Bot) Destroy(ctx context.Context) {
	if b.getClient() == nil {
		return
	}

	if b.IsConnected() {
		notice := fmt.Sprintf("🔌 Bot %s desligando em %s", b.ID(), time.Now().Format(noticeTimeLayout))
		if _, err := b.sendNotice(ctx, b.opts.Community.Logs, notice); err != nil {
			logrus.WithError(err).Warnf("[BOT] %s could not send shutdown notice", b.ID())
		}
	}

	b.teardown()
	logrus.WithField("bot_id", b.ID()).Info("[BOT] Client destroyed")
}

func (b *Bot) teardown() {
	b.clientMu.Lock()
	client, container := b.client, b.container
	if client != nil && b.handlerID != 0 {
		client.RemoveEventHandler(b.handlerID)
	}
	b.client, b.container, b.handlerID = nil, nil, 0
	b.clientMu.Unlock()

	if b.stopJanitor != nil {
		b.stopJanitor()
		b.stopJanitor = nil
	}
	if client != nil {
		client.Disconnect()
	}
	if container != nil {
		_ = container.Close()
	}
	b.connected.Store(false)
}

// onConnected runs once per Initialize, after the session is live.
func (b *Bot) onConnected() {
	b.connected.Store(true)
	b.notify(domainBot.StatusConnected, nil)

	go b.refreshBlocklist(context.Background())

	if !b.announced.CompareAndSwap(false, true) {
		return
	}
	notice := fmt.Sprintf("🤖 Bot %s inicializado com sucesso em %s", b.ID(), time.Now().Format(noticeTimeLayout))
	go func() {
		if _, err := b.sendNotice(context.Background(), b.opts.Community.Logs, notice); err != nil {
			logrus.WithError(err).Warnf("[BOT] %s could not send startup notice", b.ID())
		}
	}()
}

// onQR prints the QR code, or asks for a pairing code when the bot has a
// configured phone number.
func (b *Bot) onQR(codes []string) {
	if len(codes) == 0 {
		return
	}

	if phone := b.opts.Bot.PhoneNumber; phone != "" {
		if !b.pairRequested.CompareAndSwap(false, true) {
			return
		}
		go func() {
			client := b.getClient()
			if client == nil {
				return
			}
			code, err := client.PairPhone(context.Background(), phone, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
			if err != nil {
				b.pairRequested.Store(false)
				logrus.WithError(err).Errorf("[BOT] %s pairing code request failed", b.ID())
				return
			}
			logrus.Infof("[BOT] Código de pareamento para %s (%s): %s", b.ID(), phone, code)
			b.notify(domainBot.StatusPairCode, map[string]any{"code": code})
		}()
		return
	}

	logrus.Infof("[BOT] QR code para %s, escaneie com o WhatsApp:", b.ID())
	qrterminal.GenerateHalfBlock(codes[0], qrterminal.L, os.Stdout)
	b.notify(domainBot.StatusQR, map[string]any{"code": codes[0]})
}

func (b *Bot) sendNotice(ctx context.Context, chatID, text string) (string, error) {
	if chatID == "" {
		return "", nil
	}
	return b.SendMessage(ctx, chatID, message.TextContent(text), message.SendOptions{})
}
