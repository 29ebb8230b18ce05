package whatsapp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AzielCF/az-ravena/core/config"
	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/loadreport"
	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
)

// Manager owns every configured bot of the process.
type Manager struct {
	mu    sync.RWMutex
	bots  map[string]*Bot
	order []string

	restartDelay time.Duration
	readyTimeout time.Duration
	restarting   sync.Map
}

var _ domainBot.IBotRegistry = (*Manager)(nil)

// NewManager builds one Bot per configured entry. Handler and tracker are
// shared by all bots.
func NewManager(cfg *config.Config, handler domainBot.IEventHandler, tracker loadreport.ILoadTracker, notify func(domainBot.StatusEvent)) *Manager {
	m := &Manager{
		bots:         make(map[string]*Bot, len(cfg.Bots)),
		restartDelay: time.Second,
		readyTimeout: time.Minute,
	}
	community := domainBot.CommunityGroups{
		Logs:      cfg.Community.Logs,
		Invites:   cfg.Community.Invites,
		Avisos:    cfg.Community.Avisos,
		Interacao: cfg.Community.Interacao,
	}
	for _, bc := range cfg.Bots {
		m.add(NewBot(Options{
			Bot:           bc,
			Runtime:       cfg.Bot,
			Whatsapp:      cfg.Whatsapp,
			App:           cfg.App,
			Community:     community,
			SessionDriver: cfg.Database.SessionDriver,
			SessionURI:    cfg.SessionURIFor(bc.ID),
			Handler:       handler,
			Tracker:       tracker,
			Notify:        notify,
		}))
	}
	return m
}

func (m *Manager) add(b *Bot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bots[b.ID()]; !ok {
		m.order = append(m.order, b.ID())
	}
	m.bots[b.ID()] = b
}

// StartAll initializes the bots one after the other. A bot that fails to
// start is logged and skipped.
func (m *Manager) StartAll(ctx context.Context) {
	for _, b := range m.all() {
		if err := b.Initialize(ctx); err != nil {
			logrus.WithError(err).WithField("bot_id", b.ID()).Error("[BOT] Failed to initialize")
			continue
		}
		logrus.WithField("bot_id", b.ID()).Info("[BOT] Initialized")
	}
}

func (m *Manager) StopAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, b := range m.all() {
		wg.Add(1)
		go func(b *Bot) {
			defer wg.Done()
			b.Destroy(ctx)
		}(b)
	}
	wg.Wait()
}

func (m *Manager) Get(id string) (domainBot.IBot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bots[id]
	if !ok {
		return nil, false
	}
	return b, true
}

func (m *Manager) List() []domainBot.IBot {
	bots := m.all()
	out := make([]domainBot.IBot, 0, len(bots))
	for _, b := range bots {
		out = append(out, b)
	}
	return out
}

func (m *Manager) all() []*Bot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Bot, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.bots[id])
	}
	return out
}

// RestartBot schedules a restart and returns immediately. Progress is
// announced in the bot's avisos group.
func (m *Manager) RestartBot(_ context.Context, id, reason string) error {
	m.mu.RLock()
	b, ok := m.bots[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("bot %s not found", id)
	}
	if _, busy := m.restarting.LoadOrStore(id, struct{}{}); busy {
		return fmt.Errorf("bot %s is already restarting", id)
	}
	if reason == "" {
		reason = "Reinicialização solicitada por admin"
	}

	go func() {
		defer m.restarting.Delete(id)
		time.Sleep(m.restartDelay)
		m.restart(b, reason)
	}()
	return nil
}

func (m *Manager) restart(b *Bot, reason string) {
	ctx := context.Background()
	avisos := b.opts.Community.Avisos
	logger := logrus.WithFields(logrus.Fields{"bot_id": b.ID(), "reason": reason})
	logger.Info("[BOT] Restarting")

	if b.IsConnected() {
		notice := fmt.Sprintf("⚠️ Reiniciando bot %s em %s\nMotivo: %s", b.ID(), time.Now().Format(noticeTimeLayout), reason)
		if _, err := b.sendNotice(ctx, avisos, notice); err != nil {
			logger.WithError(err).Warn("[BOT] Could not announce restart")
		}
	}

	b.Destroy(ctx)
	b.notify(domainBot.StatusRestart, map[string]any{"reason": reason})

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, b.Initialize(ctx)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(3))
	if err != nil {
		logger.WithError(err).Error("[BOT] Restart failed")
		return
	}

	if !m.waitConnected(ctx, b) {
		logger.Warn("[BOT] Restarted but not connected yet")
		return
	}
	notice := fmt.Sprintf("✅ Bot %s reiniciado com sucesso em %s", b.ID(), time.Now().Format(noticeTimeLayout))
	if _, err := b.sendNotice(ctx, avisos, notice); err != nil {
		logger.WithError(err).Warn("[BOT] Could not announce restart completion")
	}
	logger.Info("[BOT] Restart completed")
}

func (m *Manager) waitConnected(ctx context.Context, b *Bot) bool {
	ctx, cancel := context.WithTimeout(ctx, m.readyTimeout)
	defer cancel()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for !b.IsConnected() {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
	return true
}
