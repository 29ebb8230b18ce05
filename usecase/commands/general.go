package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AzielCF/az-ravena/domains/command"
	"github.com/AzielCF/az-ravena/domains/history"
	"github.com/AzielCF/az-ravena/domains/llm"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/botmonitor"
	"github.com/AzielCF/az-ravena/pkg/timeutils"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

const (
	summaryPrompt = "Abaixo estão as últimas mensagens de um grupo de WhatsApp. Faça um resumo curto e descontraído do que foi conversado, citando quem falou o quê quando for relevante:\n\n%s"
	msgNoHistory  = "Ainda não tenho mensagens suficientes deste grupo para resumir."
	msgLLMError   = "❌ Não consegui gerar uma resposta agora. Tente novamente mais tarde."
)

var categoryOrder = []struct{ key, title string }{
	{command.CategoryGeneral, "📌 Geral"},
	{command.CategorySpeech, "🗣️ Áudio"},
	{command.CategoryFiles, "📁 Arquivos"},
	{command.CategoryGroup, "👥 Grupo"},
}

// CommandLister exposes the registered commands for the cmd listing.
type CommandLister interface {
	Commands() []*command.Command
}

// General holds the informational commands.
type General struct {
	lister      CommandLister
	history     history.IHistoryStore
	llm         llm.ILLMService
	historySize int
	now         func() time.Time
}

func NewGeneral(lister CommandLister, store history.IHistoryStore, llmService llm.ILLMService, historySize int) *General {
	if historySize <= 0 {
		historySize = 30
	}
	return &General{lister: lister, history: store, llm: llmService, historySize: historySize, now: time.Now}
}

func (g *General) Commands() []*command.Command {
	return []*command.Command{
		{
			Name:        "cmd",
			Aliases:     []string{"comandos", "menu"},
			Description: "Lista os comandos disponíveis",
			Category:    command.CategoryGeneral,
			Method:      g.list,
		},
		{
			Name:        "ping",
			Description: "Mostra a latência e o tempo online do bot",
			Category:    command.CategoryGeneral,
			Reactions:   command.Reactions{After: "🏓"},
			Method:      g.ping,
		},
		{
			Name:        "resumo",
			Description: "Resume as últimas mensagens do grupo",
			Category:    command.CategoryGeneral,
			GroupOnly:   true,
			Cooldown:    time.Minute,
			Reactions:   command.Reactions{Before: "⌛️", After: "📝"},
			Method:      g.summary,
		},
		{
			Name:        "info",
			Description: "Mostra informações sobre o bot",
			Category:    command.CategoryGeneral,
			Method:      g.info,
		},
	}
}

func (g *General) list(_ context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	prefix := req.Bot.Prefix()
	if req.Group != nil {
		prefix = req.Group.EffectivePrefix(prefix)
	}

	byCategory := make(map[string][]*command.Command)
	for _, c := range g.lister.Commands() {
		if c.Hidden || c.SuperAdminOnly {
			continue
		}
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}

	var sb strings.Builder
	sb.WriteString("🦇 *Comandos da ravenabot*\n")
	for _, cat := range categoryOrder {
		cmds := byCategory[cat.key]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n*%s*\n", cat.title)
		for _, c := range cmds {
			line := prefix + c.Name
			if c.Usage != "" {
				line += " " + c.Usage
			}
			if len(c.Reactions.Trigger) > 0 {
				line += " " + strings.Join(c.Reactions.Trigger, "")
			}
			fmt.Fprintf(&sb, "• %s: %s\n", line, c.Description)
		}
	}

	if req.Group != nil && len(req.Group.CustomCommands) > 0 {
		triggers := make([]string, 0, len(req.Group.CustomCommands))
		for _, cc := range req.Group.CustomCommands {
			t := prefix + cc.Trigger
			if cc.IgnorePrefix {
				t = cc.Trigger
			}
			triggers = append(triggers, t)
		}
		sort.Strings(triggers)
		fmt.Fprintf(&sb, "\n*📝 Comandos do grupo*\n%s\n", strings.Join(triggers, ", "))
	}
	return reply(req, strings.TrimSpace(sb.String()))
}

func (g *General) ping(_ context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	now := g.now()
	latency := time.Duration(0)
	if ts := req.Message.Timestamp; !ts.IsZero() && now.After(ts) {
		latency = now.Sub(ts)
	}
	uptime := timeutils.FormatUptime(now.Sub(req.Bot.StartedAt()))
	return reply(req, fmt.Sprintf("🏓 Pong! %dms\n⏱️ Online há %s (desde %s)", latency.Milliseconds(), uptime, humanize.Time(req.Bot.StartedAt())))
}

func (g *General) summary(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	entries, err := g.history.Recent(ctx, req.Message.ChatID, g.historySize)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var lines []string
	for _, e := range entries {
		if e.Text == "" || isCommandText(e.Text, req) {
			continue
		}
		name := e.AuthorName
		if name == "" {
			name = strings.SplitN(e.AuthorID, "@", 2)[0]
		}
		lines = append(lines, fmt.Sprintf("%s: %s", name, e.Text))
	}
	if len(lines) < 3 {
		return reply(req, msgNoHistory)
	}

	answer, err := g.llm.GetCompletion(ctx, llm.CompletionRequest{
		Prompt:      fmt.Sprintf(summaryPrompt, strings.Join(lines, "\n")),
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		logrus.WithError(err).Warn("[GENERAL] Summary failed")
		return reply(req, msgLLMError)
	}
	return reply(req, "📝 *Resumo da conversa*\n\n"+strings.TrimSpace(answer))
}

func isCommandText(text string, req *command.Request) bool {
	prefix := req.Bot.Prefix()
	if req.Group != nil {
		prefix = req.Group.EffectivePrefix(prefix)
	}
	return prefix != "" && strings.HasPrefix(text, prefix)
}

func (g *General) info(_ context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	b := req.Bot
	stats := botmonitor.GetStats(b.ID())

	counts := make(map[string]int)
	for _, e := range stats.RecentEvents {
		counts[e.Stage]++
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🦇 *ravenabot* (%s)\n\n", b.ID())
	fmt.Fprintf(&sb, "📱 Número: %s\n", b.PhoneNumber())
	fmt.Fprintf(&sb, "⏱️ Online há %s\n", timeutils.FormatUptime(g.now().Sub(b.StartedAt())))
	if last := b.LastMessageReceived(); !last.IsZero() {
		fmt.Fprintf(&sb, "📥 Última mensagem: %s\n", humanize.Time(last))
	}
	fmt.Fprintf(&sb, "\n*Eventos recentes deste bot*\n")
	fmt.Fprintf(&sb, "📨 Recebidas: %s\n", humanize.Comma(int64(counts[botmonitor.StageInbound])))
	fmt.Fprintf(&sb, "⚙️ Comandos: %s\n", humanize.Comma(int64(counts[botmonitor.StageCommand])))
	fmt.Fprintf(&sb, "📤 Enviadas: %s\n", humanize.Comma(int64(counts[botmonitor.StageOutbound])))
	fmt.Fprintf(&sb, "🚫 Filtradas: %s\n", humanize.Comma(int64(counts[botmonitor.StageFiltered])))
	fmt.Fprintf(&sb, "\n*Total do processo*\n")
	fmt.Fprintf(&sb, "📨 %s recebidas, %s enviadas, %s erros", humanize.Comma(stats.TotalInbound), humanize.Comma(stats.TotalOutbound), humanize.Comma(stats.TotalErrors))
	return reply(req, sb.String())
}
