// Package mention answers messages that mention the bot.
package mention

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/llm"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/botmonitor"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	systemPrompt = "Você é a ravenabot, um bot de WhatsApp brasileiro, simpático e um pouco sarcástico. Responda em português, de forma curta e natural, como numa conversa de grupo."
	questionFmt  = "%s te marcou e disse: %s"

	msgHint  = "Oi! 🦇 Me marcou? Use %scmd para ver o que eu sei fazer."
	msgError = "Desculpe, não consegui pensar em uma resposta agora. 😵"
)

var mentionToken = regexp.MustCompile(`@\d{5,}`)

type Handler struct {
	llm llm.ILLMService
}

func NewHandler(service llm.ILLMService) *Handler {
	return &Handler{llm: service}
}

// IsMentioned reports whether msg mentions b, through the mention list or a
// typed @number.
func IsMentioned(b domainBot.IBot, msg *message.Message) bool {
	own := utils.UserPart(b.OwnJID())
	if own == "" {
		return false
	}
	return msg.Mentioned(own) || strings.Contains(msg.Text(), "@"+own)
}

// Question strips the mention tokens from text.
func Question(text string) string {
	return strings.Join(strings.Fields(mentionToken.ReplaceAllString(text, "")), " ")
}

// Handle sends the LLM answer to the question in msg, quoting it.
func (h *Handler) Handle(ctx context.Context, b domainBot.IBot, msg *message.Message, prefix string) error {
	question := Question(msg.Text())
	if question == "" {
		_, err := b.SendReturnMessages(ctx, message.Reply(msg, fmt.Sprintf(msgHint, prefix)))
		return err
	}

	name := msg.AuthorName
	if name == "" {
		name = b.GetContactName(ctx, msg.Author)
	}

	event := botmonitor.Event{BotID: b.ID(), ChatID: msg.ChatID, Kind: "mention", Status: botmonitor.StatusOK}
	event.Stage = botmonitor.StageLLMRequest
	botmonitor.Record(event)

	started := time.Now()
	answer, err := h.llm.GetCompletion(ctx, llm.CompletionRequest{
		System:      systemPrompt,
		Prompt:      fmt.Sprintf(questionFmt, name, question),
		Temperature: 0.8,
		MaxTokens:   400,
	})

	event.Stage = botmonitor.StageLLMResponse
	event.DurationMs = time.Since(started).Milliseconds()
	if err != nil || strings.TrimSpace(answer) == "" {
		event.Status = botmonitor.StatusError
		if err != nil {
			event.Error = err.Error()
		}
		botmonitor.Record(event)
		logrus.WithError(err).WithField("bot_id", b.ID()).Warn("[MENTION] LLM answer failed")
		_, sendErr := b.SendReturnMessages(ctx, message.Reply(msg, msgError))
		return sendErr
	}
	botmonitor.Record(event)

	_, err = b.SendReturnMessages(ctx, message.Reply(msg, strings.TrimSpace(answer)))
	return err
}
