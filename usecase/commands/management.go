package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AzielCF/az-ravena/domains/command"
	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/utils"
)

// Management implements the g- commands that configure a group.
type Management struct {
	groups group.IGroupRepository
}

func NewManagement(groups group.IGroupRepository) *Management {
	return &Management{groups: groups}
}

func (m *Management) Commands() []*command.Command {
	admin := func(name, usage, desc string, fn command.HandlerFunc) *command.Command {
		return &command.Command{
			Name:        name,
			Usage:       usage,
			Description: desc,
			Category:    command.CategoryGroup,
			AdminOnly:   true,
			GroupOnly:   true,
			Reactions:   command.Reactions{After: "⚙️"},
			Method:      fn,
		}
	}
	return []*command.Command{
		admin("g-pausar", "", "Pausa ou retoma o bot no grupo", m.pause),
		admin("g-setNome", "<nome>", "Define o nome do grupo", m.setName),
		admin("g-setPrefixo", "[prefixo|padrao]", "Define o prefixo de comandos do grupo", m.setPrefix),
		admin("g-filtro-palavra", "[palavra]", "Liga/desliga o filtro de uma palavra", m.filterWord),
		admin("g-filtro-links", "", "Liga/desliga o filtro de links", m.filterLinks),
		admin("g-filtro-nsfw", "", "Liga/desliga o filtro de conteúdo NSFW", m.filterNSFW),
		admin("g-filtro-pessoa", "<número>", "Apaga todas as mensagens de uma pessoa", m.filterPerson),
		admin("g-ignorar", "<número>", "Ignora ou volta a ouvir um número", m.ignore),
		admin("g-mute", "<texto>", "Ignora mensagens que começam com o texto", m.mute),
		admin("g-setBoasvindas", "[texto]", "Mensagem para quem entra ({pessoa})", m.setGreeting),
		admin("g-setDespedida", "[texto]", "Mensagem para quem sai ({pessoa})", m.setFarewell),
		admin("g-autoStt", "", "Liga/desliga a transcrição automática de áudios", m.autoSTT),
		admin("g-addCmd", "<gatilho> | <resposta>", "Cria ou adiciona resposta a um comando personalizado", m.addCmd),
		admin("g-delCmd", "<gatilho>", "Remove um comando personalizado", m.delCmd),
		admin("g-autoCmd", "<gatilho>", "Faz o comando responder sem prefixo", m.autoCmd),
		admin("g-addAdmin", "<número>", "Dá acesso aos comandos de grupo", m.addAdmin),
		admin("g-delAdmin", "<número>", "Remove o acesso aos comandos de grupo", m.delAdmin),
		admin("g-info", "", "Mostra a configuração do grupo", m.info),
	}
}

// update applies fn to the request group, saves it and replies with fn's text.
func (m *Management) update(ctx context.Context, req *command.Request, fn func(g *group.Group) string) ([]message.ReturnMessage, error) {
	g := req.Group
	out := fn(g)
	if err := saveGroup(ctx, m.groups, g); err != nil {
		return nil, err
	}
	return reply(req, out)
}

func (m *Management) prefix(req *command.Request) string {
	return req.Group.EffectivePrefix(req.Bot.Prefix())
}

func (m *Management) pause(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	return m.update(ctx, req, func(g *group.Group) string {
		g.Paused = !g.Paused
		if g.Paused {
			return fmt.Sprintf("⏸️ Bot pausado neste grupo. Use %sg-pausar para retomar.", m.prefix(req))
		}
		return "▶️ Bot retomado neste grupo."
	})
}

func (m *Management) setName(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	name := strings.TrimSpace(req.ArgText())
	if name == "" {
		return reply(req, fmt.Sprintf("Por favor, forneça um nome. Exemplo: %sg-setNome meugrupo", m.prefix(req)))
	}
	name = utils.DefaultGroupName(name)
	return m.update(ctx, req, func(g *group.Group) string {
		g.Name = name
		return fmt.Sprintf("✅ Nome do grupo definido como: *%s*", name)
	})
}

func (m *Management) setPrefix(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	arg := strings.TrimSpace(req.ArgText())
	return m.update(ctx, req, func(g *group.Group) string {
		switch {
		case strings.EqualFold(arg, "padrao") || strings.EqualFold(arg, "padrão"):
			g.Prefix = nil
			return fmt.Sprintf("✅ Prefixo redefinido para o padrão: *%s*", req.Bot.Prefix())
		case arg == "":
			empty := ""
			g.Prefix = &empty
			return "✅ Prefixo removido. Agora qualquer mensagem pode ser um comando."
		default:
			p := arg
			g.Prefix = &p
			return fmt.Sprintf("✅ Prefixo definido como: *%s*", p)
		}
	})
}

func (m *Management) filterWord(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	word := strings.ToLower(req.ArgText())
	if word == "" {
		if len(req.Group.Filters.Words) == 0 {
			return reply(req, "Nenhuma palavra filtrada neste grupo.")
		}
		return reply(req, "🚫 Palavras filtradas:\n- "+strings.Join(req.Group.Filters.Words, "\n- "))
	}
	return m.update(ctx, req, func(g *group.Group) string {
		var added bool
		g.Filters.Words, added = utils.ToggleString(g.Filters.Words, word)
		if added {
			return fmt.Sprintf("✅ Palavra '%s' adicionada ao filtro.", word)
		}
		return fmt.Sprintf("✅ Palavra '%s' removida do filtro.", word)
	})
}

func (m *Management) filterLinks(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	return m.update(ctx, req, func(g *group.Group) string {
		g.Filters.Links = !g.Filters.Links
		return "🔗 Filtro de links " + onOff(g.Filters.Links) + "."
	})
}

func (m *Management) filterNSFW(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	return m.update(ctx, req, func(g *group.Group) string {
		g.Filters.NSFW = !g.Filters.NSFW
		return "🔞 Filtro NSFW " + onOff(g.Filters.NSFW) + "."
	})
}

func (m *Management) filterPerson(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	user := utils.UserPart(targetUser(ctx, req))
	if user == "" {
		return reply(req, fmt.Sprintf("Por favor, forneça um número. Exemplo: %sg-filtro-pessoa 5511999999999", m.prefix(req)))
	}
	return m.update(ctx, req, func(g *group.Group) string {
		var added bool
		g.Filters.People, added = utils.ToggleString(g.Filters.People, user)
		if added {
			return fmt.Sprintf("✅ Mensagens de %s serão apagadas.", user)
		}
		return fmt.Sprintf("✅ %s removido do filtro de pessoas.", user)
	})
}

func (m *Management) ignore(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	user := utils.UserPart(targetUser(ctx, req))
	if len(user) < 8 {
		return reply(req, fmt.Sprintf("Por favor, forneça um número com pelo menos 8 dígitos. Exemplo: %sg-ignorar 5511999999999", m.prefix(req)))
	}
	return m.update(ctx, req, func(g *group.Group) string {
		var added bool
		g.IgnoredNumbers, added = utils.ToggleString(g.IgnoredNumbers, user)
		if added {
			return fmt.Sprintf("🔇 O número %s será ignorado.", user)
		}
		return fmt.Sprintf("🔊 O número %s não será mais ignorado.", user)
	})
}

func (m *Management) mute(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	s := req.ArgText()
	if s == "" {
		return reply(req, fmt.Sprintf("Por favor, forneça o texto. Exemplo: %sg-mute !sticker", m.prefix(req)))
	}
	return m.update(ctx, req, func(g *group.Group) string {
		var added bool
		g.MutedStrings, added = utils.ToggleString(g.MutedStrings, s)
		if added {
			return fmt.Sprintf("🔇 Mensagens começando com '%s' serão ignoradas.", s)
		}
		return fmt.Sprintf("🔊 Mensagens começando com '%s' não serão mais ignoradas.", s)
	})
}

func (m *Management) setGreeting(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	txt := m.longText(ctx, req)
	return m.update(ctx, req, func(g *group.Group) string {
		g.Greetings.Text = txt
		if txt == "" {
			return "✅ Mensagem de boas-vindas removida."
		}
		return "✅ Mensagem de boas-vindas definida:\n" + txt
	})
}

func (m *Management) setFarewell(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	txt := m.longText(ctx, req)
	return m.update(ctx, req, func(g *group.Group) string {
		g.Farewells.Text = txt
		if txt == "" {
			return "✅ Mensagem de despedida removida."
		}
		return "✅ Mensagem de despedida definida:\n" + txt
	})
}

// longText keeps the line breaks of the original message, falling back to
// the quoted body.
func (m *Management) longText(ctx context.Context, req *command.Request) string {
	body := req.Message.Text()
	if i := strings.Index(strings.ToLower(body), strings.ToLower(req.Command)); i >= 0 {
		body = body[i+len(req.Command):]
	} else {
		body = req.ArgText()
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = quotedText(ctx, req)
	}
	return body
}

func (m *Management) autoSTT(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	return m.update(ctx, req, func(g *group.Group) string {
		g.AutoSTT = !g.AutoSTT
		return "👂 Transcrição automática de áudios " + onOff(g.AutoSTT) + "."
	})
}

// splitTrigger separates "gatilho | resposta". Without a pipe the response is
// the quoted message.
func splitTrigger(ctx context.Context, req *command.Request, raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "|"); i >= 0 {
		return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+1:])
	}
	return raw, quotedText(ctx, req)
}

func (m *Management) addCmd(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	trigger, response := splitTrigger(ctx, req, m.longText(ctx, req))
	if trigger == "" || response == "" {
		return reply(req, fmt.Sprintf("Uso: %sg-addCmd gatilho | resposta (ou responda a uma mensagem com %sg-addCmd gatilho)", m.prefix(req), m.prefix(req)))
	}
	trigger = strings.ToLower(trigger)
	return m.update(ctx, req, func(g *group.Group) string {
		if _, cc := g.FindCustomCommand(trigger); cc != nil {
			cc.Responses = append(cc.Responses, response)
			return fmt.Sprintf("✅ Resposta adicionada ao comando '%s' (%d respostas).", trigger, len(cc.Responses))
		}
		g.CustomCommands = append(g.CustomCommands, group.CustomCommand{
			Trigger:   trigger,
			Responses: []string{response},
			CreatedBy: req.Author(),
			CreatedAt: time.Now().UTC(),
		})
		return fmt.Sprintf("✅ Comando '%s' criado.", trigger)
	})
}

func (m *Management) delCmd(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	trigger := strings.ToLower(req.ArgText())
	idx, _ := req.Group.FindCustomCommand(trigger)
	if trigger == "" || idx < 0 {
		return reply(req, fmt.Sprintf("Comando '%s' não encontrado.", trigger))
	}
	return m.update(ctx, req, func(g *group.Group) string {
		g.CustomCommands = append(g.CustomCommands[:idx], g.CustomCommands[idx+1:]...)
		return fmt.Sprintf("🗑️ Comando '%s' removido.", trigger)
	})
}

func (m *Management) autoCmd(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	trigger := strings.ToLower(req.ArgText())
	_, cc := req.Group.FindCustomCommand(trigger)
	if trigger == "" || cc == nil {
		return reply(req, fmt.Sprintf("Comando '%s' não encontrado.", trigger))
	}
	return m.update(ctx, req, func(g *group.Group) string {
		cc.IgnorePrefix = !cc.IgnorePrefix
		if cc.IgnorePrefix {
			return fmt.Sprintf("✅ O comando '%s' agora responde sem prefixo.", trigger)
		}
		return fmt.Sprintf("✅ O comando '%s' agora precisa do prefixo.", trigger)
	})
}

func (m *Management) addAdmin(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	user := targetUser(ctx, req)
	if user == "" {
		return reply(req, fmt.Sprintf("Por favor, forneça um número. Exemplo: %sg-addAdmin 5511999999999", m.prefix(req)))
	}
	part := utils.UserPart(user)
	if req.Group.IsAdditionalAdmin(part) {
		return reply(req, fmt.Sprintf("%s já é administrador do bot neste grupo.", part))
	}
	return m.update(ctx, req, func(g *group.Group) string {
		g.AdditionalAdmins = append(g.AdditionalAdmins, utils.UserJID(part))
		return fmt.Sprintf("✅ %s agora pode usar os comandos de grupo.", part)
	})
}

func (m *Management) delAdmin(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	part := utils.UserPart(targetUser(ctx, req))
	if part == "" || !req.Group.IsAdditionalAdmin(part) {
		return reply(req, "Este número não é administrador adicional do grupo.")
	}
	return m.update(ctx, req, func(g *group.Group) string {
		kept := g.AdditionalAdmins[:0]
		for _, a := range g.AdditionalAdmins {
			if utils.UserPart(a) != part {
				kept = append(kept, a)
			}
		}
		g.AdditionalAdmins = kept
		return fmt.Sprintf("✅ %s não pode mais usar os comandos de grupo.", part)
	})
}

func (m *Management) info(_ context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	g := req.Group
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Grupo %s*\n\n", g.Name)
	fmt.Fprintf(&sb, "🆔 %s\n", g.ID)
	fmt.Fprintf(&sb, "⌨️ Prefixo: %q\n", m.prefix(req))
	fmt.Fprintf(&sb, "⏸️ Pausado: %s\n", yesNo(g.Paused))
	fmt.Fprintf(&sb, "👂 Auto STT: %s\n", onOff(g.AutoSTT))
	fmt.Fprintf(&sb, "🔗 Filtro de links: %s\n", onOff(g.Filters.Links))
	fmt.Fprintf(&sb, "🔞 Filtro NSFW: %s\n", onOff(g.Filters.NSFW))
	fmt.Fprintf(&sb, "🚫 Palavras filtradas: %d\n", len(g.Filters.Words))
	fmt.Fprintf(&sb, "👤 Pessoas filtradas: %d\n", len(g.Filters.People))
	fmt.Fprintf(&sb, "🔇 Números ignorados: %d\n", len(g.IgnoredNumbers))
	fmt.Fprintf(&sb, "🤐 Textos silenciados: %d\n", len(g.MutedStrings))
	fmt.Fprintf(&sb, "👋 Boas-vindas: %s\n", yesNo(g.Greetings.Text != ""))
	fmt.Fprintf(&sb, "🚪 Despedida: %s\n", yesNo(g.Farewells.Text != ""))
	fmt.Fprintf(&sb, "🛡️ Admins adicionais: %d\n", len(g.AdditionalAdmins))
	fmt.Fprintf(&sb, "📝 Comandos personalizados: %d", len(g.CustomCommands))
	return reply(req, sb.String())
}

func yesNo(v bool) string {
	if v {
		return "sim"
	}
	return "não"
}
