package commands

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sort"
	"strings"
	"time"

	"github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/command"
	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/domains/invite"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"
)

const (
	msgSuperAdminError = "❌ Erro ao processar comando."
	profilePictureSide = 640
)

// InviteRequests lets sa-joinGrupo drop the request that produced the invite.
type InviteRequests interface {
	Clear(code string)
}

// SuperAdmin implements the sa- commands.
type SuperAdmin struct {
	groups   group.IGroupRepository
	invites  invite.IInviteRepository
	requests InviteRequests
	registry bot.IBotRegistry
}

func NewSuperAdmin(groups group.IGroupRepository, invites invite.IInviteRepository, requests InviteRequests, registry bot.IBotRegistry) *SuperAdmin {
	return &SuperAdmin{groups: groups, invites: invites, requests: requests, registry: registry}
}

func (s *SuperAdmin) Commands() []*command.Command {
	sa := func(name, usage, desc string, fn command.HandlerFunc) *command.Command {
		return &command.Command{
			Name:           name,
			Usage:          usage,
			Description:    desc,
			Category:       command.CategorySuperAdmin,
			SuperAdminOnly: true,
			Hidden:         true,
			Method:         s.guard(name, fn),
		}
	}
	return []*command.Command{
		sa("sa-joinGrupo", "<código> [autorId] [autorNome]", "Entra em um grupo pelo convite", s.joinGroup),
		sa("sa-block", "<número>", "Bloqueia um contato", s.block),
		sa("sa-unblock", "<número>", "Desbloqueia um contato", s.unblock),
		sa("sa-leaveGrupo", "[id|nome]", "Sai de um grupo", s.leaveGroup),
		sa("sa-foto", "", "Define a foto do bot (na legenda de uma imagem)", s.setPhoto),
		sa("sa-restart", "<botId> [motivo]", "Reinicia um bot", s.restart),
		sa("sa-getMembros", "", "Lista os membros do grupo", s.members),
		sa("sa-blockList", "<n1, n2, ...>", "Bloqueia vários contatos", s.blockList),
		sa("sa-unblockList", "<n1, n2, ...>", "Desbloqueia vários contatos", s.unblockList),
		sa("sa-listaGruposPessoa", "<número>", "Lista os grupos em comum com a pessoa", s.groupsOf),
		sa("sa-blockTudoPessoa", "<número>", "Sai dos grupos em comum e bloqueia todos os membros", s.blockEverything),
	}
}

// guard turns handler errors into the fixed error reply.
func (s *SuperAdmin) guard(name string, fn command.HandlerFunc) command.HandlerFunc {
	return func(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
		out, err := fn(ctx, req)
		if err != nil {
			logrus.WithError(err).WithField("bot_id", req.Bot.ID()).Errorf("[SUPERADMIN] %s failed", name)
			return reply(req, msgSuperAdminError)
		}
		return out, nil
	}
}

func (s *SuperAdmin) joinGroup(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	if len(req.Args) == 0 {
		return reply(req, fmt.Sprintf("Por favor, forneça um código de convite. Exemplo: %ssa-joinGrupo abcd1234", req.Bot.Prefix()))
	}
	code := req.Args[0]
	if i := strings.LastIndex(code, "/"); i >= 0 {
		code = code[i+1:]
	}

	groupID, err := req.Bot.JoinGroupWithInvite(ctx, code)
	if err != nil {
		return reply(req, fmt.Sprintf("❌ Falha ao entrar no grupo: %s", err.Error()))
	}

	if len(req.Args) > 1 {
		join := invite.PendingJoin{
			Code:       code,
			AuthorID:   utils.UserJID(req.Args[1]),
			AuthorName: strings.Join(req.Args[2:], " "),
			Timestamp:  time.Now().UTC(),
		}
		if err := s.invites.SavePendingJoin(ctx, join); err != nil {
			logrus.WithError(err).Warnf("[SUPERADMIN] Could not save pending join %s", code)
		}
	}
	if s.requests != nil {
		s.requests.Clear(code)
	}
	return reply(req, fmt.Sprintf("✅ Entrou com sucesso no grupo com código de convite %s (%s)", code, groupID))
}

func (s *SuperAdmin) block(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	user := utils.UserJID(req.ArgText())
	if user == "" {
		return reply(req, fmt.Sprintf("Por favor, forneça o número a bloquear. Exemplo: %ssa-block +5511999999999", req.Bot.Prefix()))
	}
	if err := req.Bot.BlockContact(ctx, user); err != nil {
		return nil, err
	}
	return reply(req, fmt.Sprintf("✅ Contato %s bloqueado.", utils.UserPart(user)))
}

func (s *SuperAdmin) unblock(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	user := utils.UserJID(req.ArgText())
	if user == "" {
		return reply(req, fmt.Sprintf("Por favor, forneça o número a desbloquear. Exemplo: %ssa-unblock +5511999999999", req.Bot.Prefix()))
	}
	if err := req.Bot.UnblockContact(ctx, user); err != nil {
		return nil, err
	}
	return reply(req, fmt.Sprintf("✅ Contato %s desbloqueado.", utils.UserPart(user)))
}

// resolveGroupID accepts a group id, a configured group name or nothing
// (the current group).
func (s *SuperAdmin) resolveGroupID(ctx context.Context, req *command.Request) (string, error) {
	arg := req.ArgText()
	switch {
	case arg == "" && req.Message.IsGroup():
		return req.Message.ChatID, nil
	case arg == "":
		return "", nil
	case strings.Contains(arg, "@"):
		return arg, nil
	}
	groups, err := s.groups.GetGroups(ctx)
	if err != nil {
		return "", err
	}
	for _, g := range groups {
		if strings.EqualFold(g.Name, arg) {
			return g.ID, nil
		}
	}
	return "", nil
}

func (s *SuperAdmin) leaveGroup(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	groupID, err := s.resolveGroupID(ctx, req)
	if err != nil {
		return nil, err
	}
	if groupID == "" {
		return reply(req, fmt.Sprintf("Por favor, forneça o ID do grupo ou execute o comando dentro de um grupo. Exemplo: %ssa-leaveGrupo 1234567890@g.us", req.Bot.Prefix()))
	}

	info, err := req.Bot.GetGroupInfo(ctx, groupID)
	if err != nil {
		return nil, err
	}
	admins := s.numbers(req.Bot, info.Admins())
	members := s.numbers(req.Bot, info.Members())

	if _, err := req.Bot.SendMessage(ctx, groupID, message.TextContent("👋 Tchau, pessoal! Saindo do grupo a pedido do administrador."), message.SendOptions{}); err != nil {
		logrus.WithError(err).Warnf("[SUPERADMIN] Could not say goodbye to %s", groupID)
	}
	if err := req.Bot.LeaveGroup(ctx, groupID); err != nil {
		return nil, err
	}

	p := req.Bot.Prefix()
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Saiu do grupo %s (%s).", info.Name, groupID)
	if len(admins) > 0 {
		fmt.Fprintf(&sb, "\n\n*Admins:*\n%ssa-blockList %s", p, strings.Join(admins, ", "))
	}
	if len(members) > 0 {
		fmt.Fprintf(&sb, "\n\n*Membros:*\n%ssa-blockList %s", p, strings.Join(members, ", "))
	}

	out := []message.ReturnMessage{req.Reply(sb.String())}
	if req.Message.ChatID == groupID {
		// The origin chat is gone, answer in private.
		out[0] = message.Text(req.Author(), sb.String())
	}
	return out, nil
}

// numbers returns the user parts of participants, without the bot.
func (s *SuperAdmin) numbers(b bot.IBot, participants []bot.Participant) []string {
	out := make([]string, 0, len(participants))
	for _, p := range participants {
		if utils.SameUser(p.JID, b.OwnJID()) {
			continue
		}
		out = append(out, utils.UserPart(p.JID))
	}
	return out
}

func (s *SuperAdmin) setPhoto(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	if req.Message.Type != message.TypeImage {
		return reply(req, "Envie uma imagem com o comando na legenda.")
	}
	media, err := req.Bot.DownloadMedia(ctx, req.Message)
	if err != nil {
		return nil, err
	}
	jpeg, err := profilePicture(media.Data)
	if err != nil {
		return nil, err
	}
	if err := req.Bot.SetProfilePicture(ctx, jpeg); err != nil {
		return nil, err
	}
	return reply(req, "✅ Foto de perfil atualizada.")
}

// profilePicture crops the image to a centered square no larger than 640px
// and encodes it as JPEG.
func profilePicture(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	side := min(img.Bounds().Dx(), img.Bounds().Dy())
	var out image.Image = imaging.CropCenter(img, side, side)
	if side > profilePictureSide {
		out = imaging.Resize(out, profilePictureSide, profilePictureSide, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *SuperAdmin) restart(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	if len(req.Args) == 0 {
		return reply(req, fmt.Sprintf("Por favor, forneça o ID do bot a reiniciar. Exemplo: %ssa-restart ravena-testes Manutenção programada", req.Bot.Prefix()))
	}
	botID := req.Args[0]
	reason := strings.Join(req.Args[1:], " ")
	if reason == "" {
		reason = "Reinicialização solicitada por admin"
	}
	if _, ok := s.registry.Get(botID); !ok {
		return reply(req, fmt.Sprintf("❌ Bot '%s' não encontrado.", botID))
	}
	if err := s.registry.RestartBot(ctx, botID, reason); err != nil {
		return nil, err
	}
	return reply(req, fmt.Sprintf("✅ Iniciando reinicialização do bot '%s'...\nMotivo: %s\n\nEste processo pode levar alguns segundos. Você receberá notificações sobre o progresso no grupo de avisos.", botID, reason))
}

func (s *SuperAdmin) members(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	if !req.Message.IsGroup() {
		return reply(req, "Este comando só pode ser usado em grupos.")
	}
	info, err := req.Bot.GetGroupInfo(ctx, req.Message.ChatID)
	if err != nil {
		return nil, err
	}

	line := func(p bot.Participant) string {
		name := p.Name
		if name == "" {
			name = req.Bot.GetContactName(ctx, p.JID)
		}
		return fmt.Sprintf("• %s (%s)", name, utils.UserPart(p.JID))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*Membros do grupo %s*\n\n*Admins (%d):*\n", info.Name, len(info.Admins()))
	for _, p := range info.Admins() {
		sb.WriteString(line(p) + "\n")
	}
	fmt.Fprintf(&sb, "\n*Membros (%d):*\n", len(info.Members()))
	for _, p := range info.Members() {
		sb.WriteString(line(p) + "\n")
	}
	return reply(req, strings.TrimSpace(sb.String()))
}

// numberList splits "n1, n2 n3" into user JIDs.
func numberList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' || r == '\n' })
	var out []string
	for _, f := range fields {
		if jid := utils.UserJID(strings.TrimSpace(f)); jid != "" {
			out = append(out, jid)
		}
	}
	return out
}

func (s *SuperAdmin) blockList(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	return s.applyList(ctx, req, "sa-blockList", "bloqueados", req.Bot.BlockContact)
}

func (s *SuperAdmin) unblockList(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	return s.applyList(ctx, req, "sa-unblockList", "desbloqueados", req.Bot.UnblockContact)
}

func (s *SuperAdmin) applyList(ctx context.Context, req *command.Request, name, verb string, fn func(context.Context, string) error) ([]message.ReturnMessage, error) {
	users := numberList(req.ArgText())
	if len(users) == 0 {
		return reply(req, fmt.Sprintf("Por favor, forneça uma lista de números separados por vírgula. Exemplo: %s%s 5511999999999, 5511888888888", req.Bot.Prefix(), name))
	}
	var done, failed []string
	for _, u := range users {
		if err := fn(ctx, u); err != nil {
			logrus.WithError(err).Warnf("[SUPERADMIN] %s failed for %s", name, u)
			failed = append(failed, utils.UserPart(u))
			continue
		}
		done = append(done, utils.UserPart(u))
	}
	out := fmt.Sprintf("✅ %d contatos %s.", len(done), verb)
	if len(failed) > 0 {
		out += fmt.Sprintf("\n❌ Falhas: %s", strings.Join(failed, ", "))
	}
	return reply(req, out)
}

// commonGroups returns the joined groups where user is a participant.
func commonGroups(ctx context.Context, b bot.IBot, user string) ([]bot.GroupInfo, error) {
	groups, err := b.GetJoinedGroups(ctx)
	if err != nil {
		return nil, err
	}
	var out []bot.GroupInfo
	for _, g := range groups {
		for _, p := range g.Participants {
			if utils.SameUser(p.JID, user) {
				out = append(out, g)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *SuperAdmin) groupsOf(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	user := utils.UserJID(req.ArgText())
	if user == "" {
		return reply(req, fmt.Sprintf("Por favor, forneça o número do contato. Exemplo: %ssa-listaGruposPessoa 5511999999999", req.Bot.Prefix()))
	}
	groups, err := commonGroups(ctx, req.Bot, user)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return reply(req, fmt.Sprintf("Nenhum grupo em comum com %s.", utils.UserPart(user)))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Grupos em comum com %s (%d):*\n", utils.UserPart(user), len(groups))
	for _, g := range groups {
		fmt.Fprintf(&sb, "\n• %s (%s)", g.Name, g.ID)
	}
	return reply(req, sb.String())
}

func (s *SuperAdmin) blockEverything(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	user := utils.UserJID(req.ArgText())
	if user == "" {
		return reply(req, fmt.Sprintf("Por favor, forneça o número do contato. Exemplo: %ssa-blockTudoPessoa 5511999999999", req.Bot.Prefix()))
	}
	groups, err := commonGroups(ctx, req.Bot, user)
	if err != nil {
		return nil, err
	}

	toBlock := map[string]bool{utils.UserPart(user): true}
	var left []string
	for _, g := range groups {
		for _, p := range g.Participants {
			if utils.SameUser(p.JID, req.Author()) || utils.SameUser(p.JID, req.Bot.OwnJID()) {
				continue
			}
			toBlock[utils.UserPart(p.JID)] = true
		}
		if err := req.Bot.LeaveGroup(ctx, g.ID); err != nil {
			logrus.WithError(err).Warnf("[SUPERADMIN] Could not leave %s", g.ID)
			continue
		}
		left = append(left, g.Name)
	}

	blocked := 0
	for number := range toBlock {
		if err := req.Bot.BlockContact(ctx, utils.UserJID(number)); err != nil {
			logrus.WithError(err).Warnf("[SUPERADMIN] Could not block %s", number)
			continue
		}
		blocked++
	}

	out := fmt.Sprintf("✅ Saiu de %d grupos e bloqueou %d contatos.", len(left), blocked)
	if len(left) > 0 {
		out += "\n\nGrupos: " + strings.Join(left, ", ")
	}
	return reply(req, out)
}
