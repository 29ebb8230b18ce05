package commands

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/usecase/bottest"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func superAdminFixture(t *testing.T) (*SuperAdmin, *bottest.Bot, *fakeRegistry, *fakeRequests) {
	t.Helper()
	store := newStore(t)
	b := bottest.New("ravena")
	registry := &fakeRegistry{bots: map[string]domainBot.IBot{"ravena": b}}
	requests := &fakeRequests{}
	return NewSuperAdmin(store, store, requests, registry), b, registry, requests
}

func sampleGroup(id, name string, admins []string, members ...string) domainBot.GroupInfo {
	info := domainBot.GroupInfo{ID: id, Name: name}
	for _, a := range admins {
		info.Participants = append(info.Participants, domainBot.Participant{JID: a + "@s.whatsapp.net", IsAdmin: true})
	}
	for _, m := range members {
		info.Participants = append(info.Participants, domainBot.Participant{JID: m + "@s.whatsapp.net"})
	}
	return info
}

func TestSuperAdmin_CommandsAreRestricted(t *testing.T) {
	s, _, _, _ := superAdminFixture(t)
	for _, c := range s.Commands() {
		assert.True(t, c.SuperAdminOnly, c.Name)
		assert.True(t, c.Hidden, c.Name)
	}
}

func TestSuperAdmin_JoinGroupSavesPendingJoin(t *testing.T) {
	s, b, _, requests := superAdminFixture(t)
	b.Invites["AbCd1234"] = domainBot.GroupInfo{ID: groupID, Name: "Teste"}

	msg := bottest.PrivateMessage("1", "5511900000000", "!sa-joinGrupo https://chat.whatsapp.com/AbCd1234 5511944443333 Maria Silva")
	out := run(t, s.Commands(), "sa-joinGrupo", b, msg, nil)

	assert.Contains(t, out[0].Content.Text, "✅ Entrou com sucesso")
	assert.Equal(t, []string{"AbCd1234"}, b.Joined)
	assert.Equal(t, []string{"AbCd1234"}, requests.cleared)

	joins, err := s.invites.GetPendingJoins(context.Background())
	require.NoError(t, err)
	require.Len(t, joins, 1)
	assert.Equal(t, "5511944443333@s.whatsapp.net", joins[0].AuthorID)
	assert.Equal(t, "Maria Silva", joins[0].AuthorName)
}

func TestSuperAdmin_JoinGroupUsage(t *testing.T) {
	s, b, _, _ := superAdminFixture(t)
	out := run(t, s.Commands(), "sa-joinGrupo", b, bottest.PrivateMessage("1", "5511900000000", "!sa-joinGrupo"), nil)
	assert.Contains(t, out[0].Content.Text, "Exemplo: !sa-joinGrupo abcd1234")
}

func TestSuperAdmin_BlockAndUnblock(t *testing.T) {
	s, b, _, _ := superAdminFixture(t)
	cmds := s.Commands()

	run(t, cmds, "sa-block", b, bottest.PrivateMessage("1", "5511900000000", "!sa-block +55 11 93333-2222"), nil)
	assert.True(t, b.IsBlocked("5511933332222@s.whatsapp.net"))

	run(t, cmds, "sa-unblock", b, bottest.PrivateMessage("2", "5511900000000", "!sa-unblock 5511933332222"), nil)
	assert.False(t, b.IsBlocked("5511933332222@s.whatsapp.net"))
}

func TestSuperAdmin_BlockListReportsCount(t *testing.T) {
	s, b, _, _ := superAdminFixture(t)
	out := run(t, s.Commands(), "sa-blockList", b, bottest.PrivateMessage("1", "5511900000000", "!sa-blockList 5511911111111, 5511922222222"), nil)

	assert.Equal(t, "✅ 2 contatos bloqueados.", out[0].Content.Text)
	assert.True(t, b.IsBlocked("5511911111111"))
	assert.True(t, b.IsBlocked("5511922222222"))
}

func TestSuperAdmin_LeaveGroupListsBlockCommands(t *testing.T) {
	s, b, _, _ := superAdminFixture(t)
	b.Groups[groupID] = sampleGroup(groupID, "Teste", []string{"5511911111111", b.Phone}, "5511922222222")

	msg := bottest.GroupMessage("1", groupID, "5511900000000", "!sa-leaveGrupo")
	out := run(t, s.Commands(), "sa-leaveGrupo", b, msg, nil)

	assert.Equal(t, []string{groupID}, b.Left)
	require.Len(t, out, 1)
	assert.Equal(t, "5511900000000@s.whatsapp.net", out[0].ChatID)
	assert.Contains(t, out[0].Content.Text, "!sa-blockList 5511911111111")
	assert.Contains(t, out[0].Content.Text, "!sa-blockList 5511922222222")
	assert.NotContains(t, out[0].Content.Text, b.Phone)
	assert.Contains(t, b.LastText(), "Tchau")
}

func TestSuperAdmin_LeaveGroupNeedsTarget(t *testing.T) {
	s, b, _, _ := superAdminFixture(t)
	out := run(t, s.Commands(), "sa-leaveGrupo", b, bottest.PrivateMessage("1", "5511900000000", "!sa-leaveGrupo"), nil)
	assert.Contains(t, out[0].Content.Text, "forneça o ID do grupo")
	assert.Empty(t, b.Left)
}

func TestSuperAdmin_RestartUsesRegistry(t *testing.T) {
	s, b, registry, _ := superAdminFixture(t)
	cmds := s.Commands()

	out := run(t, cmds, "sa-restart", b, bottest.PrivateMessage("1", "5511900000000", "!sa-restart ravena Manutenção programada"), nil)
	assert.Contains(t, out[0].Content.Text, "Iniciando reinicialização do bot 'ravena'")
	assert.Equal(t, []string{"ravena"}, registry.restarted)
	assert.Equal(t, []string{"Manutenção programada"}, registry.reasons)

	out = run(t, cmds, "sa-restart", b, bottest.PrivateMessage("2", "5511900000000", "!sa-restart outro"), nil)
	assert.Contains(t, out[0].Content.Text, "não encontrado")
}

func TestSuperAdmin_GroupsOfAndBlockEverything(t *testing.T) {
	s, b, _, _ := superAdminFixture(t)
	b.Groups["a@g.us"] = sampleGroup("a@g.us", "Alfa", []string{"5511900000000"}, "5511977777777", "5511966666666")
	b.Groups["b@g.us"] = sampleGroup("b@g.us", "Beta", nil, "5511955555555")
	cmds := s.Commands()

	out := run(t, cmds, "sa-listaGruposPessoa", b, bottest.PrivateMessage("1", "5511900000000", "!sa-listaGruposPessoa 5511977777777"), nil)
	assert.Contains(t, out[0].Content.Text, "Alfa")
	assert.NotContains(t, out[0].Content.Text, "Beta")

	out = run(t, cmds, "sa-blockTudoPessoa", b, bottest.PrivateMessage("2", "5511900000000", "!sa-blockTudoPessoa 5511977777777"), nil)
	assert.Equal(t, []string{"a@g.us"}, b.Left)
	assert.True(t, b.IsBlocked("5511977777777"))
	assert.True(t, b.IsBlocked("5511966666666"))
	assert.False(t, b.IsBlocked("5511900000000"))
	assert.False(t, b.IsBlocked("5511955555555"))
	assert.Contains(t, out[0].Content.Text, "bloqueou 2 contatos")
}

func TestSuperAdmin_GuardRepliesOnError(t *testing.T) {
	s, b, _, _ := superAdminFixture(t)
	msg := bottest.GroupMessage("1", groupID, "5511900000000", "!sa-getMembros")
	out := run(t, s.Commands(), "sa-getMembros", b, msg, nil)
	assert.Equal(t, []string{msgSuperAdminError}, texts(out))
}

func TestSuperAdmin_SetPhotoCropsAndResizes(t *testing.T) {
	s, b, _, _ := superAdminFixture(t)

	src := image.NewRGBA(image.Rect(0, 0, 1000, 700))
	for x := 0; x < 1000; x++ {
		src.Set(x, 350, color.RGBA{R: 255, A: 255})
	}
	var png bytes.Buffer
	require.NoError(t, imaging.Encode(&png, src, imaging.PNG))

	msg := bottest.PrivateMessage("1", "5511900000000", "")
	msg.Type = message.TypeImage
	msg.Caption = "!sa-foto"
	b.Media["1"] = &message.Media{Data: png.Bytes(), MimeType: "image/png"}

	out := run(t, s.Commands(), "sa-foto", b, msg, nil)
	assert.Equal(t, "✅ Foto de perfil atualizada.", out[0].Content.Text)

	img, err := imaging.Decode(bytes.NewReader(b.Picture))
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 640, img.Bounds().Dy())
}

func TestProfilePicture_SmallImageKeepsSide(t *testing.T) {
	var png bytes.Buffer
	require.NoError(t, imaging.Encode(&png, image.NewRGBA(image.Rect(0, 0, 300, 200)), imaging.PNG))

	out, err := profilePicture(png.Bytes())
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 200), img.Bounds())
}
