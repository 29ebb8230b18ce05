package commands

import (
	"context"
	"testing"

	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/usecase/bottest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func managementFixture(t *testing.T) (*Management, *group.Group, *bottest.Bot) {
	t.Helper()
	store := newStore(t)
	g := group.New(groupID, "teste")
	require.NoError(t, store.SaveGroup(context.Background(), g))
	return NewManagement(store), g, bottest.New("ravena")
}

func TestManagement_CommandsAreAdminAndGroupOnly(t *testing.T) {
	m, _, _ := managementFixture(t)
	for _, c := range m.Commands() {
		assert.True(t, c.AdminOnly, c.Name)
		assert.True(t, c.GroupOnly, c.Name)
	}
}

func TestManagement_PauseTogglesAndPersists(t *testing.T) {
	m, g, b := managementFixture(t)

	run(t, m.Commands(), "g-pausar", b, bottest.GroupMessage("1", groupID, "5511999990000", "!g-pausar"), g)
	assert.True(t, g.Paused)

	saved, err := m.groups.GetGroup(context.Background(), groupID)
	require.NoError(t, err)
	assert.True(t, saved.Paused)

	run(t, m.Commands(), "g-pausar", b, bottest.GroupMessage("2", groupID, "5511999990000", "!g-pausar"), g)
	assert.False(t, g.Paused)
}

func TestManagement_SetPrefix(t *testing.T) {
	m, g, b := managementFixture(t)
	cmds := m.Commands()

	run(t, cmds, "g-setPrefixo", b, bottest.GroupMessage("1", groupID, "1", "!g-setPrefixo #"), g)
	require.NotNil(t, g.Prefix)
	assert.Equal(t, "#", g.EffectivePrefix("!"))

	run(t, cmds, "g-setPrefixo", b, bottest.GroupMessage("2", groupID, "1", "#g-setPrefixo"), g)
	require.NotNil(t, g.Prefix)
	assert.Equal(t, "", g.EffectivePrefix("!"))

	run(t, cmds, "g-setPrefixo", b, bottest.GroupMessage("3", groupID, "1", "g-setPrefixo padrao"), g)
	assert.Nil(t, g.Prefix)
	assert.Equal(t, "!", g.EffectivePrefix("!"))
}

func TestManagement_FilterWordTogglesAndLists(t *testing.T) {
	m, g, b := managementFixture(t)
	cmds := m.Commands()

	out := run(t, cmds, "g-filtro-palavra", b, bottest.GroupMessage("1", groupID, "1", "!g-filtro-palavra"), g)
	assert.Equal(t, []string{"Nenhuma palavra filtrada neste grupo."}, texts(out))

	run(t, cmds, "g-filtro-palavra", b, bottest.GroupMessage("2", groupID, "1", "!g-filtro-palavra Feio"), g)
	assert.Equal(t, []string{"feio"}, g.Filters.Words)

	out = run(t, cmds, "g-filtro-palavra", b, bottest.GroupMessage("3", groupID, "1", "!g-filtro-palavra"), g)
	assert.Contains(t, out[0].Content.Text, "- feio")

	run(t, cmds, "g-filtro-palavra", b, bottest.GroupMessage("4", groupID, "1", "!g-filtro-palavra feio"), g)
	assert.Empty(t, g.Filters.Words)
}

func TestManagement_BooleanToggles(t *testing.T) {
	m, g, b := managementFixture(t)
	cmds := m.Commands()

	run(t, cmds, "g-filtro-links", b, bottest.GroupMessage("1", groupID, "1", "!g-filtro-links"), g)
	run(t, cmds, "g-filtro-nsfw", b, bottest.GroupMessage("2", groupID, "1", "!g-filtro-nsfw"), g)
	out := run(t, cmds, "g-autoStt", b, bottest.GroupMessage("3", groupID, "1", "!g-autoStt"), g)

	assert.True(t, g.Filters.Links)
	assert.True(t, g.Filters.NSFW)
	assert.True(t, g.AutoSTT)
	assert.Contains(t, out[0].Content.Text, "ativado")
}

func TestManagement_IgnoreRequiresEightDigits(t *testing.T) {
	m, g, b := managementFixture(t)
	cmds := m.Commands()

	out := run(t, cmds, "g-ignorar", b, bottest.GroupMessage("1", groupID, "1", "!g-ignorar 1234"), g)
	assert.Contains(t, out[0].Content.Text, "pelo menos 8")
	assert.Empty(t, g.IgnoredNumbers)

	run(t, cmds, "g-ignorar", b, bottest.GroupMessage("2", groupID, "1", "!g-ignorar +55 11 98888-7777"), g)
	assert.Equal(t, []string{"5511988887777"}, g.IgnoredNumbers)
}

func TestManagement_MuteAndFilterPerson(t *testing.T) {
	m, g, b := managementFixture(t)
	cmds := m.Commands()

	run(t, cmds, "g-mute", b, bottest.GroupMessage("1", groupID, "1", "!g-mute !sticker"), g)
	assert.Equal(t, []string{"!sticker"}, g.MutedStrings)

	run(t, cmds, "g-filtro-pessoa", b, bottest.GroupMessage("2", groupID, "1", "!g-filtro-pessoa 5511977776666"), g)
	assert.Equal(t, []string{"5511977776666"}, g.Filters.People)
}

func TestManagement_GreetingKeepsLineBreaksAndClears(t *testing.T) {
	m, g, b := managementFixture(t)
	cmds := m.Commands()

	run(t, cmds, "g-setBoasvindas", b, bottest.GroupMessage("1", groupID, "1", "!g-setBoasvindas Olá {pessoa}!\nLeia as regras."), g)
	assert.Equal(t, "Olá {pessoa}!\nLeia as regras.", g.Greetings.Text)

	run(t, cmds, "g-setBoasvindas", b, bottest.GroupMessage("2", groupID, "1", "!g-setBoasvindas"), g)
	assert.Empty(t, g.Greetings.Text)

	run(t, cmds, "g-setDespedida", b, bottest.GroupMessage("3", groupID, "1", "!g-setDespedida Tchau {pessoa}"), g)
	assert.Equal(t, "Tchau {pessoa}", g.Farewells.Text)
}

func TestManagement_CustomCommands(t *testing.T) {
	m, g, b := managementFixture(t)
	cmds := m.Commands()

	run(t, cmds, "g-addCmd", b, bottest.GroupMessage("1", groupID, "1", "!g-addCmd Oi | olá {pessoa}"), g)
	require.Len(t, g.CustomCommands, 1)
	assert.Equal(t, "oi", g.CustomCommands[0].Trigger)
	assert.Equal(t, []string{"olá {pessoa}"}, g.CustomCommands[0].Responses)

	quoted := bottest.GroupMessage("Q", groupID, "5511911112222", "segunda resposta")
	b.Messages["Q"] = quoted
	msg := bottest.GroupMessage("2", groupID, "1", "!g-addCmd oi")
	msg.QuotedID = "Q"
	out := run(t, cmds, "g-addCmd", b, msg, g)
	assert.Contains(t, out[0].Content.Text, "2 respostas")
	assert.Equal(t, []string{"olá {pessoa}", "segunda resposta"}, g.CustomCommands[0].Responses)

	run(t, cmds, "g-autoCmd", b, bottest.GroupMessage("3", groupID, "1", "!g-autoCmd oi"), g)
	assert.True(t, g.CustomCommands[0].IgnorePrefix)

	run(t, cmds, "g-delCmd", b, bottest.GroupMessage("4", groupID, "1", "!g-delCmd OI"), g)
	assert.Empty(t, g.CustomCommands)

	out = run(t, cmds, "g-delCmd", b, bottest.GroupMessage("5", groupID, "1", "!g-delCmd oi"), g)
	assert.Contains(t, out[0].Content.Text, "não encontrado")
}

func TestManagement_AddCmdWithoutResponseShowsUsage(t *testing.T) {
	m, g, b := managementFixture(t)
	out := run(t, m.Commands(), "g-addCmd", b, bottest.GroupMessage("1", groupID, "1", "!g-addCmd oi"), g)
	assert.Contains(t, out[0].Content.Text, "Uso:")
	assert.Empty(t, g.CustomCommands)
}

func TestManagement_Admins(t *testing.T) {
	m, g, b := managementFixture(t)
	cmds := m.Commands()

	run(t, cmds, "g-addAdmin", b, bottest.GroupMessage("1", groupID, "1", "!g-addAdmin 5511955554444"), g)
	assert.True(t, g.IsAdditionalAdmin("5511955554444"))

	out := run(t, cmds, "g-addAdmin", b, bottest.GroupMessage("2", groupID, "1", "!g-addAdmin 5511955554444"), g)
	assert.Contains(t, out[0].Content.Text, "já é administrador")
	assert.Len(t, g.AdditionalAdmins, 1)

	mention := bottest.GroupMessage("3", groupID, "1", "!g-delAdmin @alguem")
	mention.Mentions = []string{"5511955554444@s.whatsapp.net"}
	run(t, cmds, "g-delAdmin", b, mention, g)
	assert.False(t, g.IsAdditionalAdmin("5511955554444"))
}

func TestManagement_SetNameAndInfo(t *testing.T) {
	m, g, b := managementFixture(t)
	cmds := m.Commands()

	run(t, cmds, "g-setNome", b, bottest.GroupMessage("1", groupID, "1", "!g-setNome Meu Grupo"), g)
	assert.Equal(t, "meugrupo", g.Name)

	out := run(t, cmds, "g-info", b, bottest.GroupMessage("2", groupID, "1", "!g-info"), g)
	assert.Contains(t, out[0].Content.Text, "*Grupo meugrupo*")
	assert.Contains(t, out[0].Content.Text, groupID)
}
