package gormstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/domains/invite"
	"github.com/AzielCF/az-ravena/domains/loadreport"
	pkgError "github.com/AzielCF/az-ravena/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := New(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

func TestStore_SaveGroupUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := group.New("1@g.us", "primeiro")
	g.AutoSTT = true
	require.NoError(t, s.SaveGroup(ctx, g))

	g.Name = "renomeado"
	g.CustomCommands = append(g.CustomCommands, group.CustomCommand{Trigger: "oi", Responses: []string{"olá"}})
	require.NoError(t, s.SaveGroup(ctx, g))

	all, err := s.GetGroups(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "renomeado", all[0].Name)
	assert.True(t, all[0].AutoSTT)
	require.Len(t, all[0].CustomCommands, 1)
	assert.Equal(t, "oi", all[0].CustomCommands[0].Trigger)
}

func TestStore_GetGroupNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetGroup(context.Background(), "missing@g.us")
	var nf pkgError.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestStore_PendingJoins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePendingJoin(ctx, invite.PendingJoin{Code: "AAA", AuthorID: "1", AuthorName: "Ana"}))
	require.NoError(t, s.SavePendingJoin(ctx, invite.PendingJoin{Code: "AAA", AuthorID: "2", AuthorName: "Bia"}))

	joins, err := s.GetPendingJoins(ctx)
	require.NoError(t, err)
	require.Len(t, joins, 1)
	assert.Equal(t, "Bia", joins[0].AuthorName)

	require.NoError(t, s.RemovePendingJoin(ctx, "AAA"))
	joins, err = s.GetPendingJoins(ctx)
	require.NoError(t, err)
	assert.Empty(t, joins)
}

func TestStore_Reports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveReport(ctx, loadreport.Report{BotID: "a", PeriodStart: now.Add(-3 * time.Hour), PeriodEnd: now.Add(-2 * time.Hour), ReceivedGroup: 1}))
	require.NoError(t, s.SaveReport(ctx, loadreport.Report{BotID: "b", PeriodStart: now.Add(-time.Hour), PeriodEnd: now, SentGroup: 4}))

	reports, err := s.GetReports(ctx, now.Add(-90*time.Minute), nil)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "b", reports[0].BotID)

	reports, err = s.GetReports(ctx, now.Add(-24*time.Hour), []string{"a"})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Total())
}
