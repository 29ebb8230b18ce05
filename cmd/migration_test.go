package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/domains/invite"
	"github.com/AzielCF/az-ravena/domains/loadreport"
	"github.com/AzielCF/az-ravena/infrastructure/storage/gormstore"
	"github.com/AzielCF/az-ravena/infrastructure/storage/jsonstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLStore(t *testing.T) *gormstore.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := gormstore.New(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

func TestMigrateStore_CopiesEveryRecord(t *testing.T) {
	ctx := context.Background()
	source, err := jsonstore.New(t.TempDir())
	require.NoError(t, err)

	g := group.New("120363000000000001@g.us", "livros")
	prefix := "#"
	g.Prefix = &prefix
	g.AutoSTT = true
	require.NoError(t, source.SaveGroup(ctx, g))
	require.NoError(t, source.SaveGroup(ctx, group.New("120363000000000002@g.us", "filmes")))
	require.NoError(t, source.SavePendingJoin(ctx, invite.PendingJoin{
		Code:       "AbCdEf",
		AuthorID:   "5511999999999@s.whatsapp.net",
		AuthorName: "Maria",
		Timestamp:  time.Now().UTC().Truncate(time.Second),
	}))
	start := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, source.SaveReport(ctx, loadreport.Report{
		BotID:         "ravena",
		PeriodStart:   start,
		PeriodEnd:     start.Add(10 * time.Minute),
		ReceivedGroup: 12,
		SentGroup:     4,
	}))

	target := newSQLStore(t)
	result, err := MigrateStore(ctx, source, target)
	require.NoError(t, err)
	assert.Equal(t, MigrationResult{Groups: 2, PendingJoins: 1, Reports: 1}, result)

	copied, err := target.GetGroup(ctx, "120363000000000001@g.us")
	require.NoError(t, err)
	assert.Equal(t, "livros", copied.Name)
	assert.Equal(t, "#", copied.EffectivePrefix("!"))
	assert.True(t, copied.AutoSTT)

	joins, err := target.GetPendingJoins(ctx)
	require.NoError(t, err)
	require.Len(t, joins, 1)
	assert.Equal(t, "Maria", joins[0].AuthorName)

	reports, err := target.GetReports(ctx, start.Add(-time.Minute), nil)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 16, reports[0].Total())
}

func TestMigrateStore_RunsTwiceWithoutDuplicatingGroups(t *testing.T) {
	ctx := context.Background()
	source, err := jsonstore.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, source.SaveGroup(ctx, group.New("120363000000000001@g.us", "livros")))

	target := newSQLStore(t)
	_, err = MigrateStore(ctx, source, target)
	require.NoError(t, err)
	_, err = MigrateStore(ctx, source, target)
	require.NoError(t, err)

	groups, err := target.GetGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}
