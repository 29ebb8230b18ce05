package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/domains/invite"
	"github.com/AzielCF/az-ravena/domains/loadreport"
	pkgError "github.com/AzielCF/az-ravena/pkg/error"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements the app repositories on top of gorm (sqlite or postgres).
type Store struct {
	db *gorm.DB
}

var (
	_ group.IGroupRepository       = (*Store)(nil)
	_ invite.IInviteRepository     = (*Store)(nil)
	_ loadreport.IReportRepository = (*Store)(nil)
)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&groupRecord{}, &pendingJoinRecord{}, &reportRecord{})
}

func (s *Store) GetGroups(ctx context.Context) ([]*group.Group, error) {
	var records []groupRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	out := make([]*group.Group, 0, len(records))
	for _, r := range records {
		g, err := decodeGroup(r)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *Store) GetGroup(ctx context.Context, id string) (*group.Group, error) {
	var r groupRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgError.NotFoundError(fmt.Sprintf("group %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group %s: %w", id, err)
	}
	return decodeGroup(r)
}

func (s *Store) SaveGroup(ctx context.Context, g *group.Group) error {
	if g == nil || g.ID == "" {
		return pkgError.ValidationError("group id is required")
	}
	g.UpdatedAt = time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = g.UpdatedAt
	}
	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to encode group %s: %w", g.ID, err)
	}
	r := groupRecord{ID: g.ID, Name: g.Name, Payload: string(payload), CreatedAt: g.CreatedAt, UpdatedAt: g.UpdatedAt}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "payload", "updated_at"}),
	}).Create(&r).Error
}

func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&groupRecord{}, "id = ?", id).Error
}

func (s *Store) GetPendingJoins(ctx context.Context) ([]invite.PendingJoin, error) {
	var records []pendingJoinRecord
	if err := s.db.WithContext(ctx).Order("timestamp").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending joins: %w", err)
	}
	out := make([]invite.PendingJoin, 0, len(records))
	for _, r := range records {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) SavePendingJoin(ctx context.Context, join invite.PendingJoin) error {
	if strings.TrimSpace(join.Code) == "" {
		return pkgError.ValidationError("invite code is required")
	}
	if join.Timestamp.IsZero() {
		join.Timestamp = time.Now().UTC()
	}
	r := pendingJoinRecord{Code: join.Code, AuthorID: join.AuthorID, AuthorName: join.AuthorName, Timestamp: join.Timestamp}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&r).Error
}

func (s *Store) RemovePendingJoin(ctx context.Context, code string) error {
	return s.db.WithContext(ctx).Delete(&pendingJoinRecord{}, "code = ?", code).Error
}

func (s *Store) SaveReport(ctx context.Context, report loadreport.Report) error {
	r := reportRecord{
		BotID:           report.BotID,
		PeriodStart:     report.PeriodStart,
		PeriodEnd:       report.PeriodEnd,
		ReceivedGroup:   report.ReceivedGroup,
		ReceivedPrivate: report.ReceivedPrivate,
		SentGroup:       report.SentGroup,
		SentPrivate:     report.SentPrivate,
	}
	return s.db.WithContext(ctx).Create(&r).Error
}

func (s *Store) GetReports(ctx context.Context, since time.Time, botIDs []string) ([]loadreport.Report, error) {
	q := s.db.WithContext(ctx).Where("period_end >= ?", since)
	if len(botIDs) > 0 {
		q = q.Where("bot_id IN ?", botIDs)
	}
	var records []reportRecord
	if err := q.Order("period_start").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list load reports: %w", err)
	}
	out := make([]loadreport.Report, 0, len(records))
	for _, r := range records {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func decodeGroup(r groupRecord) (*group.Group, error) {
	g := group.New(r.ID, r.Name)
	if r.Payload != "" {
		if err := json.Unmarshal([]byte(r.Payload), g); err != nil {
			return nil, fmt.Errorf("failed to decode group %s: %w", r.ID, err)
		}
	}
	return g, nil
}
