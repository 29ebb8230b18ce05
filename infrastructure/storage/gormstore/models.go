package gormstore

import (
	"time"

	"github.com/AzielCF/az-ravena/domains/invite"
	"github.com/AzielCF/az-ravena/domains/loadreport"
)

// groupRecord keeps the whole group document as JSON next to a few indexed columns.
type groupRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:128"`
	Payload   string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (groupRecord) TableName() string { return "groups" }

type pendingJoinRecord struct {
	Code       string `gorm:"primaryKey;size:64"`
	AuthorID   string `gorm:"size:64"`
	AuthorName string `gorm:"size:128"`
	Timestamp  time.Time
}

func (pendingJoinRecord) TableName() string { return "pending_joins" }

func (r pendingJoinRecord) toDomain() invite.PendingJoin {
	return invite.PendingJoin{Code: r.Code, AuthorID: r.AuthorID, AuthorName: r.AuthorName, Timestamp: r.Timestamp}
}

type reportRecord struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	BotID           string    `gorm:"size:32;index"`
	PeriodStart     time.Time `gorm:"index"`
	PeriodEnd       time.Time `gorm:"index"`
	ReceivedGroup   int
	ReceivedPrivate int
	SentGroup       int
	SentPrivate     int
}

func (reportRecord) TableName() string { return "load_reports" }

func (r reportRecord) toDomain() loadreport.Report {
	return loadreport.Report{
		BotID:           r.BotID,
		PeriodStart:     r.PeriodStart,
		PeriodEnd:       r.PeriodEnd,
		ReceivedGroup:   r.ReceivedGroup,
		ReceivedPrivate: r.ReceivedPrivate,
		SentGroup:       r.SentGroup,
		SentPrivate:     r.SentPrivate,
	}
}
