package jsonstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/domains/invite"
	"github.com/AzielCF/az-ravena/domains/loadreport"
	pkgError "github.com/AzielCF/az-ravena/pkg/error"
)

const (
	groupsFile       = "groups.json"
	pendingJoinsFile = "pending-joins.json"
	loadReportsFile  = "load-reports.json"

	defaultReportRetention = 400 * 24 * time.Hour
)

// Store keeps every repository as a flat JSON file inside one directory.
type Store struct {
	dir             string
	groups          *document[map[string]*group.Group]
	joins           *document[[]invite.PendingJoin]
	reports         *document[[]loadreport.Report]
	reportRetention time.Duration
}

var (
	_ group.IGroupRepository       = (*Store)(nil)
	_ invite.IInviteRepository     = (*Store)(nil)
	_ loadreport.IReportRepository = (*Store)(nil)
)

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return &Store{
		dir:             dir,
		groups:          newDocument(filepath.Join(dir, groupsFile), func() map[string]*group.Group { return map[string]*group.Group{} }),
		joins:           newDocument(filepath.Join(dir, pendingJoinsFile), func() []invite.PendingJoin { return []invite.PendingJoin{} }),
		reports:         newDocument(filepath.Join(dir, loadReportsFile), func() []loadreport.Report { return []loadreport.Report{} }),
		reportRetention: defaultReportRetention,
	}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) GetGroups(_ context.Context) ([]*group.Group, error) {
	all, err := s.groups.read()
	if err != nil {
		return nil, err
	}
	out := make([]*group.Group, 0, len(all))
	for id, g := range all {
		if g == nil {
			continue
		}
		if g.ID == "" {
			g.ID = id
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetGroup(_ context.Context, id string) (*group.Group, error) {
	all, err := s.groups.read()
	if err != nil {
		return nil, err
	}
	g, ok := all[id]
	if !ok || g == nil {
		return nil, pkgError.NotFoundError(fmt.Sprintf("group %s not found", id))
	}
	return g, nil
}

func (s *Store) SaveGroup(_ context.Context, g *group.Group) error {
	if g == nil || g.ID == "" {
		return pkgError.ValidationError("group id is required")
	}
	g.UpdatedAt = time.Now().UTC()
	return s.groups.update(func(all map[string]*group.Group) (map[string]*group.Group, error) {
		all[g.ID] = g
		return all, nil
	})
}

func (s *Store) DeleteGroup(_ context.Context, id string) error {
	return s.groups.update(func(all map[string]*group.Group) (map[string]*group.Group, error) {
		delete(all, id)
		return all, nil
	})
}

func (s *Store) GetPendingJoins(_ context.Context) ([]invite.PendingJoin, error) {
	return s.joins.read()
}

// SavePendingJoin stores join, replacing a previous entry with the same code.
func (s *Store) SavePendingJoin(_ context.Context, join invite.PendingJoin) error {
	if strings.TrimSpace(join.Code) == "" {
		return pkgError.ValidationError("invite code is required")
	}
	if join.Timestamp.IsZero() {
		join.Timestamp = time.Now().UTC()
	}
	return s.joins.update(func(all []invite.PendingJoin) ([]invite.PendingJoin, error) {
		out := all[:0]
		for _, j := range all {
			if j.Code != join.Code {
				out = append(out, j)
			}
		}
		return append(out, join), nil
	})
}

func (s *Store) RemovePendingJoin(_ context.Context, code string) error {
	return s.joins.update(func(all []invite.PendingJoin) ([]invite.PendingJoin, error) {
		out := all[:0]
		for _, j := range all {
			if j.Code != code {
				out = append(out, j)
			}
		}
		return out, nil
	})
}

// SaveReport appends a report and drops the ones older than the retention window.
func (s *Store) SaveReport(_ context.Context, report loadreport.Report) error {
	cutoff := time.Now().UTC().Add(-s.reportRetention)
	return s.reports.update(func(all []loadreport.Report) ([]loadreport.Report, error) {
		out := all[:0]
		for _, r := range all {
			if r.PeriodEnd.After(cutoff) {
				out = append(out, r)
			}
		}
		return append(out, report), nil
	})
}

func (s *Store) GetReports(_ context.Context, since time.Time, botIDs []string) ([]loadreport.Report, error) {
	all, err := s.reports.read()
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(botIDs))
	for _, id := range botIDs {
		wanted[id] = true
	}
	out := make([]loadreport.Report, 0, len(all))
	for _, r := range all {
		if r.PeriodEnd.Before(since) {
			continue
		}
		if len(wanted) > 0 && !wanted[r.BotID] {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.Before(out[j].PeriodStart) })
	return out, nil
}
