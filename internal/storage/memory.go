// Package storage provides the persistence implementations behind the
// consumer-defined store interfaces: in-memory for tests and local runs,
// postgres for production.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"acredita/internal/audit"
	"acredita/internal/report"
	"acredita/internal/rules"
)

// In-memory stores keep local runs and tests lightweight. They intentionally
// favor clarity over performance.
type InMemorySiteStore struct {
	mu    sync.RWMutex
	sites map[uuid.UUID]report.Site
}

func NewInMemorySiteStore() *InMemorySiteStore {
	return &InMemorySiteStore{sites: make(map[uuid.UUID]report.Site)}
}

func (s *InMemorySiteStore) Save(_ context.Context, site report.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites[site.ID] = site
	return nil
}

func (s *InMemorySiteStore) FindByID(_ context.Context, id uuid.UUID) (report.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if site, ok := s.sites[id]; ok {
		return site, nil
	}
	return report.Site{}, ErrNotFound
}

func (s *InMemorySiteStore) List(_ context.Context) ([]report.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]report.Site, 0, len(s.sites))
	for _, site := range s.sites {
		out = append(out, site)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type InMemoryReportStore struct {
	mu         sync.RWMutex
	reports    map[uuid.UUID]report.Report
	signatures map[uuid.UUID][]report.Signature
}

func NewInMemoryReportStore() *InMemoryReportStore {
	return &InMemoryReportStore{
		reports:    make(map[uuid.UUID]report.Report),
		signatures: make(map[uuid.UUID][]report.Signature),
	}
}

func (s *InMemoryReportStore) Save(_ context.Context, rep report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[rep.ID] = rep
	return nil
}

func (s *InMemoryReportStore) FindByID(_ context.Context, id uuid.UUID) (report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rep, ok := s.reports[id]; ok {
		return rep, nil
	}
	return report.Report{}, ErrNotFound
}

func (s *InMemoryReportStore) CountBySite(_ context.Context, siteID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, rep := range s.reports {
		if rep.SiteID == siteID {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryReportStore) LatestBySite(_ context.Context, siteID uuid.UUID) (report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest report.Report
	found := false
	for _, rep := range s.reports {
		if rep.SiteID != siteID {
			continue
		}
		if !found || rep.GeneratedAt.After(latest.GeneratedAt) {
			latest = rep
			found = true
		}
	}
	if !found {
		return report.Report{}, ErrNotFound
	}
	return latest, nil
}

func (s *InMemoryReportStore) ListBySite(_ context.Context, siteID uuid.UUID) ([]report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []report.Report
	for _, rep := range s.reports {
		if rep.SiteID == siteID {
			out = append(out, rep)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

// Acknowledge appends the signature and flips the lock in one critical
// section. A report that is already locked loses the race with ErrConflict.
func (s *InMemoryReportStore) Acknowledge(_ context.Context, reportID uuid.UUID, sig report.Signature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.reports[reportID]
	if !ok {
		return ErrNotFound
	}
	if rep.IsLocked {
		return ErrConflict
	}
	rep.IsLocked = true
	s.reports[reportID] = rep
	s.signatures[reportID] = append(s.signatures[reportID], sig)
	return nil
}

func (s *InMemoryReportStore) ListSignatures(_ context.Context, reportID uuid.UUID) ([]report.Signature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]report.Signature{}, s.signatures[reportID]...), nil
}

type InMemoryRuleStore struct {
	mu        sync.RWMutex
	ruleItems map[uuid.UUID]rules.AdminRule
}

func NewInMemoryRuleStore() *InMemoryRuleStore {
	return &InMemoryRuleStore{ruleItems: make(map[uuid.UUID]rules.AdminRule)}
}

func (s *InMemoryRuleStore) Save(_ context.Context, rule rules.AdminRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ruleItems[rule.ID] = rule
	return nil
}

func (s *InMemoryRuleStore) FindByID(_ context.Context, id uuid.UUID) (rules.AdminRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rule, ok := s.ruleItems[id]; ok {
		return rule, nil
	}
	return rules.AdminRule{}, ErrNotFound
}

func (s *InMemoryRuleStore) List(_ context.Context) ([]rules.AdminRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rules.AdminRule, 0, len(s.ruleItems))
	for _, rule := range s.ruleItems {
		out = append(out, rule)
	}
	sortRules(out)
	return out, nil
}

func (s *InMemoryRuleStore) ListActive(_ context.Context) ([]rules.AdminRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []rules.AdminRule
	for _, rule := range s.ruleItems {
		if rule.Active {
			out = append(out, rule)
		}
	}
	sortRules(out)
	return out, nil
}

func sortRules(list []rules.AdminRule) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].RulePriority != list[j].RulePriority {
			return list[i].RulePriority > list[j].RulePriority
		}
		return list[i].ID.String() < list[j].ID.String()
	})
}

type InMemoryTemplateStore struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]report.ReportTemplate
}

func NewInMemoryTemplateStore() *InMemoryTemplateStore {
	return &InMemoryTemplateStore{templates: make(map[uuid.UUID]report.ReportTemplate)}
}

func (s *InMemoryTemplateStore) Save(_ context.Context, tpl report.ReportTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tpl.ID] = tpl
	return nil
}

func (s *InMemoryTemplateStore) FindByID(_ context.Context, id uuid.UUID) (report.ReportTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tpl, ok := s.templates[id]; ok {
		return tpl, nil
	}
	return report.ReportTemplate{}, ErrNotFound
}

func (s *InMemoryTemplateStore) List(_ context.Context) ([]report.ReportTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]report.ReportTemplate, 0, len(s.templates))
	for _, tpl := range s.templates {
		out = append(out, tpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StatusType < out[j].StatusType })
	return out, nil
}

type InMemoryMappingStore struct {
	mu       sync.RWMutex
	mappings map[uuid.UUID]rules.ScoreStatusMapping
}

func NewInMemoryMappingStore() *InMemoryMappingStore {
	return &InMemoryMappingStore{mappings: make(map[uuid.UUID]rules.ScoreStatusMapping)}
}

func (s *InMemoryMappingStore) Save(_ context.Context, m rules.ScoreStatusMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[m.ID] = m
	return nil
}

func (s *InMemoryMappingStore) FindByID(_ context.Context, id uuid.UUID) (rules.ScoreStatusMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.mappings[id]; ok {
		return m, nil
	}
	return rules.ScoreStatusMapping{}, ErrNotFound
}

func (s *InMemoryMappingStore) List(_ context.Context) ([]rules.ScoreStatusMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rules.ScoreStatusMapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinScore > out[j].MinScore })
	return out, nil
}

type InMemoryDomainStore struct {
	mu      sync.RWMutex
	domains map[string]rules.Domain
}

func NewInMemoryDomainStore() *InMemoryDomainStore {
	return &InMemoryDomainStore{domains: make(map[string]rules.Domain)}
}

func (s *InMemoryDomainStore) Save(_ context.Context, d rules.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domains[d.DomainKey] = d
	return nil
}

func (s *InMemoryDomainStore) List(_ context.Context) ([]rules.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rules.Domain, 0, len(s.domains))
	for _, d := range s.domains {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

type InMemoryAuditStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewInMemoryAuditStore() *InMemoryAuditStore {
	return &InMemoryAuditStore{}
}

func (s *InMemoryAuditStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryAuditStore) ListRecent(_ context.Context, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]audit.Entry{}, s.entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryAuditStore) ListByEntity(_ context.Context, entityType, entityID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Entry
	for _, entry := range s.entries {
		if entry.EntityType == entityType && entry.EntityID == entityID {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type InMemoryActivityStore struct {
	mu         sync.RWMutex
	activities []audit.Activity
}

func NewInMemoryActivityStore() *InMemoryActivityStore {
	return &InMemoryActivityStore{}
}

func (s *InMemoryActivityStore) Append(_ context.Context, activity audit.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, activity)
	return nil
}

func (s *InMemoryActivityStore) ListRecent(_ context.Context, limit int) ([]audit.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]audit.Activity{}, s.activities...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
