//go:build integration

package storage_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"acredita/internal/platform/database"
	"acredita/internal/report"
	"acredita/internal/rules"
	"acredita/internal/scoring"
	"acredita/internal/storage"
	"acredita/pkg/domainerrors"
)

// Runs against the database named by TEST_DATABASE_URL. Migrations are applied
// on open; every test starts from truncated tables.
type PostgresStoreSuite struct {
	suite.Suite

	db      *sql.DB
	sites   *storage.PostgresSiteStore
	reports *storage.PostgresReportStore
	rules   *storage.PostgresRuleStore
	audit   *storage.PostgresAuditStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	db, err := database.Open(os.Getenv("TEST_DATABASE_URL"))
	s.Require().NoError(err)
	s.db = db
	s.sites = storage.NewPostgresSiteStore(db)
	s.reports = storage.NewPostgresReportStore(db)
	s.rules = storage.NewPostgresRuleStore(db)
	s.audit = storage.NewPostgresAuditStore(db)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.db != nil {
		s.Require().NoError(s.db.Close())
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	// Truncate in dependency order.
	for _, table := range []string{
		"report_signatures", "reports", "sites",
		"admin_rules", "report_templates", "score_mappings", "domains",
		"audit_log", "activity_log",
	} {
		_, err := s.db.ExecContext(context.Background(), "TRUNCATE TABLE "+table+" CASCADE")
		s.Require().NoError(err)
	}
}

func (s *PostgresStoreSuite) newSite(name string) report.Site {
	site := report.Site{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.sites.Save(context.Background(), site))
	return site
}

func (s *PostgresStoreSuite) newReport(siteID uuid.UUID, version string) report.Report {
	return report.Report{
		ID:                 uuid.New(),
		SiteID:             siteID,
		ReportVersion:      version,
		GeneratedByUserID:  "user-1",
		GeneratedByName:    "Ana Torres",
		StatusAtGeneration: scoring.StatusApproved,
		FinalStatus:        rules.StatusApproved,
		ScoreSnapshot: report.ScoreSnapshot{
			GlobalScore:    91,
			ScoringStatus:  scoring.StatusApproved,
			CategoryScores: map[string]float64{"Staff": 91},
		},
		HashSHA256:  "deadbeef",
		GeneratedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestReportRoundTrip() {
	ctx := context.Background()
	site := s.newSite("Hospital San Martin")

	rep := s.newReport(site.ID, "REPORT-AAAA1111-20260115-v1")
	rep.CapaItems = []rules.CapaItem{{
		RuleID:         uuid.New(),
		DomainKey:      "Staff",
		DomainName:     "Staff",
		RequiredAction: "Hire a second coordinator",
		TimelineDays:   60,
	}}
	s.Require().NoError(s.reports.Save(ctx, rep))

	got, err := s.reports.FindByID(ctx, rep.ID)
	s.Require().NoError(err)
	s.Equal(rep.ReportVersion, got.ReportVersion)
	s.Equal(rep.ScoreSnapshot, got.ScoreSnapshot)
	s.Equal(rep.CapaItems, got.CapaItems)
	s.False(got.IsLocked)

	count, err := s.reports.CountBySite(ctx, site.ID)
	s.Require().NoError(err)
	s.Equal(1, count)

	latest, err := s.reports.LatestBySite(ctx, site.ID)
	s.Require().NoError(err)
	s.Equal(rep.ID, latest.ID)
}

func (s *PostgresStoreSuite) TestFindByIDNotFound() {
	_, err := s.reports.FindByID(context.Background(), uuid.New())
	s.Require().Error(err)
	s.True(domainerrors.Is(err, domainerrors.CodeNotFound))
}

func (s *PostgresStoreSuite) TestDuplicateVersionConflicts() {
	ctx := context.Background()
	site := s.newSite("Clinica Sur")

	first := s.newReport(site.ID, "REPORT-BBBB2222-20260115-v1")
	s.Require().NoError(s.reports.Save(ctx, first))

	second := s.newReport(site.ID, "REPORT-BBBB2222-20260115-v1")
	err := s.reports.Save(ctx, second)
	s.Require().Error(err)
	s.True(domainerrors.Is(err, domainerrors.CodeConflict))
}

// TestConcurrentAcknowledge verifies that concurrent acknowledgments lock the
// report exactly once.
func (s *PostgresStoreSuite) TestConcurrentAcknowledge() {
	ctx := context.Background()
	site := s.newSite("Centro Norte")
	rep := s.newReport(site.ID, "REPORT-CCCC3333-20260115-v1")
	s.Require().NoError(s.reports.Save(ctx, rep))

	const goroutines = 10
	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.reports.Acknowledge(ctx, rep.ID, report.Signature{
				ID:              uuid.New(),
				ReportID:        rep.ID,
				SignedByName:    fmt.Sprintf("Signer %d", i),
				HashAtSignature: rep.HashSHA256,
				SignatureMethod: "acknowledgment",
				SignedAt:        time.Now().UTC(),
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case domainerrors.Is(err, domainerrors.CodeConflict):
				conflictCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one acknowledge should win")
	s.Equal(int32(goroutines-1), conflictCount.Load())

	locked, err := s.reports.FindByID(ctx, rep.ID)
	s.Require().NoError(err)
	s.True(locked.IsLocked)

	sigs, err := s.reports.ListSignatures(ctx, rep.ID)
	s.Require().NoError(err)
	s.Len(sigs, 1)
}

func (s *PostgresStoreSuite) TestListActiveRulesOrdering() {
	ctx := context.Background()
	low := rules.AdminRule{ID: uuid.New(), DomainKey: "Staff", Trigger: rules.TriggerAnyGap, RulePriority: 1, Active: true, VersionNumber: 1}
	high := rules.AdminRule{ID: uuid.New(), DomainKey: "Quality Management", Trigger: rules.TriggerAnyGap, RulePriority: 9, Active: true, VersionNumber: 1}
	inactive := rules.AdminRule{ID: uuid.New(), DomainKey: "Systems", Trigger: rules.TriggerAnyGap, RulePriority: 5, Active: false, VersionNumber: 1}
	for _, r := range []rules.AdminRule{low, high, inactive} {
		s.Require().NoError(s.rules.Save(ctx, r))
	}

	active, err := s.rules.ListActive(ctx)
	s.Require().NoError(err)
	s.Require().Len(active, 2)
	s.Equal(high.ID, active[0].ID, "higher priority first")
	s.Equal(low.ID, active[1].ID)
}
