package adminconfig_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"acredita/internal/adminconfig"
	"acredita/internal/audit"
	"acredita/internal/guard"
	"acredita/internal/report"
	"acredita/internal/rules"
	"acredita/internal/storage"
	"acredita/pkg/domainerrors"
	"acredita/pkg/requestcontext"
)

type AdminConfigSuite struct {
	suite.Suite

	rules      *storage.InMemoryRuleStore
	templates  *storage.InMemoryTemplateStore
	mappings   *storage.InMemoryMappingStore
	auditStore *storage.InMemoryAuditStore
	svc        *adminconfig.Service

	ctx       context.Context
	ruleID    uuid.UUID
	tplID     uuid.UUID
	mappingID uuid.UUID
}

func TestAdminConfigSuite(t *testing.T) {
	suite.Run(t, new(AdminConfigSuite))
}

func (s *AdminConfigSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.rules = storage.NewInMemoryRuleStore()
	s.templates = storage.NewInMemoryTemplateStore()
	s.mappings = storage.NewInMemoryMappingStore()
	s.auditStore = storage.NewInMemoryAuditStore()

	s.svc = adminconfig.NewService(
		s.rules, s.templates, s.mappings,
		audit.NewPublisher(s.auditStore), nil, nil, logger,
	)

	ctx := requestcontext.WithActorID(context.Background(), "admin-1")
	s.ctx = requestcontext.WithActorName(ctx, "Ana Torres")

	s.ruleID = uuid.New()
	s.Require().NoError(s.rules.Save(s.ctx, rules.AdminRule{
		ID:                  s.ruleID,
		DomainKey:           "Staff",
		Trigger:             rules.TriggerAnyGap,
		ForcesMinimumStatus: rules.StatusNotApproved,
		BlocksApproval:      true,
		Active:              true,
		VersionNumber:       1,
	}))

	s.tplID = uuid.New()
	s.Require().NoError(s.templates.Save(s.ctx, report.ReportTemplate{
		ID:                   s.tplID,
		StatusType:           rules.StatusNotApproved,
		ExecutiveSummaryText: "The site did not meet the minimum requirements.",
	}))

	s.mappingID = uuid.New()
	s.Require().NoError(s.mappings.Save(s.ctx, rules.ScoreStatusMapping{
		ID:          s.mappingID,
		MinScore:    80,
		MaxScore:    100,
		StatusLabel: rules.LabelAdequate,
	}))
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func strPtr(v string) *string { return &v }

func (s *AdminConfigSuite) TestUpdateRuleNonCritical() {
	updated, err := s.svc.UpdateRule(s.ctx, s.ruleID, guard.RuleUpdate{
		RulePriority: intPtr(8),
	}, "")
	s.Require().NoError(err)
	s.Equal(8, updated.RulePriority)
	s.Equal(2, updated.VersionNumber)

	trail, err := s.auditStore.ListByEntity(s.ctx, audit.EntityAdminRule, s.ruleID.String())
	s.Require().NoError(err)
	s.Require().Len(trail, 1)
	s.Equal(audit.ActionRuleUpdated, trail[0].ActionType)
	s.False(trail[0].IsCriticalChange)
	s.Equal("admin-1", trail[0].ActorUserID)

	var before rules.AdminRule
	s.Require().NoError(json.Unmarshal(trail[0].BeforeState, &before))
	s.Equal(0, before.RulePriority, "before-state captures the pre-update rule")
}

func (s *AdminConfigSuite) TestUpdateRuleCriticalWithoutReasonRejected() {
	_, err := s.svc.UpdateRule(s.ctx, s.ruleID, guard.RuleUpdate{
		BlocksApproval: boolPtr(false),
	}, "")
	s.True(domainerrors.Is(err, domainerrors.CodeCriticalChange))
	s.True(domainerrors.IsCritical(err))

	unchanged, findErr := s.rules.FindByID(s.ctx, s.ruleID)
	s.Require().NoError(findErr)
	s.True(unchanged.BlocksApproval, "rejected update must not be applied")
	s.Equal(1, unchanged.VersionNumber)

	trail, err := s.auditStore.ListByEntity(s.ctx, audit.EntityAdminRule, s.ruleID.String())
	s.Require().NoError(err)
	s.Empty(trail, "rejected updates leave no applied-change entry")
}

func (s *AdminConfigSuite) TestUpdateRuleCriticalWithReasonApplied() {
	updated, err := s.svc.UpdateRule(s.ctx, s.ruleID, guard.RuleUpdate{
		BlocksApproval: boolPtr(false),
	}, "Regulator approved relaxation after 2025 audit cycle")
	s.Require().NoError(err)
	s.False(updated.BlocksApproval)

	trail, err := s.auditStore.ListByEntity(s.ctx, audit.EntityAdminRule, s.ruleID.String())
	s.Require().NoError(err)
	s.Require().Len(trail, 1)
	s.True(trail[0].IsCriticalChange)
	s.Equal("Regulator approved relaxation after 2025 audit cycle", trail[0].ChangeReason)
}

func (s *AdminConfigSuite) TestUpdateRuleNotFound() {
	_, err := s.svc.UpdateRule(s.ctx, uuid.New(), guard.RuleUpdate{}, "")
	s.True(domainerrors.Is(err, domainerrors.CodeNotFound))
}

func (s *AdminConfigSuite) TestUpdateTemplateGuardsRejectionNarrative() {
	s.Run("edit without reason rejected", func() {
		_, err := s.svc.UpdateTemplate(s.ctx, s.tplID, guard.TemplateUpdate{
			ExecutiveSummaryText: strPtr("softer wording"),
		}, "")
		s.True(domainerrors.Is(err, domainerrors.CodeCriticalChange))
	})

	s.Run("edit with reason applied", func() {
		updated, err := s.svc.UpdateTemplate(s.ctx, s.tplID, guard.TemplateUpdate{
			ExecutiveSummaryText: strPtr("Revised rejection narrative"),
		}, "Legal review of rejection wording")
		s.Require().NoError(err)
		s.Equal("Revised rejection narrative", updated.ExecutiveSummaryText)
	})

	s.Run("clause edit needs no reason", func() {
		updated, err := s.svc.UpdateTemplate(s.ctx, s.tplID, guard.TemplateUpdate{
			ReevaluationClauseText: strPtr("Re-evaluation after 12 months"),
		}, "")
		s.Require().NoError(err)
		s.Equal("Re-evaluation after 12 months", updated.ReevaluationClauseText)
	})
}

func (s *AdminConfigSuite) TestUpdateMappingGuardsAdequateBand() {
	s.Run("lowering the floor without reason rejected", func() {
		_, err := s.svc.UpdateMapping(s.ctx, s.mappingID, guard.MappingUpdate{
			MinScore: intPtr(70),
		}, "")
		s.True(domainerrors.Is(err, domainerrors.CodeCriticalChange))
	})

	s.Run("raising the floor needs no reason", func() {
		updated, err := s.svc.UpdateMapping(s.ctx, s.mappingID, guard.MappingUpdate{
			MinScore: intPtr(85),
		}, "")
		s.Require().NoError(err)
		s.Equal(85, updated.MinScore)
	})
}
