package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"golang.org/x/sync/errgroup"

	"acredita/internal/audit"
	"acredita/internal/platform/metrics"
	"acredita/internal/rules"
	"acredita/internal/scoring"
	"acredita/pkg/domainerrors"
	"acredita/pkg/requestcontext"
)

// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory and postgres persistence without rewiring business code.
type SiteStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (Site, error)
}

type Store interface {
	Save(ctx context.Context, rep Report) error
	FindByID(ctx context.Context, id uuid.UUID) (Report, error)
	CountBySite(ctx context.Context, siteID uuid.UUID) (int, error)
	LatestBySite(ctx context.Context, siteID uuid.UUID) (Report, error)
	Acknowledge(ctx context.Context, reportID uuid.UUID, sig Signature) error
	ListSignatures(ctx context.Context, reportID uuid.UUID) ([]Signature, error)
}

type RuleSource interface {
	ListActive(ctx context.Context) ([]rules.AdminRule, error)
}

type TemplateSource interface {
	List(ctx context.Context) ([]ReportTemplate, error)
}

type MappingSource interface {
	List(ctx context.Context) ([]rules.ScoreStatusMapping, error)
}

type DomainSource interface {
	List(ctx context.Context) ([]rules.Domain, error)
}

// Locker serializes report generation per site so concurrent requests cannot
// mint the same version number.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Notifier receives the generated report for out-of-band delivery. Failures
// must be handled internally; the service never checks them.
type Notifier interface {
	EvaluationComplete(ctx context.Context, site Site, rep *Report)
}

// Service assembles versioned report snapshots and manages their
// lock/acknowledge lifecycle.
type Service struct {
	sites      SiteStore
	reports    Store
	ruleSrc    RuleSource
	tplSrc     TemplateSource
	mapSrc     MappingSource
	domainSrc  DomainSource
	locker     Locker
	scoringCfg scoring.ModelConfig
	auditor    *audit.Publisher
	activity   *audit.ActivityLog
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

type ServiceOption func(*Service)

func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func NewService(
	sites SiteStore,
	reports Store,
	ruleSrc RuleSource,
	tplSrc TemplateSource,
	mapSrc MappingSource,
	domainSrc DomainSource,
	locker Locker,
	scoringCfg scoring.ModelConfig,
	auditor *audit.Publisher,
	activity *audit.ActivityLog,
	logger *slog.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		sites:      sites,
		reports:    reports,
		ruleSrc:    ruleSrc,
		tplSrc:     tplSrc,
		mapSrc:     mapSrc,
		domainSrc:  domainSrc,
		locker:     locker,
		scoringCfg: scoringCfg,
		auditor:    auditor,
		activity:   activity,
		logger:     logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// GenerateRequest is one evaluation submission: the questionnaire that was
// administered and the answers collected on site.
type GenerateRequest struct {
	SiteID    uuid.UUID          `json:"siteId"`
	Questions []scoring.Question `json:"questions"`
	Answers   scoring.Answers    `json:"answers"`
}

// configSnapshot is everything the evaluation pass reads from admin
// configuration, fetched in one parallel round so the report freezes a single
// consistent view.
type configSnapshot struct {
	activeRules []rules.AdminRule
	templates   []ReportTemplate
	mappings    []rules.ScoreStatusMapping
	domains     []rules.Domain
	priorCount  int
	previous    *Report
}

// Generate scores the submission, evaluates admin rules, and persists a new
// immutable report version for the site.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Report, error) {
	start := time.Now()

	site, err := s.sites.FindByID(ctx, req.SiteID)
	if err != nil {
		if isNotFound(err) {
			return nil, domainerrors.Newf(domainerrors.CodeNotFound, "site %s not found", req.SiteID)
		}
		return nil, fmt.Errorf("load site: %w", err)
	}

	// Serialize per site so version numbers stay dense and unique.
	release, err := s.locker.Acquire(ctx, "report:generate:"+req.SiteID.String())
	if err != nil {
		return nil, domainerrors.New(domainerrors.CodeAlreadyLocked, "report generation already in progress for this site")
	}
	defer release()

	snap, err := s.gatherConfig(ctx, req.SiteID)
	if err != nil {
		return nil, err
	}

	result, err := scoring.Calculate(req.Answers, req.Questions, s.scoringCfg)
	if err != nil {
		return nil, domainerrors.Newf(domainerrors.CodeBadRequest, "invalid evaluation submission: %v", err)
	}

	outcome := rules.DetermineFinalStatus(result.Status, result.CategoryScores, snap.activeRules, snap.mappings)
	capa := rules.GenerateCapaItems(outcome.TriggeredRules, snap.domains)

	now := requestcontext.Now(ctx).UTC()
	rep := &Report{
		ID:                 uuid.New(),
		SiteID:             site.ID,
		ReportVersion:      Version(site.ID, now, snap.priorCount),
		GeneratedByUserID:  requestcontext.ActorID(ctx),
		GeneratedByName:    requestcontext.ActorName(ctx),
		StatusAtGeneration: result.Status,
		FinalStatus:        outcome.FinalStatus,
		ScoreSnapshot: ScoreSnapshot{
			GlobalScore:    result.Score,
			ScoringStatus:  result.Status,
			CategoryScores: result.CategoryScores,
		},
		RulesSnapshot:     snap.activeRules,
		TemplatesSnapshot: snap.templates,
		MappingsSnapshot:  snap.mappings,
		CapaItems:         capa,
		GeneratedAt:       now,
	}
	if snap.previous != nil {
		id := snap.previous.ID
		rep.PreviousReportID = &id
	}
	rep.Narrative = buildNarrative(outcome.FinalStatus, snap.templates, snap.domains, snap.mappings, result.CategoryScores)

	hash, err := ComputeHash(rep.Digest())
	if err != nil {
		return nil, fmt.Errorf("hash report: %w", err)
	}
	rep.HashSHA256 = hash

	if err := s.reports.Save(ctx, *rep); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	s.emitAudit(ctx, audit.Entry{
		EntityType: audit.EntityReport,
		EntityID:   rep.ID.String(),
		ActionType: audit.ActionReportGenerated,
		AfterState: marshalState(rep),
	})
	if s.activity != nil {
		s.activity.Record(
			fmt.Sprintf("Report %s generated for %s (%s)", rep.ReportVersion, site.Name, rep.FinalStatus),
			requestcontext.ActorName(ctx),
		)
	}
	if s.notifier != nil {
		s.notifier.EvaluationComplete(ctx, site, rep)
	}
	s.metrics.ObserveReportGenerated(string(rep.FinalStatus), time.Since(start))

	s.logger.InfoContext(ctx, "report generated",
		"report_id", rep.ID,
		"site_id", site.ID,
		"version", rep.ReportVersion,
		"final_status", rep.FinalStatus,
		"global_score", rep.ScoreSnapshot.GlobalScore,
	)
	return rep, nil
}

// gatherConfig fetches the admin configuration and site lineage in parallel
// with shared cancellation on first failure.
func (s *Service) gatherConfig(ctx context.Context, siteID uuid.UUID) (*configSnapshot, error) {
	g, ctx := errgroup.WithContext(ctx)
	snap := &configSnapshot{}

	g.Go(func() error {
		list, err := s.ruleSrc.ListActive(ctx)
		if err != nil {
			return fmt.Errorf("list active rules: %w", err)
		}
		snap.activeRules = list
		return nil
	})
	g.Go(func() error {
		list, err := s.tplSrc.List(ctx)
		if err != nil {
			return fmt.Errorf("list templates: %w", err)
		}
		snap.templates = list
		return nil
	})
	g.Go(func() error {
		list, err := s.mapSrc.List(ctx)
		if err != nil {
			return fmt.Errorf("list mappings: %w", err)
		}
		snap.mappings = list
		return nil
	})
	g.Go(func() error {
		list, err := s.domainSrc.List(ctx)
		if err != nil {
			return fmt.Errorf("list domains: %w", err)
		}
		snap.domains = list
		return nil
	})
	g.Go(func() error {
		count, err := s.reports.CountBySite(ctx, siteID)
		if err != nil {
			return fmt.Errorf("count prior reports: %w", err)
		}
		snap.priorCount = count
		return nil
	})
	g.Go(func() error {
		prev, err := s.reports.LatestBySite(ctx, siteID)
		if err != nil {
			// First report for the site has no predecessor.
			if isNotFound(err) {
				return nil
			}
			return fmt.Errorf("load previous report: %w", err)
		}
		snap.previous = &prev
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// buildNarrative renders the narrative snapshot from the template matching
// the final status. A missing template yields an empty narrative rather than
// failing generation.
func buildNarrative(
	final rules.FinalStatus,
	templates []ReportTemplate,
	domains []rules.Domain,
	mappings []rules.ScoreStatusMapping,
	categoryScores map[string]float64,
) NarrativeSnapshot {
	narrative := NarrativeSnapshot{StatusType: final}

	var tpl *ReportTemplate
	for i := range templates {
		if templates[i].StatusType == final {
			tpl = &templates[i]
			break
		}
	}
	if tpl != nil {
		narrative.ExecutiveSummary = tpl.ExecutiveSummaryText
		narrative.ReevaluationClause = tpl.ReevaluationClauseText
	}

	for _, d := range domains {
		if !d.IsVisibleInReport {
			continue
		}
		score, ok := categoryScores[d.DomainKey]
		if !ok {
			continue
		}
		rounded := int(math.Round(score))
		narrative.DomainEvaluations = append(narrative.DomainEvaluations, DomainEvaluation{
			DomainKey:    d.DomainKey,
			DisplayName:  d.DisplayName,
			DisplayOrder: d.DisplayOrder,
			Score:        rounded,
			Label:        rules.ResolveLabel(score, mappings),
		})
		if tpl != nil {
			if para, ok := tpl.DomainParagraphTemplates[d.DomainKey]; ok {
				if narrative.DomainParagraphs == nil {
					narrative.DomainParagraphs = make(map[string]string)
				}
				narrative.DomainParagraphs[d.DomainKey] = para
			}
		}
	}
	return narrative
}

// AcknowledgeRequest carries the signer identity and the hash the client saw
// when reviewing the report.
type AcknowledgeRequest struct {
	SignedByName     string `json:"signedByName"`
	SignedByRole     string `json:"signedByRole"`
	ExpectedHash     string `json:"expectedHash"`
	SignatureMethod  string `json:"signatureMethod"`
	SignaturePayload string `json:"signaturePayload,omitempty"`
}

// Acknowledge records a signature and locks the report. The first successful
// acknowledgment wins; the lock never reopens.
func (s *Service) Acknowledge(ctx context.Context, reportID uuid.UUID, req AcknowledgeRequest) (*Signature, error) {
	if req.SignedByName == "" {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "signedByName is required")
	}

	rep, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		if isNotFound(err) {
			return nil, domainerrors.Newf(domainerrors.CodeNotFound, "report %s not found", reportID)
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	if rep.IsLocked {
		return nil, domainerrors.New(domainerrors.CodeAlreadyLocked, "report is already acknowledged and locked")
	}
	if req.ExpectedHash != rep.HashSHA256 {
		return nil, domainerrors.New(domainerrors.CodeIntegrityMismatch, "provided hash does not match the stored report hash")
	}
	// Guard against storage-level tampering: the stored hash must still match
	// a recomputation from the stored content.
	computed, err := ComputeHash(rep.Digest())
	if err != nil {
		return nil, fmt.Errorf("hash report: %w", err)
	}
	if computed != rep.HashSHA256 {
		return nil, domainerrors.New(domainerrors.CodeIntegrityMismatch, "stored report content does not match its hash")
	}

	rawUA := requestcontext.UserAgent(ctx)
	sig := Signature{
		ID:               uuid.New(),
		ReportID:         rep.ID,
		SignedByName:     req.SignedByName,
		SignedByRole:     req.SignedByRole,
		IPAddress:        requestcontext.ClientIP(ctx),
		UserAgent:        rawUA,
		Device:           describeDevice(rawUA),
		HashAtSignature:  rep.HashSHA256,
		SignatureMethod:  req.SignatureMethod,
		SignaturePayload: req.SignaturePayload,
		SignedAt:         requestcontext.Now(ctx).UTC(),
	}
	if sig.SignatureMethod == "" {
		sig.SignatureMethod = "acknowledgment"
	}

	if err := s.reports.Acknowledge(ctx, rep.ID, sig); err != nil {
		if isConflict(err) {
			return nil, domainerrors.New(domainerrors.CodeAlreadyLocked, "report is already acknowledged and locked")
		}
		if isNotFound(err) {
			return nil, domainerrors.Newf(domainerrors.CodeNotFound, "report %s not found", reportID)
		}
		return nil, fmt.Errorf("acknowledge report: %w", err)
	}

	s.emitAudit(ctx, audit.Entry{
		EntityType: audit.EntityReport,
		EntityID:   rep.ID.String(),
		ActionType: audit.ActionReportAcknowledged,
		ActorName:  req.SignedByName,
		AfterState: marshalState(sig),
	})
	if s.activity != nil {
		s.activity.Record(
			fmt.Sprintf("Report %s acknowledged by %s", rep.ReportVersion, req.SignedByName),
			req.SignedByName,
		)
	}
	s.metrics.IncrementReportsAcknowledged()

	s.logger.InfoContext(ctx, "report acknowledged",
		"report_id", rep.ID,
		"signed_by", req.SignedByName,
	)
	return &sig, nil
}

// Get returns a stored report by ID.
func (s *Service) Get(ctx context.Context, reportID uuid.UUID) (*Report, error) {
	rep, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		if isNotFound(err) {
			return nil, domainerrors.Newf(domainerrors.CodeNotFound, "report %s not found", reportID)
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	return &rep, nil
}

// Signatures returns the acknowledgment trail for a report.
func (s *Service) Signatures(ctx context.Context, reportID uuid.UUID) ([]Signature, error) {
	if _, err := s.Get(ctx, reportID); err != nil {
		return nil, err
	}
	return s.reports.ListSignatures(ctx, reportID)
}

// VerifyResult reports whether a stored report still matches its hash.
type VerifyResult struct {
	ReportID     uuid.UUID `json:"reportId"`
	StoredHash   string    `json:"storedHash"`
	ComputedHash string    `json:"computedHash"`
	Valid        bool      `json:"valid"`
}

// Verify recomputes the hash from stored content and compares it with the
// hash persisted at generation time.
func (s *Service) Verify(ctx context.Context, reportID uuid.UUID) (*VerifyResult, error) {
	rep, err := s.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	computed, err := ComputeHash(rep.Digest())
	if err != nil {
		return nil, fmt.Errorf("hash report: %w", err)
	}
	return &VerifyResult{
		ReportID:     rep.ID,
		StoredHash:   rep.HashSHA256,
		ComputedHash: computed,
		Valid:        computed == rep.HashSHA256,
	}, nil
}

func (s *Service) emitAudit(ctx context.Context, entry audit.Entry) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit entry",
			"error", err,
			"entity_id", entry.EntityID,
			"action", entry.ActionType,
		)
	}
}

func marshalState(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// describeDevice condenses a raw User-Agent header into a short
// "Browser version on OS" string for the signature record.
func describeDevice(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return ""
	}
	desc := strings.TrimSpace(name + " " + version)
	if os := ua.OS(); os != "" {
		desc += " on " + os
	}
	return desc
}

// Storage sentinels carry domain error codes, so the service matches on code
// instead of importing the storage package.
func isNotFound(err error) bool {
	return domainerrors.Is(err, domainerrors.CodeNotFound)
}

func isConflict(err error) bool {
	return domainerrors.Is(err, domainerrors.CodeConflict)
}
