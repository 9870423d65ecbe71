package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"acredita/internal/audit"
	"acredita/internal/report"
	"acredita/internal/rules"
)

// PostgresSiteStore persists sites in PostgreSQL.
type PostgresSiteStore struct {
	db *sql.DB
}

func NewPostgresSiteStore(db *sql.DB) *PostgresSiteStore {
	return &PostgresSiteStore{db: db}
}

func (s *PostgresSiteStore) Save(ctx context.Context, site report.Site) error {
	query := `
		INSERT INTO sites (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email
	`
	_, err := s.db.ExecContext(ctx, query, site.ID, site.Name, site.Email, site.CreatedAt)
	if err != nil {
		return fmt.Errorf("save site: %w", err)
	}
	return nil
}

func (s *PostgresSiteStore) FindByID(ctx context.Context, id uuid.UUID) (report.Site, error) {
	var site report.Site
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM sites WHERE id = $1`, id,
	).Scan(&site.ID, &site.Name, &site.Email, &site.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report.Site{}, ErrNotFound
		}
		return report.Site{}, fmt.Errorf("find site: %w", err)
	}
	return site, nil
}

func (s *PostgresSiteStore) List(ctx context.Context) ([]report.Site, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, created_at FROM sites ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()
	var out []report.Site
	for rows.Next() {
		var site report.Site
		if err := rows.Scan(&site.ID, &site.Name, &site.Email, &site.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		out = append(out, site)
	}
	return out, rows.Err()
}

// reportSnapshot is the JSONB payload holding everything frozen at generation
// time. Hash, lock, and lineage stay in columns so they can be indexed and
// updated without rewriting the snapshot.
type reportSnapshot struct {
	ScoreSnapshot     report.ScoreSnapshot       `json:"scoreSnapshot"`
	RulesSnapshot     []rules.AdminRule          `json:"rulesSnapshot"`
	TemplatesSnapshot []report.ReportTemplate    `json:"templatesSnapshot"`
	MappingsSnapshot  []rules.ScoreStatusMapping `json:"mappingsSnapshot"`
	Narrative         report.NarrativeSnapshot   `json:"narrativeSnapshot"`
	CapaItems         []rules.CapaItem           `json:"capaItems"`
}

// PostgresReportStore persists reports and their signatures.
type PostgresReportStore struct {
	db *sql.DB
}

func NewPostgresReportStore(db *sql.DB) *PostgresReportStore {
	return &PostgresReportStore{db: db}
}

func (s *PostgresReportStore) Save(ctx context.Context, rep report.Report) error {
	payload, err := json.Marshal(reportSnapshot{
		ScoreSnapshot:     rep.ScoreSnapshot,
		RulesSnapshot:     rep.RulesSnapshot,
		TemplatesSnapshot: rep.TemplatesSnapshot,
		MappingsSnapshot:  rep.MappingsSnapshot,
		Narrative:         rep.Narrative,
		CapaItems:         rep.CapaItems,
	})
	if err != nil {
		return fmt.Errorf("marshal report snapshot: %w", err)
	}
	query := `
		INSERT INTO reports (
			id, site_id, report_version, generated_by_user_id, generated_by_name,
			status_at_generation, final_status, snapshot_json, hash_sha256,
			is_locked, previous_report_id, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		rep.ID, rep.SiteID, rep.ReportVersion, rep.GeneratedByUserID, rep.GeneratedByName,
		rep.StatusAtGeneration, rep.FinalStatus, payload, rep.HashSHA256,
		rep.IsLocked, rep.PreviousReportID, rep.GeneratedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrConflict
		}
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

const reportColumns = `
	id, site_id, report_version, generated_by_user_id, generated_by_name,
	status_at_generation, final_status, snapshot_json, hash_sha256,
	is_locked, previous_report_id, generated_at
`

func scanReport(row interface{ Scan(...any) error }) (report.Report, error) {
	var rep report.Report
	var payload []byte
	err := row.Scan(
		&rep.ID, &rep.SiteID, &rep.ReportVersion, &rep.GeneratedByUserID, &rep.GeneratedByName,
		&rep.StatusAtGeneration, &rep.FinalStatus, &payload, &rep.HashSHA256,
		&rep.IsLocked, &rep.PreviousReportID, &rep.GeneratedAt,
	)
	if err != nil {
		return report.Report{}, err
	}
	var snap reportSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return report.Report{}, fmt.Errorf("unmarshal report snapshot: %w", err)
	}
	rep.ScoreSnapshot = snap.ScoreSnapshot
	rep.RulesSnapshot = snap.RulesSnapshot
	rep.TemplatesSnapshot = snap.TemplatesSnapshot
	rep.MappingsSnapshot = snap.MappingsSnapshot
	rep.Narrative = snap.Narrative
	rep.CapaItems = snap.CapaItems
	return rep, nil
}

func (s *PostgresReportStore) FindByID(ctx context.Context, id uuid.UUID) (report.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report.Report{}, ErrNotFound
		}
		return report.Report{}, fmt.Errorf("find report: %w", err)
	}
	return rep, nil
}

func (s *PostgresReportStore) CountBySite(ctx context.Context, siteID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE site_id = $1`, siteID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return count, nil
}

func (s *PostgresReportStore) LatestBySite(ctx context.Context, siteID uuid.UUID) (report.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE site_id = $1 ORDER BY generated_at DESC LIMIT 1`, siteID)
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report.Report{}, ErrNotFound
		}
		return report.Report{}, fmt.Errorf("latest report: %w", err)
	}
	return rep, nil
}

func (s *PostgresReportStore) ListBySite(ctx context.Context, siteID uuid.UUID) ([]report.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE site_id = $1 ORDER BY generated_at DESC`, siteID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	var out []report.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// Acknowledge flips the lock and appends the signature in one transaction.
// The conditional UPDATE is the compare-and-swap: zero rows means another
// request locked the report first.
func (s *PostgresReportStore) Acknowledge(ctx context.Context, reportID uuid.UUID, sig report.Signature) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin acknowledge tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE reports SET is_locked = TRUE WHERE id = $1 AND is_locked = FALSE`, reportID)
	if err != nil {
		return fmt.Errorf("lock report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("lock report rows: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM reports WHERE id = $1)`, reportID).Scan(&exists); err != nil {
			return fmt.Errorf("check report exists: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_signatures (
			id, report_id, signed_by_name, signed_by_role, ip_address, user_agent, device,
			hash_at_signature, signature_method, signature_payload, signed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		sig.ID, sig.ReportID, sig.SignedByName, sig.SignedByRole, sig.IPAddress, sig.UserAgent, sig.Device,
		sig.HashAtSignature, sig.SignatureMethod, sig.SignaturePayload, sig.SignedAt,
	)
	if err != nil {
		return fmt.Errorf("save signature: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit acknowledge: %w", err)
	}
	return nil
}

func (s *PostgresReportStore) ListSignatures(ctx context.Context, reportID uuid.UUID) ([]report.Signature, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, report_id, signed_by_name, signed_by_role, ip_address, user_agent, device,
			hash_at_signature, signature_method, signature_payload, signed_at
		FROM report_signatures WHERE report_id = $1 ORDER BY signed_at
	`, reportID)
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	defer rows.Close()
	var out []report.Signature
	for rows.Next() {
		var sig report.Signature
		if err := rows.Scan(
			&sig.ID, &sig.ReportID, &sig.SignedByName, &sig.SignedByRole, &sig.IPAddress, &sig.UserAgent, &sig.Device,
			&sig.HashAtSignature, &sig.SignatureMethod, &sig.SignaturePayload, &sig.SignedAt,
		); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// PostgresRuleStore persists admin rules.
type PostgresRuleStore struct {
	db *sql.DB
}

func NewPostgresRuleStore(db *sql.DB) *PostgresRuleStore {
	return &PostgresRuleStore{db: db}
}

const ruleColumns = `
	id, domain_key, trigger_key, rule_priority, forces_minimum_status,
	blocks_approval, requires_capa, required_action_text, evidence_required_text,
	recommended_timeline_days, active, version_number
`

func (s *PostgresRuleStore) Save(ctx context.Context, rule rules.AdminRule) error {
	query := `
		INSERT INTO admin_rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			domain_key = EXCLUDED.domain_key,
			trigger_key = EXCLUDED.trigger_key,
			rule_priority = EXCLUDED.rule_priority,
			forces_minimum_status = EXCLUDED.forces_minimum_status,
			blocks_approval = EXCLUDED.blocks_approval,
			requires_capa = EXCLUDED.requires_capa,
			required_action_text = EXCLUDED.required_action_text,
			evidence_required_text = EXCLUDED.evidence_required_text,
			recommended_timeline_days = EXCLUDED.recommended_timeline_days,
			active = EXCLUDED.active,
			version_number = EXCLUDED.version_number
	`
	_, err := s.db.ExecContext(ctx, query,
		rule.ID, rule.DomainKey, rule.Trigger, rule.RulePriority, rule.ForcesMinimumStatus,
		rule.BlocksApproval, rule.RequiresCapa, rule.RequiredActionText, rule.EvidenceRequiredText,
		rule.RecommendedTimelineDays, rule.Active, rule.VersionNumber,
	)
	if err != nil {
		return fmt.Errorf("save rule: %w", err)
	}
	return nil
}

func scanRule(row interface{ Scan(...any) error }) (rules.AdminRule, error) {
	var rule rules.AdminRule
	err := row.Scan(
		&rule.ID, &rule.DomainKey, &rule.Trigger, &rule.RulePriority, &rule.ForcesMinimumStatus,
		&rule.BlocksApproval, &rule.RequiresCapa, &rule.RequiredActionText, &rule.EvidenceRequiredText,
		&rule.RecommendedTimelineDays, &rule.Active, &rule.VersionNumber,
	)
	return rule, err
}

func (s *PostgresRuleStore) FindByID(ctx context.Context, id uuid.UUID) (rules.AdminRule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM admin_rules WHERE id = $1`, id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rules.AdminRule{}, ErrNotFound
		}
		return rules.AdminRule{}, fmt.Errorf("find rule: %w", err)
	}
	return rule, nil
}

func (s *PostgresRuleStore) list(ctx context.Context, query string) ([]rules.AdminRule, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()
	var out []rules.AdminRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (s *PostgresRuleStore) List(ctx context.Context) ([]rules.AdminRule, error) {
	return s.list(ctx,
		`SELECT `+ruleColumns+` FROM admin_rules ORDER BY rule_priority DESC, id`)
}

func (s *PostgresRuleStore) ListActive(ctx context.Context) ([]rules.AdminRule, error) {
	return s.list(ctx,
		`SELECT `+ruleColumns+` FROM admin_rules WHERE active ORDER BY rule_priority DESC, id`)
}

// PostgresTemplateStore persists report templates.
type PostgresTemplateStore struct {
	db *sql.DB
}

func NewPostgresTemplateStore(db *sql.DB) *PostgresTemplateStore {
	return &PostgresTemplateStore{db: db}
}

func (s *PostgresTemplateStore) Save(ctx context.Context, tpl report.ReportTemplate) error {
	paragraphs, err := json.Marshal(tpl.DomainParagraphTemplates)
	if err != nil {
		return fmt.Errorf("marshal domain paragraphs: %w", err)
	}
	query := `
		INSERT INTO report_templates (id, status_type, executive_summary_text, reevaluation_clause_text, domain_paragraphs_json)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			status_type = EXCLUDED.status_type,
			executive_summary_text = EXCLUDED.executive_summary_text,
			reevaluation_clause_text = EXCLUDED.reevaluation_clause_text,
			domain_paragraphs_json = EXCLUDED.domain_paragraphs_json
	`
	_, err = s.db.ExecContext(ctx, query,
		tpl.ID, tpl.StatusType, tpl.ExecutiveSummaryText, tpl.ReevaluationClauseText, paragraphs)
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

func scanTemplate(row interface{ Scan(...any) error }) (report.ReportTemplate, error) {
	var tpl report.ReportTemplate
	var paragraphs []byte
	if err := row.Scan(&tpl.ID, &tpl.StatusType, &tpl.ExecutiveSummaryText, &tpl.ReevaluationClauseText, &paragraphs); err != nil {
		return report.ReportTemplate{}, err
	}
	if len(paragraphs) > 0 {
		if err := json.Unmarshal(paragraphs, &tpl.DomainParagraphTemplates); err != nil {
			return report.ReportTemplate{}, fmt.Errorf("unmarshal domain paragraphs: %w", err)
		}
	}
	return tpl, nil
}

func (s *PostgresTemplateStore) FindByID(ctx context.Context, id uuid.UUID) (report.ReportTemplate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status_type, executive_summary_text, reevaluation_clause_text, domain_paragraphs_json
		FROM report_templates WHERE id = $1
	`, id)
	tpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report.ReportTemplate{}, ErrNotFound
		}
		return report.ReportTemplate{}, fmt.Errorf("find template: %w", err)
	}
	return tpl, nil
}

func (s *PostgresTemplateStore) List(ctx context.Context) ([]report.ReportTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status_type, executive_summary_text, reevaluation_clause_text, domain_paragraphs_json
		FROM report_templates ORDER BY status_type
	`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()
	var out []report.ReportTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

// PostgresMappingStore persists score-to-label mappings.
type PostgresMappingStore struct {
	db *sql.DB
}

func NewPostgresMappingStore(db *sql.DB) *PostgresMappingStore {
	return &PostgresMappingStore{db: db}
}

func (s *PostgresMappingStore) Save(ctx context.Context, m rules.ScoreStatusMapping) error {
	query := `
		INSERT INTO score_mappings (id, min_score, max_score, status_label)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			min_score = EXCLUDED.min_score,
			max_score = EXCLUDED.max_score,
			status_label = EXCLUDED.status_label
	`
	_, err := s.db.ExecContext(ctx, query, m.ID, m.MinScore, m.MaxScore, m.StatusLabel)
	if err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	return nil
}

func (s *PostgresMappingStore) FindByID(ctx context.Context, id uuid.UUID) (rules.ScoreStatusMapping, error) {
	var m rules.ScoreStatusMapping
	err := s.db.QueryRowContext(ctx,
		`SELECT id, min_score, max_score, status_label FROM score_mappings WHERE id = $1`, id,
	).Scan(&m.ID, &m.MinScore, &m.MaxScore, &m.StatusLabel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rules.ScoreStatusMapping{}, ErrNotFound
		}
		return rules.ScoreStatusMapping{}, fmt.Errorf("find mapping: %w", err)
	}
	return m, nil
}

func (s *PostgresMappingStore) List(ctx context.Context) ([]rules.ScoreStatusMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, min_score, max_score, status_label FROM score_mappings ORDER BY min_score DESC`)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()
	var out []rules.ScoreStatusMapping
	for rows.Next() {
		var m rules.ScoreStatusMapping
		if err := rows.Scan(&m.ID, &m.MinScore, &m.MaxScore, &m.StatusLabel); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PostgresDomainStore persists evaluation domains.
type PostgresDomainStore struct {
	db *sql.DB
}

func NewPostgresDomainStore(db *sql.DB) *PostgresDomainStore {
	return &PostgresDomainStore{db: db}
}

func (s *PostgresDomainStore) Save(ctx context.Context, d rules.Domain) error {
	query := `
		INSERT INTO domains (domain_key, display_name, description, display_order, is_visible_in_report)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (domain_key) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			description = EXCLUDED.description,
			display_order = EXCLUDED.display_order,
			is_visible_in_report = EXCLUDED.is_visible_in_report
	`
	_, err := s.db.ExecContext(ctx, query,
		d.DomainKey, d.DisplayName, d.Description, d.DisplayOrder, d.IsVisibleInReport)
	if err != nil {
		return fmt.Errorf("save domain: %w", err)
	}
	return nil
}

func (s *PostgresDomainStore) List(ctx context.Context) ([]rules.Domain, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain_key, display_name, description, display_order, is_visible_in_report
		FROM domains ORDER BY display_order
	`)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()
	var out []rules.Domain
	for rows.Next() {
		var d rules.Domain
		if err := rows.Scan(&d.DomainKey, &d.DisplayName, &d.Description, &d.DisplayOrder, &d.IsVisibleInReport); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// PostgresAuditStore persists the append-only audit trail.
type PostgresAuditStore struct {
	db *sql.DB
}

func NewPostgresAuditStore(db *sql.DB) *PostgresAuditStore {
	return &PostgresAuditStore{db: db}
}

func (s *PostgresAuditStore) Append(ctx context.Context, entry audit.Entry) error {
	query := `
		INSERT INTO audit_log (
			id, entity_type, entity_id, action_type, actor_user_id, actor_name,
			ip_address, user_agent, before_state_json, after_state_json,
			is_critical_change, change_reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.EntityType, entry.EntityID, entry.ActionType, entry.ActorUserID, entry.ActorName,
		entry.IPAddress, entry.UserAgent, nullableJSON(entry.BeforeState), nullableJSON(entry.AfterState),
		entry.IsCriticalChange, entry.ChangeReason, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func scanAuditEntry(row interface{ Scan(...any) error }) (audit.Entry, error) {
	var entry audit.Entry
	var before, after []byte
	err := row.Scan(
		&entry.ID, &entry.EntityType, &entry.EntityID, &entry.ActionType, &entry.ActorUserID, &entry.ActorName,
		&entry.IPAddress, &entry.UserAgent, &before, &after,
		&entry.IsCriticalChange, &entry.ChangeReason, &entry.CreatedAt,
	)
	entry.BeforeState = before
	entry.AfterState = after
	return entry, err
}

const auditColumns = `
	id, entity_type, entity_id, action_type, actor_user_id, actor_name,
	ip_address, user_agent, before_state_json, after_state_json,
	is_critical_change, change_reason, created_at
`

func (s *PostgresAuditStore) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_log ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()
	return collectAuditEntries(rows)
}

func (s *PostgresAuditStore) ListByEntity(ctx context.Context, entityType, entityID string) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_log WHERE entity_type = $1 AND entity_id = $2 ORDER BY created_at DESC`,
		entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries by entity: %w", err)
	}
	defer rows.Close()
	return collectAuditEntries(rows)
}

func collectAuditEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var out []audit.Entry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// PostgresActivityStore persists the human-readable activity feed.
type PostgresActivityStore struct {
	db *sql.DB
}

func NewPostgresActivityStore(db *sql.DB) *PostgresActivityStore {
	return &PostgresActivityStore{db: db}
}

func (s *PostgresActivityStore) Append(ctx context.Context, activity audit.Activity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_log (id, message, actor_name, created_at) VALUES ($1, $2, $3, $4)`,
		activity.ID, activity.Message, activity.ActorName, activity.CreatedAt)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (s *PostgresActivityStore) ListRecent(ctx context.Context, limit int) ([]audit.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message, actor_name, created_at FROM activity_log ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()
	var out []audit.Activity
	for rows.Next() {
		var a audit.Activity
		if err := rows.Scan(&a.ID, &a.Message, &a.ActorName, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
