package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"acredita/internal/rules"
)

// Digest is the hashed subset of a report. Field order is fixed by the
// struct; map keys are sorted by encoding/json, so the encoding is canonical
// and the hash is reproducible from a stored report alone.
type Digest struct {
	ReportVersion string            `json:"reportVersion"`
	SiteID        string            `json:"siteId"`
	FinalStatus   rules.FinalStatus `json:"finalStatus"`
	ScoreSnapshot ScoreSnapshot     `json:"scoreSnapshot"`
	CapaItems     []rules.CapaItem  `json:"capaItems"`
	GeneratedAt   string            `json:"generatedAt"`
}

// Digest extracts the hashed fields. GeneratedAt is normalized to UTC
// RFC3339Nano so the hash does not depend on the server time zone.
func (r *Report) Digest() Digest {
	return Digest{
		ReportVersion: r.ReportVersion,
		SiteID:        r.SiteID.String(),
		FinalStatus:   r.FinalStatus,
		ScoreSnapshot: r.ScoreSnapshot,
		CapaItems:     r.CapaItems,
		GeneratedAt:   r.GeneratedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ComputeHash returns the hex SHA-256 over the canonical JSON encoding of the
// digest. The hash is the report's identity for verification purposes.
func ComputeHash(d Digest) (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal report digest: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
