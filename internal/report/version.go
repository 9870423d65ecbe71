package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Version builds the report version string
// REPORT-<SITE8>-<YYYYMMDD>-v<N>, where N is one past the number of reports
// the site already has. Versions are monotonically increasing per site and
// never reused.
func Version(siteID uuid.UUID, generatedAt time.Time, priorCount int) string {
	site8 := strings.ToUpper(siteID.String()[:8])
	return fmt.Sprintf("REPORT-%s-%s-v%d", site8, generatedAt.UTC().Format("20060102"), priorCount+1)
}
