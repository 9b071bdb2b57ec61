package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdg-garage/workshop-booking-api/internal/models"
	"gorm.io/datatypes"
)

type Report struct {
	RunID      string               `json:"run_id"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	DryRun     bool                 `json:"dry_run"`
	Checked    int                  `json:"checked"`
	Changes    []models.AuditChange `json:"changes"`
}

// Record converts the report into the row stored in audit_runs.
func (r *Report) Record() models.AuditRun {
	return models.AuditRun{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DryRun:     r.DryRun,
		Changes:    datatypes.JSONSlice[models.AuditChange](r.Changes),
	}
}

func (r *Report) String() string {
	var sb strings.Builder

	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(&sb, "Consistency audit %s%s\n", r.RunID, mode)
	fmt.Fprintf(&sb, "Started:  %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Finished: %s\n", r.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Bookings checked: %d\n", r.Checked)

	if len(r.Changes) == 0 {
		sb.WriteString("No changes.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Changes (%d):\n", len(r.Changes))
	for _, c := range r.Changes {
		fmt.Fprintf(&sb, "  #%d %s / %s: %s -> %s (%s)\n", c.BookingID, c.ChildName, c.WorkshopName, c.From, c.To, c.Reason)
	}
	return sb.String()
}
