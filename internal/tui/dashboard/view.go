package dashboard

import (
	"fmt"
	"strings"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
)

const maxVisibleRows = 20

// View renders the title, a fixed-width record table, and a footer with
// refresh state and key hints.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("pipeliner dashboard  %s records", fmt.Sprint(len(m.records)))))
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString(errorBannerStyle.Render("refresh failed: "+m.lastErr.Error()) + "\n")
	}

	b.WriteString(headerRowStyle.Render(rowText(nil)) + "\n")

	if len(m.records) == 0 {
		b.WriteString(mutedRow("no pipeline records yet") + "\n")
	}

	start, end := visibleWindow(m.cursor, len(m.records), maxVisibleRows)
	for i := start; i < end; i++ {
		r := m.records[i]
		line := rowText(r)
		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render("> " + line))
		} else {
			b.WriteString("  " + statusStyle(r.PipelineStatus).Render(line))
		}
		b.WriteString("\n")
	}

	footer := fmt.Sprintf("%s  [up/down] move  [r] refresh  [q] quit", m.spinnerOrIdle())
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}

func (m Model) spinnerOrIdle() string {
	if m.refreshing {
		return m.spinner.View() + " refreshing"
	}
	if m.lastLoad.IsZero() {
		return "loading"
	}
	return "last refresh " + m.lastLoad.Format("15:04:05")
}

// rowText renders one fixed-width row. A nil record renders the header.
func rowText(r *orchestrator.PipelineRecord) string {
	if r == nil {
		return fmt.Sprintf("%-34s %-12s %-10s %-12s %8s %8s %6s",
			"pipeline_id", "target_day", "status", "phase", "source", "target", "retry")
	}
	return fmt.Sprintf("%-34s %-12s %-10s %-12s %8d %8d %6d",
		r.PipelineID,
		r.TargetDay.Format("2006-01-02"),
		string(r.PipelineStatus),
		string(r.CompletedPhase),
		r.SourceCount,
		r.TargetCount,
		r.RetryAttempt,
	)
}

func mutedRow(s string) string {
	return "  " + s
}

// visibleWindow returns the [start,end) slice bounds that keep cursor
// visible within a page of at most maxRows records.
func visibleWindow(cursor, total, maxRows int) (int, int) {
	if total <= maxRows {
		return 0, total
	}
	start := cursor - maxRows/2
	if start < 0 {
		start = 0
	}
	end := start + maxRows
	if end > total {
		end = total
		start = end - maxRows
	}
	return start, end
}
