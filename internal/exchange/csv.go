package exchange

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/starford/taskflow/internal/models"
)

// CSVHeader lists the report columns in order.
var CSVHeader = []string{
	"List", "Title", "Description", "Priority", "Status", "Due Date",
	"Created At", "Updated At", "Estimated Time", "Actual Time", "Tags", "Assignee",
}

// WriteCSV writes one row per task. When there are no tasks only the
// header is written.
func WriteCSV(w io.Writer, lists []models.List) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, l := range lists {
		for _, t := range l.Tasks {
			if err := cw.Write(taskRow(l.Title, t)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func taskRow(list string, t models.Task) []string {
	status := "Active"
	if t.Completed {
		status = "Completed"
	}
	due := ""
	if t.DueDate != nil {
		due = formatDate(*t.DueDate)
	}
	return []string{
		list,
		t.Title,
		t.Description,
		string(t.Priority),
		status,
		due,
		formatDate(t.CreatedAt),
		formatDate(t.UpdatedAt),
		minutes(t.EstimatedTime),
		minutes(t.ActualTime),
		strings.Join(t.Tags, ", "),
		t.Assignee,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func minutes(m *int) string {
	if m == nil || *m == 0 {
		return ""
	}
	return fmt.Sprintf("%d min", *m)
}
