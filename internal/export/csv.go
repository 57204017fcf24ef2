// Package export renders a user's task list as a CSV document for the
// /export command.
package export

import (
	"fmt"
	"strings"

	"taskbot/internal/models"
)

// Header is the fixed CSV header row.
const Header = "ID,Name,Status,Deadline"

// Filename returns the per-user export file name.
func Filename(ownerID int64) string {
	return fmt.Sprintf("%d_tasks.csv", ownerID)
}

// Build renders tasks as CSV. Rows are plain comma-joined values: embedded
// commas in task names are not quoted or escaped. Known limitation, kept for
// compatibility with existing consumers of the export format.
func Build(tasks []*models.Task) []byte {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	for _, t := range tasks {
		fmt.Fprintf(&b, "%d,%s,%s,%s\n", t.ID, t.Name, t.Status, t.DeadlineString())
	}
	return []byte(b.String())
}
