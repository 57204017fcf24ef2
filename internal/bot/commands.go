package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskbot/internal/export"
	"taskbot/internal/models"
)

const helpText = `Available commands:
/add — add a task
/list — show all tasks
/active — active tasks
/completed — completed tasks
/due — tasks with a deadline
/delete [id ...] — delete tasks
/clear — delete all tasks
/export — download CSV
/cancel — abort the current flow`

var startKeyboard = [][]string{
	{"/add"},
	{"/list"},
	{"/delete"},
	{"/help"},
}

func (d *Dispatcher) cmdStart(chatID int64) {
	text := "Hi! I keep track of your tasks and remind you about deadlines. Use /help for the command list."
	if err := d.transport.SendKeyboard(chatID, text, startKeyboard); err != nil {
		d.logger.Error("delivery_failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) cmdList(ctx context.Context, userID, chatID int64) {
	tasks, err := d.tasks.ListByOwner(ctx, userID, nil)
	if err != nil {
		d.storeFailure(chatID, "list_failed", userID, err)
		return
	}
	if len(tasks) == 0 {
		d.send(chatID, "You have no tasks.")
		return
	}

	var b strings.Builder
	b.WriteString("Your tasks:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "• %s (%d) [%s]\n   Deadline: %s\n", t.Name, t.ID, t.Status, t.HumanDeadline())
	}
	d.send(chatID, b.String())
}

func (d *Dispatcher) cmdActive(ctx context.Context, userID, chatID int64) {
	status := models.TaskStatusPending
	tasks, err := d.tasks.ListByOwner(ctx, userID, &status)
	if err != nil {
		d.storeFailure(chatID, "active_failed", userID, err)
		return
	}
	if len(tasks) == 0 {
		d.send(chatID, "No active tasks.")
		return
	}

	var b strings.Builder
	b.WriteString("Active tasks:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "• %s (deadline: %s)\n", t.Name, t.HumanDeadline())
	}
	d.send(chatID, b.String())
}

func (d *Dispatcher) cmdCompleted(ctx context.Context, userID, chatID int64) {
	status := models.TaskStatusDone
	tasks, err := d.tasks.ListByOwner(ctx, userID, &status)
	if err != nil {
		d.storeFailure(chatID, "completed_failed", userID, err)
		return
	}
	if len(tasks) == 0 {
		d.send(chatID, "No completed tasks.")
		return
	}

	var b strings.Builder
	b.WriteString("Completed tasks:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "• %s\n", t.Name)
	}
	d.send(chatID, b.String())
}

func (d *Dispatcher) cmdDue(ctx context.Context, userID, chatID int64) {
	tasks, err := d.tasks.ListByOwner(ctx, userID, nil)
	if err != nil {
		d.storeFailure(chatID, "due_failed", userID, err)
		return
	}

	now := time.Now()
	var b strings.Builder
	count := 0
	for _, t := range tasks {
		days, ok := t.DaysUntilDeadline(now)
		if !ok {
			continue
		}
		count++
		switch {
		case days < 0:
			fmt.Fprintf(&b, "• %s (overdue by %d day(s))\n", t.Name, -days)
		case days == 0:
			fmt.Fprintf(&b, "• %s (due today)\n", t.Name)
		default:
			fmt.Fprintf(&b, "• %s (%d day(s) left)\n", t.Name, days)
		}
	}

	if count == 0 {
		d.send(chatID, "No tasks with a deadline.")
		return
	}
	d.send(chatID, "Tasks with a deadline:\n"+b.String())
}

func (d *Dispatcher) cmdClear(ctx context.Context, userID, chatID int64) {
	n, err := d.tasks.DeleteAll(ctx, userID)
	if err != nil {
		d.storeFailure(chatID, "clear_failed", userID, err)
		return
	}
	d.send(chatID, fmt.Sprintf("Deleted %d task(s).", n))
}

func (d *Dispatcher) cmdExport(ctx context.Context, userID, chatID int64) {
	tasks, err := d.tasks.ListByOwner(ctx, userID, nil)
	if err != nil {
		d.storeFailure(chatID, "export_failed", userID, err)
		return
	}
	if len(tasks) == 0 {
		d.send(chatID, "No tasks to export.")
		return
	}

	data := export.Build(tasks)
	if err := d.transport.SendDocument(chatID, export.Filename(userID), data); err != nil {
		d.logger.Error("export_delivery_failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		d.send(chatID, replyStoreFailure)
	}
}

// storeFailure logs a store error and sends the generic failure reply. Store
// errors are fatal for the current operation only; the session machinery and
// other users are unaffected.
func (d *Dispatcher) storeFailure(chatID int64, msg string, userID int64, err error) {
	d.logger.Error(msg,
		zap.Int64("user_id", userID),
		zap.Error(err),
	)
	d.send(chatID, replyStoreFailure)
}
