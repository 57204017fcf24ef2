package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"taskbot/internal/database"
	"taskbot/internal/models"
	"taskbot/internal/validation"
)

const (
	promptName        = "Task name:"
	promptDescription = "Description (or /skip):"
	promptDeadline    = "Deadline (YYYY-MM-DD) or /skip:"
	promptDeleteIDs   = "Send task ids separated by spaces."
	replyEmptyName    = "Task name must not be empty. " + promptName
	replyBadDate      = "That is not a valid date. Use YYYY-MM-DD or /skip."
	replyBadIDs       = "Send task ids separated by spaces, or /cancel."
	replyStoreFailure = "Something went wrong, please try again later."

	// skipCommand opts out of an optional field inside the add flow
	skipCommand = "/skip"
)

// Conversation advances a user's session through the multi-turn add and
// delete flows. A draft is only written to the store once the deadline step
// resolves, so a crash mid-flow loses the session, never a half-written task.
type Conversation struct {
	tasks    database.TaskRepositoryInterface
	sessions *SessionRegistry
	logger   *zap.Logger
}

// NewConversation creates a conversation handler
func NewConversation(tasks database.TaskRepositoryInterface, sessions *SessionRegistry, logger *zap.Logger) *Conversation {
	return &Conversation{
		tasks:    tasks,
		sessions: sessions,
		logger:   logger,
	}
}

// HandleText processes one inbound message for an active session and returns
// the replies to send. Invalid input re-prompts and keeps the state.
func (c *Conversation) HandleText(ctx context.Context, sess *models.Session, text string) []string {
	c.sessions.Touch(sess.UserID)

	switch sess.State {
	case models.StateAwaitingName:
		return c.handleName(sess, text)
	case models.StateAwaitingDescription:
		return c.handleDescription(sess, text)
	case models.StateAwaitingDeadline:
		return c.handleDeadline(ctx, sess, text)
	case models.StateAwaitingDeleteIDs:
		return c.handleDeleteIDs(ctx, sess, text)
	default:
		c.logger.Warn("unknown_session_state",
			zap.Int64("user_id", sess.UserID),
			zap.String("state", string(sess.State)),
		)
		c.sessions.Clear(sess.UserID)
		return nil
	}
}

func (c *Conversation) handleName(sess *models.Session, text string) []string {
	name := validation.SanitizeText(text)
	if name == "" || name == skipCommand {
		return []string{replyEmptyName}
	}

	sess.Draft.Name = name
	sess.State = models.StateAwaitingDescription
	return []string{promptDescription}
}

func (c *Conversation) handleDescription(sess *models.Session, text string) []string {
	if strings.TrimSpace(text) != skipCommand {
		sess.Draft.Description = validation.SanitizeText(text)
	}
	sess.State = models.StateAwaitingDeadline
	return []string{promptDeadline}
}

func (c *Conversation) handleDeadline(ctx context.Context, sess *models.Session, text string) []string {
	text = strings.TrimSpace(text)

	if text != skipCommand {
		deadline, err := models.ParseDeadline(text)
		if err != nil {
			return []string{replyBadDate}
		}
		sess.Draft.Deadline = &deadline
	}

	return c.commitDraft(ctx, sess)
}

// commitDraft writes the finished draft to the store and closes the session
func (c *Conversation) commitDraft(ctx context.Context, sess *models.Session) []string {
	if err := validation.Validate.Struct(sess.Draft); err != nil {
		// The name step guarantees a non-empty draft; reaching this means a bug
		c.logger.Error("draft_validation_failed",
			zap.Int64("user_id", sess.UserID),
			zap.Error(err),
		)
		c.sessions.Clear(sess.UserID)
		return []string{replyStoreFailure}
	}

	task := &models.Task{
		OwnerID:     sess.UserID,
		Name:        sess.Draft.Name,
		Description: sess.Draft.Description,
		Status:      models.TaskStatusPending,
		Deadline:    sess.Draft.Deadline,
	}

	if err := c.tasks.Create(ctx, task); err != nil {
		c.logger.Error("task_create_failed",
			zap.Int64("user_id", sess.UserID),
			zap.Error(err),
		)
		c.sessions.Clear(sess.UserID)
		return []string{replyStoreFailure}
	}

	c.sessions.Clear(sess.UserID)
	return []string{fmt.Sprintf("Task '%s' added (id %d).", task.Name, task.ID)}
}

func (c *Conversation) handleDeleteIDs(ctx context.Context, sess *models.Session, text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return []string{replyBadIDs}
	}

	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return []string{replyBadIDs}
		}
		ids = append(ids, id)
	}

	replies := make([]string, 0, len(ids))
	for _, id := range ids {
		// Delete is idempotent and owner-scoped: ids that do not exist or
		// belong to someone else are a soft no-op
		if err := c.tasks.Delete(ctx, sess.UserID, id); err != nil {
			c.logger.Error("task_delete_failed",
				zap.Int64("user_id", sess.UserID),
				zap.Int64("task_id", id),
				zap.Error(err),
			)
			replies = append(replies, fmt.Sprintf("Could not delete task %d.", id))
			continue
		}
		replies = append(replies, fmt.Sprintf("Task %d deleted.", id))
	}

	c.sessions.Clear(sess.UserID)
	return replies
}
