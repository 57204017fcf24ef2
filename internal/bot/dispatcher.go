package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	"taskbot/internal/database"
	"taskbot/internal/models"
)

const (
	replyRateLimited = "Too many messages, slow down a little."
	replyCancelled   = "Cancelled."
	replyNoSession   = "Nothing to cancel."
	replyIdleHint    = "Use /add to create a task, or /help for the command list."
	replyUnknownCmd  = "Unknown command. Use /help for the command list."
)

// Dispatcher routes inbound chat messages to either the active conversation
// session or a stateless command handler, and sends the replies.
type Dispatcher struct {
	tasks     database.TaskRepositoryInterface
	sessions  *SessionRegistry
	conv      *Conversation
	transport Transport
	limiter   *limiter.Limiter
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher. The rate limiter may be nil, in which
// case no per-user limit is applied.
func NewDispatcher(
	tasks database.TaskRepositoryInterface,
	sessions *SessionRegistry,
	conv *Conversation,
	transport Transport,
	lim *limiter.Limiter,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		tasks:     tasks,
		sessions:  sessions,
		conv:      conv,
		transport: transport,
		limiter:   lim,
		logger:    logger,
	}
}

// HandleMessage processes one inbound message from a user. All transitions
// for a single user run synchronously here; different users are independent.
func (d *Dispatcher) HandleMessage(ctx context.Context, userID, chatID int64, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if !d.allowed(ctx, userID) {
		d.send(chatID, replyRateLimited)
		return
	}

	cmd, args := parseCommand(text)

	// Cancel works from any state and discards the draft
	if cmd == "cancel" {
		if _, ok := d.sessions.Get(userID); ok {
			d.sessions.Clear(userID)
			d.send(chatID, replyCancelled)
		} else {
			d.send(chatID, replyNoSession)
		}
		return
	}

	// An active session consumes everything else, including /skip
	if sess, ok := d.sessions.Get(userID); ok {
		d.sendAll(chatID, d.conv.HandleText(ctx, sess, text))
		return
	}

	switch cmd {
	case "":
		d.send(chatID, replyIdleHint)
	case "start":
		d.cmdStart(chatID)
	case "help":
		d.send(chatID, helpText)
	case "add":
		d.sessions.Open(userID, chatID, models.StateAwaitingName)
		d.send(chatID, promptName)
	case "list":
		d.cmdList(ctx, userID, chatID)
	case "active":
		d.cmdActive(ctx, userID, chatID)
	case "completed":
		d.cmdCompleted(ctx, userID, chatID)
	case "due":
		d.cmdDue(ctx, userID, chatID)
	case "delete":
		sess := d.sessions.Open(userID, chatID, models.StateAwaitingDeleteIDs)
		if args == "" {
			d.send(chatID, promptDeleteIDs)
			return
		}
		// Inline ids go straight through the same delete flow
		d.sendAll(chatID, d.conv.HandleText(ctx, sess, args))
	case "clear":
		d.cmdClear(ctx, userID, chatID)
	case "export":
		d.cmdExport(ctx, userID, chatID)
	default:
		d.send(chatID, replyUnknownCmd)
	}
}

// allowed applies the per-user rate limit. Limiter errors fail open so a
// Redis outage never silences the bot.
func (d *Dispatcher) allowed(ctx context.Context, userID int64) bool {
	if d.limiter == nil {
		return true
	}

	lctx, err := d.limiter.Get(ctx, strconv.FormatInt(userID, 10))
	if err != nil {
		d.logger.Warn("rate_limit_check_failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return true
	}
	return !lctx.Reached
}

func (d *Dispatcher) send(chatID int64, text string) {
	if err := d.transport.SendMessage(chatID, text); err != nil {
		d.logger.Error("delivery_failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) sendAll(chatID int64, replies []string) {
	for _, reply := range replies {
		d.send(chatID, reply)
	}
}

// parseCommand splits "/name args" into a lower-case command name and its
// argument string. Non-command text returns an empty name. A "@botname"
// suffix on the command is stripped, as Telegram appends it in groups.
func parseCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}

	fields := strings.Fields(text)
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return name, strings.Join(fields[1:], " ")
}
