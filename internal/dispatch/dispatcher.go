// Package dispatch routes inbound messages to exactly one handling rule and
// drives the guided report workflow.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/adelyanov/vigil/internal/domain"
	"github.com/adelyanov/vigil/internal/identifier"
	"github.com/adelyanov/vigil/internal/report"
	"github.com/adelyanov/vigil/internal/session"
	"github.com/adelyanov/vigil/internal/store"
)

// Inbound is one message handed to the dispatcher by the ingress layer.
type Inbound struct {
	ChatID      int64
	SenderID    int64
	SenderLabel string
	Text        string
}

// Replier delivers rendered text back to a chat.
type Replier interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int64, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string) error
}

// Resolver classifies the reachability of a canonical identifier.
type Resolver interface {
	Resolve(ctx context.Context, canonical string) domain.StatusOutcome
}

// ActivitySink receives dispatch events for the operator feed.
type ActivitySink interface {
	Publish(kind, detail string)
}

const (
	helpText = "I keep an eye on public channels, bots and users.\n\n" +
		"/check <link|@name|name> — probe an entity's current status\n" +
		"/report — file a complaint step by step\n" +
		"/report <target> <reason> — file a complaint in one message\n" +
		"/watch <target> — notify this chat when the entity's status changes\n" +
		"/unwatch <target> — stop watching\n" +
		"/watchlist — list watched entities\n" +
		"/cancel — abort an in-progress report"

	promptLink     = "Which entity do you want to report? Send a t.me link, an @name, or a bare name."
	promptReason   = "Got it. Now describe the problem in one message."
	rePromptLink   = "That doesn't look like a link, @name, or bare name. Try again, or /cancel."
	rePromptReason = "The reason can't be empty. Describe the problem, or /cancel."

	reportSentText    = "Thanks — your complaint has been passed on."
	reportFailedText  = "I couldn't deliver your complaint right now. The report was discarded; please try again later."
	noReportChatText  = "Reporting isn't configured on this instance, so I had to discard your complaint."
	cancelledText     = "Cancelled. Nothing was sent."
	nothingToCancel   = "There's nothing to cancel."
	fallbackText      = "I didn't catch that. Send /help to see what I can do."
	checkUsageText    = "Usage: /check <link|@name|name>"
	watchUsageText    = "Usage: /watch <link|@name|name>"
	unwatchUsageText  = "Usage: /unwatch <link|@name|name>"
	checkingText      = "Checking…"
	watchFailedText   = "Couldn't save that watch. Please try again later."
	unwatchFailedText = "Couldn't remove that watch. Please try again later."
	emptyWatchlist    = "This chat isn't watching anything yet. Add one with /watch <target>."
)

// Upper bound on one probe plus its result edit. The resolver applies its own
// tighter timeout to the probe itself.
const probeReplyTimeout = 30 * time.Second

// Dispatcher routes one inbound message to exactly one rule, first match
// wins. Recognized commands always beat session continuation.
type Dispatcher struct {
	sessions     *session.Store
	resolver     Resolver
	replier      Replier
	watches      store.Repository
	activity     ActivitySink
	reportChatID int64
	botUsername  string

	rules []rule

	// Tracks in-flight status probes so shutdown can wait for their edits.
	probes sync.WaitGroup
}

type rule struct {
	name   string
	match  func(cmd command, in Inbound) bool
	handle func(ctx context.Context, cmd command, in Inbound)
}

// New creates a dispatcher. reportChatID may be zero, in which case report
// completion degrades to an explanatory reply.
func New(sessions *session.Store, resolver Resolver, replier Replier, watches store.Repository, activity ActivitySink, reportChatID int64) *Dispatcher {
	d := &Dispatcher{
		sessions:     sessions,
		resolver:     resolver,
		replier:      replier,
		watches:      watches,
		activity:     activity,
		reportChatID: reportChatID,
	}

	// Evaluated in order, first match wins. Explicit commands sit above the
	// continuation rule so an active session never swallows them.
	d.rules = []rule{
		{"help", matchCmd("start", "help"), d.handleHelp},
		{"check", matchCmd("check"), d.handleCheck},
		{"report", matchCmd("report"), d.handleReport},
		{"cancel", matchCmd("cancel"), d.handleCancel},
		{"watch", matchCmd("watch"), d.handleWatch},
		{"unwatch", matchCmd("unwatch"), d.handleUnwatch},
		{"watchlist", matchCmd("watchlist"), d.handleWatchlist},
		{"continuation", d.matchContinuation, d.handleContinuation},
		{"fallback", func(command, Inbound) bool { return true }, d.handleFallback},
	}

	return d
}

// SetBotUsername lets the dispatcher recognize the "/cmd@botname" form used
// in group chats.
func (d *Dispatcher) SetBotUsername(username string) {
	d.botUsername = strings.ToLower(strings.TrimPrefix(username, "@"))
}

// Wait blocks until all in-flight probe goroutines have delivered their
// result edits. Called during graceful shutdown.
func (d *Dispatcher) Wait() {
	d.probes.Wait()
}

// Handle routes one inbound message. It never panics outward and never
// returns an error: every failure degrades to a reply or a log line.
func (d *Dispatcher) Handle(ctx context.Context, in Inbound) {
	cmd := d.parseCommand(in.Text)

	for _, r := range d.rules {
		if !r.match(cmd, in) {
			continue
		}
		slog.Debug("Dispatching message", "rule", r.name, "sender_id", in.SenderID, "chat_id", in.ChatID)
		r.handle(ctx, cmd, in)
		if d.activity != nil && r.name != "fallback" {
			d.activity.Publish(r.name, fmt.Sprintf("sender %d in chat %d", in.SenderID, in.ChatID))
		}
		return
	}
}

// command is a parsed slash command; Name is empty for free text.
type command struct {
	Name string
	Args string
}

func (d *Dispatcher) parseCommand(text string) command {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return command{}
	}

	name, args, _ := strings.Cut(text[1:], " ")
	// Group chats address commands as /cmd@botname.
	if base, mention, ok := strings.Cut(name, "@"); ok {
		if d.botUsername != "" && !strings.EqualFold(mention, d.botUsername) {
			// Command addressed to some other bot; not ours.
			return command{}
		}
		name = base
	}

	return command{
		Name: strings.ToLower(name),
		Args: strings.TrimSpace(args),
	}
}

func matchCmd(names ...string) func(command, Inbound) bool {
	return func(cmd command, _ Inbound) bool {
		for _, n := range names {
			if cmd.Name == n {
				return true
			}
		}
		return false
	}
}

func (d *Dispatcher) matchContinuation(cmd command, in Inbound) bool {
	if cmd.Name != "" {
		return false
	}
	_, ok := d.sessions.Get(in.SenderID)
	return ok
}

func (d *Dispatcher) handleHelp(ctx context.Context, _ command, in Inbound) {
	d.reply(ctx, in.ChatID, helpText)
}

func (d *Dispatcher) handleCheck(ctx context.Context, cmd command, in Inbound) {
	canonical, ok := identifier.Normalize(cmd.Args)
	if !ok {
		d.reply(ctx, in.ChatID, checkUsageText)
		return
	}

	// Reply immediately so the user sees progress, then probe off the event
	// loop and edit the placeholder with the result. One user's slow probe
	// must never delay another user's command.
	placeholderID, err := d.replier.SendMessage(ctx, in.ChatID, checkingText)
	if err != nil {
		slog.Warn("Failed to send check placeholder", "error", err, "chat_id", in.ChatID)
		return
	}

	d.probes.Add(1)
	go func() {
		defer d.probes.Done()
		// Detached from the inbound request context: the probe outlives the
		// webhook request that triggered it. Bounded so a stalled edit call
		// can't hang Wait() at shutdown.
		probeCtx, cancel := context.WithTimeout(context.Background(), probeReplyTimeout)
		defer cancel()
		outcome := d.resolver.Resolve(probeCtx, canonical)

		if err := d.replier.EditMessageText(probeCtx, in.ChatID, placeholderID, RenderOutcome(outcome)); err != nil {
			slog.Warn("Failed to edit check placeholder", "error", err, "chat_id", in.ChatID)
		}
		if d.activity != nil {
			d.activity.Publish("status", fmt.Sprintf("%s → %s", outcome.Subject, outcome.Category))
		}
	}()
}

func (d *Dispatcher) handleReport(ctx context.Context, cmd command, in Inbound) {
	if cmd.Args == "" {
		// Guided flow. Start replaces any prior session for this sender.
		d.sessions.Start(in.SenderID)
		d.reply(ctx, in.ChatID, promptLink)
		return
	}

	// One-shot: /report <target> <reason...>, bypassing the session.
	target, reason, _ := strings.Cut(cmd.Args, " ")
	canonical, ok := identifier.Normalize(target)
	reason = strings.TrimSpace(reason)
	if !ok || reason == "" {
		d.reply(ctx, in.ChatID, "Usage: /report <target> <reason>, or bare /report for the guided flow.")
		return
	}

	d.deliverReport(ctx, in, domain.Report{
		TargetChat:    d.reportChatID,
		TargetLink:    canonical,
		Reason:        reason,
		ReporterLabel: in.SenderLabel,
	})
}

func (d *Dispatcher) handleCancel(ctx context.Context, _ command, in Inbound) {
	if _, ok := d.sessions.Get(in.SenderID); !ok {
		d.reply(ctx, in.ChatID, nothingToCancel)
		return
	}
	d.sessions.End(in.SenderID)
	d.reply(ctx, in.ChatID, cancelledText)
}

func (d *Dispatcher) handleContinuation(ctx context.Context, _ command, in Inbound) {
	sess, ok := d.sessions.Get(in.SenderID)
	if !ok {
		// Session vanished between match and handle (swept, or ended by a
		// concurrent worker). Treat as no-session free text.
		d.handleFallback(ctx, command{}, in)
		return
	}

	switch sess.Step {
	case domain.StepAwaitingLink:
		canonical, valid := identifier.Normalize(in.Text)
		if !valid {
			// No partial mutation on invalid input.
			d.reply(ctx, in.ChatID, rePromptLink)
			return
		}
		d.sessions.Update(in.SenderID, func(s *domain.Session) {
			s.TargetLink = canonical
			s.Step = domain.StepAwaitingReason
		})
		d.reply(ctx, in.ChatID, promptReason)

	case domain.StepAwaitingReason:
		reason := strings.TrimSpace(in.Text)
		if reason == "" {
			d.reply(ctx, in.ChatID, rePromptReason)
			return
		}
		// Reporter label is captured at report time, not session start.
		d.deliverReport(ctx, in, domain.Report{
			TargetChat:    d.reportChatID,
			TargetLink:    sess.TargetLink,
			Reason:        reason,
			ReporterLabel: in.SenderLabel,
		})
		d.sessions.End(in.SenderID)

	default:
		slog.Warn("Session in unexpected step, ending defensively", "sender_id", in.SenderID, "step", sess.Step)
		d.sessions.End(in.SenderID)
		d.reply(ctx, in.ChatID, fallbackText)
	}
}

func (d *Dispatcher) handleFallback(ctx context.Context, _ command, in Inbound) {
	d.reply(ctx, in.ChatID, fallbackText)
}

func (d *Dispatcher) handleWatch(ctx context.Context, cmd command, in Inbound) {
	canonical, ok := identifier.Normalize(cmd.Args)
	if !ok {
		d.reply(ctx, in.ChatID, watchUsageText)
		return
	}

	watch := &domain.Watch{
		ChatID:       in.ChatID,
		Target:       canonical,
		LastCategory: domain.CategoryUnknown,
		CreatedAt:    time.Now(),
	}
	if err := d.watches.UpsertWatch(ctx, watch); err != nil {
		slog.Error("Failed to upsert watch", "error", err, "chat_id", in.ChatID, "target", canonical)
		d.reply(ctx, in.ChatID, watchFailedText)
		return
	}
	d.reply(ctx, in.ChatID, fmt.Sprintf("Watching %s. I'll tell this chat when its status changes.", canonical))
}

func (d *Dispatcher) handleUnwatch(ctx context.Context, cmd command, in Inbound) {
	canonical, ok := identifier.Normalize(cmd.Args)
	if !ok {
		d.reply(ctx, in.ChatID, unwatchUsageText)
		return
	}

	removed, err := d.watches.DeleteWatch(ctx, in.ChatID, canonical)
	if err != nil {
		slog.Error("Failed to delete watch", "error", err, "chat_id", in.ChatID, "target", canonical)
		d.reply(ctx, in.ChatID, unwatchFailedText)
		return
	}
	if !removed {
		d.reply(ctx, in.ChatID, fmt.Sprintf("This chat wasn't watching %s.", canonical))
		return
	}
	d.reply(ctx, in.ChatID, fmt.Sprintf("Stopped watching %s.", canonical))
}

func (d *Dispatcher) handleWatchlist(ctx context.Context, _ command, in Inbound) {
	watches, err := d.watches.ListByChat(ctx, in.ChatID)
	if err != nil {
		slog.Error("Failed to list watches", "error", err, "chat_id", in.ChatID)
		d.reply(ctx, in.ChatID, "Couldn't load the watch list. Please try again later.")
		return
	}
	if len(watches) == 0 {
		d.reply(ctx, in.ChatID, emptyWatchlist)
		return
	}

	var b strings.Builder
	b.WriteString("Watched entities:\n")
	for _, w := range watches {
		fmt.Fprintf(&b, "%s — %s", w.Target, categoryLabel(w.LastCategory))
		if !w.CheckedAt.IsZero() && w.CheckedAt.Unix() > 0 {
			fmt.Fprintf(&b, " (checked %s)", w.CheckedAt.Format("2006-01-02 15:04"))
		}
		b.WriteString("\n")
	}
	d.reply(ctx, in.ChatID, strings.TrimRight(b.String(), "\n"))
}

// deliverReport composes and sends a report, degrading to an explanatory
// reply when delivery is impossible. The caller is responsible for ending
// any session; delivery failure must not leave a half-completed workflow.
func (d *Dispatcher) deliverReport(ctx context.Context, in Inbound, r domain.Report) {
	if d.reportChatID == 0 {
		slog.Warn("Report discarded: no report chat configured", "sender_id", in.SenderID)
		d.reply(ctx, in.ChatID, noReportChatText)
		return
	}

	text := report.Compose(r)
	if _, err := d.replier.SendMessage(ctx, d.reportChatID, text); err != nil {
		slog.Error("Failed to deliver report", "error", err, "target", r.TargetLink)
		d.reply(ctx, in.ChatID, reportFailedText)
		return
	}

	d.reply(ctx, in.ChatID, reportSentText)
	if d.activity != nil {
		d.activity.Publish("report", fmt.Sprintf("complaint against %s filed", r.TargetLink))
	}
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string) {
	if _, err := d.replier.SendMessage(ctx, chatID, text); err != nil {
		slog.Warn("Failed to send reply", "error", err, "chat_id", chatID)
	}
}

// RenderOutcome turns a status outcome into the user-facing reply text.
func RenderOutcome(o domain.StatusOutcome) string {
	return fmt.Sprintf("%s: %s\n%s", o.Subject, categoryLabel(o.Category), o.Detail)
}

func categoryLabel(c domain.Category) string {
	switch c {
	case domain.CategoryLive:
		return "live"
	case domain.CategoryRestricted:
		return "restricted"
	case domain.CategoryNotFound:
		return "not found"
	case domain.CategoryTransientError:
		return "check failed, try again"
	default:
		return "unknown"
	}
}
