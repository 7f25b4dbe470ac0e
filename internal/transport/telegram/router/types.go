package router

import (
	"context"
	"time"

	"timecardbot/internal/reminder"
	"timecardbot/internal/storage"
	kit "timecardbot/internal/transport"
	logx "timecardbot/pkg/logx"
)

type Access int

const (
	AccessEveryone Access = iota
	AccessOwnerOnly
)

type HandlerFunc func(ctx context.Context, req *Request) error

type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Access      Access
	Timeout     time.Duration // optional per-command override
	// Audit appends the invocation to the audit log.
	Audit  bool
	Handle HandlerFunc
}

type Request struct {
	Update  kit.Update
	Chat    kit.ChatTarget
	FromID  int64
	From    string
	Command string
	Args    []string
	ReqID   string

	Sender kit.Sender
	Logger logx.Logger
}

// Reply sends text back to the chat the request came from.
func (r *Request) Reply(ctx context.Context, text string) error {
	_, err := r.Sender.SendText(ctx, r.Chat, text, &kit.SendOptions{DisablePreview: true})
	return err
}

// ChannelID is the reminder channel id of the request's chat.
func (r *Request) ChannelID() string { return r.Chat.String() }

// Reminders is the control surface of the reminder scheduler.
type Reminders interface {
	AddChannel(id string) bool
	RemoveChannel(id string) bool
	MarkDone(id string) bool
	SetTimes(entries []string) error
	Pause()
	Resume()
	Paused() bool
	ResetScheduler() bool
	ListChannels() string
	ListTimes() string
	Status() reminder.Status
}

// Auditor records operator actions.
type Auditor interface {
	AppendAudit(ctx context.Context, e storage.AuditEntry) error
}
