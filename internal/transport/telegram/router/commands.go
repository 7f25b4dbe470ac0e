package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	kit "timecardbot/internal/transport"
)

var errUsage = errors.New("usage")

func (m *CommandManager) reminderCommands() []Command {
	return []Command{
		{
			Name:        "start",
			Description: "get time card reminders in this chat",
			Usage:       "/start",
			Access:      AccessEveryone,
			Handle: func(ctx context.Context, req *Request) error {
				if !m.rem.AddChannel(req.ChannelID()) {
					return req.Reply(ctx, "This chat is already getting reminders.")
				}
				return req.Reply(ctx, "You've got it! I'll make sure you don't forget. 👍")
			},
		},
		{
			Name:        "stop",
			Description: "stop reminders in this chat",
			Usage:       "/stop",
			Access:      AccessEveryone,
			Handle: func(ctx context.Context, req *Request) error {
				if !m.rem.RemoveChannel(req.ChannelID()) {
					return req.Reply(ctx, "This chat isn't getting reminders.")
				}
				return req.Reply(ctx, "Reminders stopped for this chat.")
			},
		},
		{
			Name:        "done",
			Description: "mark today's time card as done",
			Usage:       "/done",
			Access:      AccessEveryone,
			Handle:      m.handleDone,
		},
		{
			Name:        "times",
			Description: "show today's reminder times (UTC)",
			Usage:       "/times",
			Access:      AccessEveryone,
			Handle: func(ctx context.Context, req *Request) error {
				return req.Reply(ctx, m.rem.ListTimes())
			},
		},
		{
			Name:        "channels",
			Aliases:     []string{"ls"},
			Description: "list registered channels",
			Usage:       "/channels",
			Access:      AccessOwnerOnly,
			Handle: func(ctx context.Context, req *Request) error {
				return req.Reply(ctx, m.rem.ListChannels())
			},
		},
		{
			Name:        "addchannel",
			Description: "register a channel by id",
			Usage:       "/addchannel <chat_id[:thread_id]>",
			Access:      AccessOwnerOnly,
			Audit:       true,
			Handle: func(ctx context.Context, req *Request) error {
				id, err := channelArg(req)
				if err != nil {
					return m.usage(ctx, req, err)
				}
				if !m.rem.AddChannel(id) {
					return req.Reply(ctx, id+" is already registered.")
				}
				return req.Reply(ctx, id+" registered.")
			},
		},
		{
			Name:        "removechannel",
			Aliases:     []string{"rmchannel"},
			Description: "unregister a channel by id",
			Usage:       "/removechannel <chat_id[:thread_id]>",
			Access:      AccessOwnerOnly,
			Audit:       true,
			Handle: func(ctx context.Context, req *Request) error {
				id, err := channelArg(req)
				if err != nil {
					return m.usage(ctx, req, err)
				}
				if !m.rem.RemoveChannel(id) {
					return req.Reply(ctx, id+" is not registered.")
				}
				return req.Reply(ctx, id+" removed.")
			},
		},
		{
			Name:        "settimes",
			Description: "replace reminder times (source timezone)",
			Usage:       "/settimes <HHMM|HH:MM|HH MM> [...]",
			Access:      AccessOwnerOnly,
			Audit:       true,
			Handle: func(ctx context.Context, req *Request) error {
				if len(req.Args) == 0 {
					return m.usage(ctx, req, errUsage)
				}
				if err := m.rem.SetTimes(joinTimeArgs(req.Args)); err != nil {
					_ = req.Reply(ctx, "times not changed: "+err.Error())
					return err
				}
				return req.Reply(ctx, "times updated; they apply from the next cycle:\n"+m.rem.ListTimes())
			},
		},
		{
			Name:        "pause",
			Description: "suppress reminders until /resume",
			Usage:       "/pause",
			Access:      AccessOwnerOnly,
			Audit:       true,
			Handle: func(ctx context.Context, req *Request) error {
				m.rem.Pause()
				return req.Reply(ctx, "reminders paused")
			},
		},
		{
			Name:        "resume",
			Description: "resume reminders",
			Usage:       "/resume",
			Access:      AccessOwnerOnly,
			Audit:       true,
			Handle: func(ctx context.Context, req *Request) error {
				m.rem.Resume()
				return req.Reply(ctx, "reminders resumed")
			},
		},
		{
			Name:        "reset",
			Description: "restart today's reminder cycle",
			Usage:       "/reset",
			Access:      AccessOwnerOnly,
			Audit:       true,
			Handle: func(ctx context.Context, req *Request) error {
				if !m.rem.ResetScheduler() {
					return req.Reply(ctx, "scheduler is not running")
				}
				return req.Reply(ctx, "scheduler reset; waits re-armed")
			},
		},
		{
			Name:        "status",
			Description: "show scheduler status",
			Usage:       "/status",
			Access:      AccessOwnerOnly,
			Handle: func(ctx context.Context, req *Request) error {
				return req.Reply(ctx, m.statusText())
			},
		},
	}
}

func (m *CommandManager) handleDone(ctx context.Context, req *Request) error {
	if !m.rem.MarkDone(req.ChannelID()) {
		return req.Reply(ctx, "This chat isn't getting reminders. Send /start to sign up.")
	}
	return req.Reply(ctx, "Sweet! I'll leave you alone until tomorrow 😄")
}

func handleHello(ctx context.Context, req *Request) error {
	name := req.From
	if name == "" {
		return req.Reply(ctx, "Howdy!")
	}
	return req.Reply(ctx, "Howdy @"+name+"!")
}

func channelArg(req *Request) (string, error) {
	if len(req.Args) != 1 {
		return "", errUsage
	}
	t, err := kit.ParseChatTarget(req.Args[0])
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

func (m *CommandManager) usage(ctx context.Context, req *Request, err error) error {
	m.mu.RLock()
	c := m.byName[req.Command]
	m.mu.RUnlock()
	msg := "usage: " + req.Command
	if c != nil {
		msg = "usage: " + c.Usage
	}
	if err != nil && !errors.Is(err, errUsage) {
		msg = err.Error() + "\n" + msg
	}
	_ = req.Reply(ctx, msg)
	return err
}

func (m *CommandManager) statusText() string {
	st := m.rem.Status()
	var b strings.Builder
	fmt.Fprintf(&b, "state: %s (paused: %s)\n", st.State, yesNo(st.Paused))
	fmt.Fprintf(&b, "channels: %d (pending %d)\n", st.Channels, st.Pending)
	fmt.Fprintf(&b, "table: %s (offset %s)\n", st.Table, st.Offset)
	fmt.Fprintf(&b, "cycles: %d\n", st.Cycles)
	if len(st.Armed) > 0 {
		parts := make([]string, 0, len(st.Armed))
		for _, t := range st.Armed {
			parts = append(parts, t.UTC().Format("15:04:05"))
		}
		fmt.Fprintf(&b, "armed today: %s UTC\n", strings.Join(parts, ", "))
	}
	if !st.NextWake.IsZero() {
		fmt.Fprintf(&b, "next wake: %s\n", st.NextWake.UTC().Format(time.RFC3339))
	}
	if lf := st.LastFire; lf != nil {
		fmt.Fprintf(&b, "last fire: %s delivered %d/%d failed %d suppressed %d\n",
			lf.At.UTC().Format("2006-01-02 15:04:05"), lf.Delivered, lf.Attempted, lf.Failed, lf.Suppressed)
	}

	m.statusMu.RLock()
	extra := m.statusExtra
	m.statusMu.RUnlock()
	if extra != nil {
		for _, l := range extra() {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
