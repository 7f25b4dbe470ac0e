package router

import (
	"context"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	rtsup "timecardbot/internal/runtime/supervisor"
	kit "timecardbot/internal/transport"
	logx "timecardbot/pkg/logx"
)

const (
	defaultCommandTimeout = 30 * time.Second
	jobQueueSize          = 256
)

// DefaultCompletionWords mark a chat done for the day when sent as a plain message.
var DefaultCompletionWords = []string{"yes", "done"}

// CommandManager routes chat updates to commands and plain-text handlers on
// a bounded worker pool.
type CommandManager struct {
	mu       sync.RWMutex
	byName   map[string]*Command
	commands []Command
	owners   []int64
	words    map[string]struct{}

	log    logx.Logger
	sender kit.Sender
	rem    Reminders
	audit  Auditor

	statusMu    sync.RWMutex
	statusExtra func() []string

	runMu   sync.Mutex
	running bool
	sup     *rtsup.Supervisor

	jobs chan func()
}

// NewCommandManager builds a manager with the reminder command set
// installed. audit may be nil.
func NewCommandManager(log logx.Logger, sender kit.Sender, rem Reminders, audit Auditor, owners []int64) *CommandManager {
	if log.IsZero() {
		log = logx.Nop()
	}
	m := &CommandManager{
		log:    log,
		sender: sender,
		rem:    rem,
		audit:  audit,
		owners: slices.Clone(owners),
		jobs:   make(chan func(), jobQueueSize),
	}
	m.SetCompletionWords(nil)
	m.SetRegistry(m.reminderCommands())
	return m
}

// Supervisor returns the worker pool supervisor (nil if not running).
func (m *CommandManager) Supervisor() *rtsup.Supervisor {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if !m.running {
		return nil
	}
	return m.sup
}

// SetOwners replaces the owner list used for AccessOwnerOnly checks.
// Safe during hot reload.
func (m *CommandManager) SetOwners(owners []int64) {
	m.mu.Lock()
	m.owners = slices.Clone(owners)
	m.mu.Unlock()
}

// SetCompletionWords replaces the plain-text words that mark a chat done.
// An empty list restores DefaultCompletionWords.
func (m *CommandManager) SetCompletionWords(words []string) {
	if len(words) == 0 {
		words = DefaultCompletionWords
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w = normalizeWord(w); w != "" {
			set[w] = struct{}{}
		}
	}
	m.mu.Lock()
	m.words = set
	m.mu.Unlock()
}

// SetStatusExtra installs a provider of extra /status lines.
func (m *CommandManager) SetStatusExtra(fn func() []string) {
	m.statusMu.Lock()
	m.statusExtra = fn
	m.statusMu.Unlock()
}

// SetRegistry installs cmds plus /help and refreshes the chat menu.
func (m *CommandManager) SetRegistry(cmds []Command) {
	cmds = append(slices.Clone(cmds), Command{
		Name:        "help",
		Aliases:     []string{"h"},
		Description: "show available commands",
		Usage:       "/help [command]",
		Access:      AccessEveryone,
		Handle: func(ctx context.Context, req *Request) error {
			return req.Reply(ctx, m.helpText(req.Args, m.isOwner(req.FromID)))
		},
	})

	byName := make(map[string]*Command, len(cmds)*2)
	kept := make([]Command, 0, len(cmds))
	for _, c := range cmds {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" || c.Handle == nil {
			continue
		}
		c.Name = name
		kept = append(kept, c)
	}
	// Index after the slice stops growing so pointers stay valid.
	for i := range kept {
		c := &kept[i]
		byName[c.Name] = c
		for _, a := range c.Aliases {
			a = strings.ToLower(strings.TrimSpace(a))
			if a == "" {
				continue
			}
			if _, taken := byName[a]; !taken {
				byName[a] = c
			}
		}
	}

	m.mu.Lock()
	m.byName = byName
	m.commands = kept
	m.mu.Unlock()

	m.refreshMenu(kept)
}

// Commands returns the installed commands in registration order.
func (m *CommandManager) Commands() []Command {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.commands)
}

func (m *CommandManager) refreshMenu(cmds []Command) {
	up, ok := m.sender.(kit.CommandMenuUpdater)
	if !ok {
		return
	}
	menu := buildMenuCommands(cmds)
	run := func(parent context.Context) {
		ctx, cancel := context.WithTimeout(parent, 5*time.Second)
		defer cancel()
		if err := up.UpdateMenuCommands(ctx, menu); err != nil {
			m.log.Warn("menu update failed", logx.Err(err))
		}
	}
	if sup := m.Supervisor(); sup != nil {
		sup.Go0("telegram.menu.update", run)
		return
	}
	go run(context.Background())
}

// DispatchLoop consumes updates until ctx is canceled or updates is closed.
func (m *CommandManager) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	workers := max(2, runtime.NumCPU())
	sup := rtsup.New(ctx,
		rtsup.WithLogger(m.log.With(logx.String("comp", "telegram.router"))),
		rtsup.WithCancelOnError(false),
	)
	m.runMu.Lock()
	m.sup, m.running = sup, true
	m.runMu.Unlock()

	m.log.Info("command dispatcher started", logx.Int("workers", workers), logx.Int("job_queue_cap", cap(m.jobs)))

	for i := 0; i < workers; i++ {
		sup.GoRestart("command.worker."+strconv.Itoa(i), func(c context.Context) error {
			for {
				select {
				case <-c.Done():
					return nil
				case job := <-m.jobs:
					job()
				}
			}
		},
			rtsup.WithRestartBackoff(200*time.Millisecond, 5*time.Second),
			rtsup.WithPublishFirstError(true),
		)
	}

	defer func() {
		m.runMu.Lock()
		m.running = false
		m.runMu.Unlock()
		wctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = sup.Stop(wctx)
		cancel()
		m.log.Info("command dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			m.routeUpdate(ctx, up)
		}
	}
}

func (m *CommandManager) routeUpdate(ctx context.Context, up kit.Update) {
	if up.Kind != kit.UpdateMessage || up.Message == nil {
		return
	}
	msg := up.Message
	if name, args, ok := parseCommand(msg.Text); ok {
		m.routeCommand(ctx, up, name, args)
		return
	}
	m.routeText(ctx, up)
}

func (m *CommandManager) routeCommand(ctx context.Context, up kit.Update, name string, args []string) {
	msg := up.Message
	m.mu.RLock()
	c := m.byName[name]
	m.mu.RUnlock()

	chat := kit.ChatTarget{ChatID: msg.ChatID, ThreadID: msg.ThreadID}
	if c == nil {
		// Unknown commands in groups may belong to other bots.
		if !msg.IsGroup {
			m.reply(ctx, chat, "unknown command. try /help")
		}
		return
	}
	if c.Access == AccessOwnerOnly && !m.isOwner(msg.FromID) {
		m.reply(ctx, chat, "unauthorized")
		return
	}

	req := m.newRequest(up, c.Name, args)
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	mws := []Middleware{MWPanicRecover(m.log), MWRequestLog(m.log)}
	if c.Audit {
		mws = append(mws, MWAudit(m.audit, m.log))
	}
	mws = append(mws, MWTimeout(timeout))
	m.enqueue(ctx, req, Chain(c.Handle, mws...))
}

// routeText handles completion words and greetings.
func (m *CommandManager) routeText(ctx context.Context, up kit.Update) {
	word := normalizeWord(up.Message.Text)
	if word == "" {
		return
	}
	m.mu.RLock()
	_, completes := m.words[word]
	m.mu.RUnlock()

	var h HandlerFunc
	switch {
	case completes:
		h = m.handleDone
	case word == "hello" || word == "hi":
		h = handleHello
	default:
		return
	}
	req := m.newRequest(up, "text:"+word, nil)
	m.enqueue(ctx, req, Chain(h, MWPanicRecover(m.log), MWRequestLog(m.log), MWTimeout(defaultCommandTimeout)))
}

func (m *CommandManager) newRequest(up kit.Update, command string, args []string) *Request {
	msg := up.Message
	rid := newReqID()
	return &Request{
		Update:  up,
		Chat:    kit.ChatTarget{ChatID: msg.ChatID, ThreadID: msg.ThreadID},
		FromID:  msg.FromID,
		From:    msg.FromUsername,
		Command: command,
		Args:    args,
		ReqID:   rid,
		Sender:  m.sender,
		Logger: m.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", msg.ChatID),
			logx.Int("thread_id", msg.ThreadID),
			logx.Int64("from_id", msg.FromID),
		),
	}
}

func (m *CommandManager) enqueue(ctx context.Context, req *Request, h HandlerFunc) {
	select {
	case m.jobs <- func() { _ = h(ctx, req) }:
	default:
		m.reply(ctx, req.Chat, "busy, try again")
	}
}

func (m *CommandManager) reply(ctx context.Context, to kit.ChatTarget, text string) {
	if _, err := m.sender.SendText(ctx, to, text, nil); err != nil {
		m.log.Debug("reply failed", logx.String("to", to.String()), logx.Err(err))
	}
}

func (m *CommandManager) isOwner(id int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Contains(m.owners, id)
}
