package app

import (
	"context"
	"slices"
	"strings"

	"timecardbot/internal/config"
	logx "timecardbot/pkg/logx"
)

// reloadLoop applies validated configs published by the config watcher.
func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config in the channel.
		drain:
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					break drain
				}
			}
			a.applyConfig(lastApplied, newCfg)
			lastApplied = newCfg
		}
	}
}

func (a *App) applyConfig(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	a.log.Debug("config change summary", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)

	if slices.Contains(sections, "storage") {
		a.log.Warn("storage config changed; restart required for changes to take effect")
	}
	if oldCfg != nil && (oldCfg.Telegram.Token != newCfg.Telegram.Token ||
		strings.TrimSpace(oldCfg.Telegram.PollTimeout) != strings.TrimSpace(newCfg.Telegram.PollTimeout)) {
		a.log.Warn("telegram token or poll_timeout changed; restart required for changes to take effect")
	}

	// Target first so Apply does not warn when chat logging is on.
	if t, ok := logTarget(newCfg); ok {
		a.logs.SetChatTarget(t.ChatID, t.ThreadID)
	} else {
		a.logs.SetChatTarget(0, 0)
	}
	a.logs.Apply(mapLoggingConfig(newCfg))

	a.cmdm.SetOwners(newCfg.Telegram.OwnerUserIDs)
	a.cmdm.SetCompletionWords(newCfg.Reminder.CompletionWords)

	if ncfg, err := mapNotifierConfig(newCfg); err != nil {
		a.log.Warn("invalid notifier config; keeping previous", logx.Err(err))
	} else {
		a.notif.Apply(ncfg)
	}

	if slices.Contains(sections, "reminder") {
		a.applyReminder(oldCfg, newCfg)
	}

	a.log.Info("config reloaded", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)
}

// applyReminder pushes reminder settings into the running scheduler. Table,
// text and rollover changes take effect from the next cycle. The paused
// flag is only touched when the config value itself changed, so a runtime
// /pause survives unrelated reloads.
func (a *App) applyReminder(oldCfg, newCfg *config.Config) {
	rc := newCfg.Reminder
	var prev config.ReminderConfig
	if oldCfg != nil {
		prev = oldCfg.Reminder
	}

	// A /settimes override survives reloads that leave the table settings alone.
	if oldCfg == nil || tableChanged(prev, rc) {
		if tt, err := reminderTable(rc); err != nil {
			a.log.Warn("invalid reminder times; keeping previous table", logx.Err(err))
		} else {
			a.sched.SetTable(tt)
		}
	}
	a.sched.SetText(rc.Text)
	if err := a.sched.SetRollover(rc.Rollover); err != nil {
		a.log.Warn("invalid rollover; keeping previous", logx.Err(err))
	}
	if strings.TrimSpace(prev.DeliveryTimeout) != strings.TrimSpace(rc.DeliveryTimeout) {
		a.log.Warn("reminder.delivery_timeout changed; restart required for changes to take effect")
	}

	if oldCfg == nil || prev.Paused != rc.Paused {
		if rc.Paused {
			a.sched.Pause()
		} else {
			a.sched.Resume()
		}
	}
}

func tableChanged(prev, next config.ReminderConfig) bool {
	return !slices.Equal(prev.Times, next.Times) ||
		strings.TrimSpace(prev.TimesFile) != strings.TrimSpace(next.TimesFile) ||
		prev.SourceOffsetHours != next.SourceOffsetHours
}
