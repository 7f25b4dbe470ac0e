package router

import (
	"strings"
	"unicode"

	kit "timecardbot/internal/transport"
)

// sanitizeTelegramCommand converts a name into a Telegram bot command,
// which is restricted to [a-z0-9_]{1,32}.
func sanitizeTelegramCommand(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_' || r == '-' || r == '/' || unicode.IsSpace(r):
			if b.Len() > 0 && !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.Trim(b.String(), "_")
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "cmd_" + out
	}
	if len(out) > 32 {
		out = strings.TrimRight(out[:32], "_")
	}
	return out
}

// buildMenuCommands lists public commands first, then owner-only ones
// marked with a lock, keeping registration order within each group.
func buildMenuCommands(cmds []Command) []kit.BotCommand {
	seen := map[string]bool{}
	var public, owner []kit.BotCommand
	for _, c := range cmds {
		name := sanitizeTelegramCommand(c.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		desc := strings.ReplaceAll(strings.TrimSpace(c.Description), "\n", " ")
		if desc == "" {
			desc = name
		}
		if c.Access == AccessOwnerOnly {
			owner = append(owner, kit.BotCommand{Command: name, Description: "🔒 " + desc})
			continue
		}
		public = append(public, kit.BotCommand{Command: name, Description: desc})
	}
	out := append(public, owner...)
	if len(out) > 100 {
		out = out[:100]
	}
	return out
}
