package router

import (
	"strings"
)

// helpText renders the command list, or details for one command. Owner-only
// commands are listed for owners only.
func (m *CommandManager) helpText(args []string, owner bool) string {
	if len(args) > 0 {
		name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(args[0]), "/"))
		m.mu.RLock()
		c := m.byName[name]
		m.mu.RUnlock()
		if c == nil || (c.Access == AccessOwnerOnly && !owner) {
			return "unknown command. try /help"
		}
		return commandHelp(*c)
	}

	lines := []string{"Commands:"}
	var ownerLines []string
	for _, c := range m.Commands() {
		line := "/" + c.Name
		if c.Description != "" {
			line += " - " + c.Description
		}
		if c.Access == AccessOwnerOnly {
			ownerLines = append(ownerLines, "🔒 "+line)
			continue
		}
		lines = append(lines, line)
	}
	if owner && len(ownerLines) > 0 {
		lines = append(lines, "", "Owner commands:")
		lines = append(lines, ownerLines...)
	}
	lines = append(lines, "", `Reply "yes" to a reminder to be left alone until tomorrow.`)
	return strings.Join(lines, "\n")
}

func commandHelp(c Command) string {
	lines := []string{"/" + c.Name}
	if c.Description != "" {
		lines = append(lines, c.Description)
	}
	if c.Access == AccessOwnerOnly {
		lines = append(lines, "🔒 owner only")
	}
	if c.Usage != "" {
		lines = append(lines, "usage: "+c.Usage)
	}
	if len(c.Aliases) > 0 {
		lines = append(lines, "aliases: /"+strings.Join(c.Aliases, ", /"))
	}
	return strings.Join(lines, "\n")
}
