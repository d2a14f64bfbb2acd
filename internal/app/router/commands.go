package router

import (
	"fmt"
	"strings"
)

// CommandListBackends команда "llms" — список доступных бэкендов.
const CommandListBackends = "llms"

// parseCommand распознаёт команду: не больше двух слов, последнее — имя команды.
// "@bot llms" и "llms" — команды, "покажи llms пожалуйста" — нет.
func parseCommand(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields) > 2 {
		return "", false
	}
	last := fields[len(fields)-1]
	switch last {
	case CommandListBackends:
		return last, true
	}
	return "", false
}

// listBackends собирает ответ команды llms.
func (r *Router) listBackends() string {
	lines := []string{r.cfg.Texts.ListHeader}
	for _, name := range r.backends.Names() {
		lines = append(lines, fmt.Sprintf("* %s -> %s%s", name, DirectivePrefix, strings.ToLower(name)))
	}
	if r.cfg.Texts.ListReminder != "" {
		lines = append(lines, r.cfg.Texts.ListReminder)
	}
	return strings.Join(lines, "\n")
}

func (r *Router) runCommand(cmd string) string {
	switch cmd {
	case CommandListBackends:
		return r.listBackends()
	default:
		return ""
	}
}
