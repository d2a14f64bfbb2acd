package access

import (
	"strings"
	"sync"
)

// Wildcard в списке разрешает писать боту всем.
const Wildcard = "*"

// Allowlist множество ID пользователей, которым разрешено обращаться к боту.
type Allowlist struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func New(ids ...string) *Allowlist {
	a := &Allowlist{ids: make(map[string]struct{}, len(ids))}
	a.Add(ids...)
	return a
}

// Add добавляет ID, пустые пропускает.
func (a *Allowlist) Add(ids ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		a.ids[id] = struct{}{}
	}
}

// IsAuthorized true, если в списке есть * или сам userID.
func (a *Allowlist) IsAuthorized(userID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if _, ok := a.ids[Wildcard]; ok {
		return true
	}
	_, ok := a.ids[userID]
	return ok
}

func (a *Allowlist) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.ids)
}
