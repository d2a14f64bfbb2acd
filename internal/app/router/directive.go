package router

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// DirectivePrefix префикс директивы выбора бэкенда: llm_gemini, LLM_Claude...
const DirectivePrefix = "llm_"

var directiveRe = regexp.MustCompile(`(?i)llm_\w+`)

// ParseDirectives возвращает имена из директив llm_<name> в нижнем регистре, в порядке появления.
func ParseDirectives(text string) []string {
	found := directiveRe.FindAllString(text, -1)
	out := make([]string, 0, len(found))
	for _, d := range found {
		name := strings.TrimRightFunc(d[len(DirectivePrefix):], unicode.IsPunct)
		if name == "" {
			continue
		}
		out = append(out, strings.ToLower(name))
	}
	return out
}

// SelectBackend выбирает бэкенд для сообщения.
// Ровно одно зарегистрированное имя в директивах — оно. Директив нет, а у треда есть живой бэкенд — он же.
// Иначе (нет активного или названо несколько разных) — бэкенд по умолчанию, первый в names.
// Незнакомые директивы игнорируются.
func SelectBackend(text string, names []string, current string) string {
	if len(names) == 0 {
		return ""
	}
	byLower := make(map[string]string, len(names))
	for _, n := range names {
		byLower[strings.ToLower(n)] = n
	}

	var matched []string
	for _, d := range ParseDirectives(text) {
		n, ok := byLower[d]
		if !ok || slices.Contains(matched, n) {
			continue
		}
		matched = append(matched, n)
	}

	switch {
	case len(matched) == 1:
		return matched[0]
	case len(matched) == 0 && slices.Contains(names, current):
		return current
	default:
		return names[0]
	}
}
