package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength исторический потолок длины одного сообщения в чате (в символах).
const MaxMessageLength = 4000

// SplitText режет текст на части не длиннее limit символов.
// Предпочитает границы абзацев, потом строк, потом пробелы; слово длиннее limit режется как есть.
func SplitText(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	rest := text
	for utf8.RuneCountInString(rest) > limit {
		// Байтовая граница limit-го символа
		end := len(rest)
		n := 0
		for i := range rest {
			if n == limit {
				end = i
				break
			}
			n++
		}
		window := rest[:end]

		cut, skip := end, 0
		if next := rest[end]; next == '\n' || next == ' ' {
			skip = 1
		} else if i := strings.LastIndex(window, "\n\n"); i > len(window)/2 {
			cut, skip = i, 2
		} else if i := strings.LastIndex(window, "\n"); i > len(window)/2 {
			cut, skip = i, 1
		} else if i := strings.LastIndex(window, " "); i > len(window)/2 {
			cut, skip = i, 1
		}

		parts = append(parts, rest[:cut])
		rest = rest[cut+skip:]
	}
	if rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

const codeFence = "```"

// SplitMarkdown режет markdown как SplitText, но не рвёт блоки кода:
// блок, открытый на границе части, закрывается в её конце и открывается заново в следующей.
func SplitMarkdown(text string, limit int) []string {
	reserve := 2 * (len(codeFence) + 1)
	if limit <= 2*reserve || utf8.RuneCountInString(text) <= limit {
		return SplitText(text, limit)
	}

	parts := SplitText(text, limit-reserve)
	open := false
	for i, part := range parts {
		if open {
			part = codeFence + "\n" + part
		}
		open = strings.Count(part, codeFence)%2 == 1
		if open {
			part += "\n" + codeFence
		}
		parts[i] = part
	}
	return parts
}

// Reply упаковывает текст ответа: короткий — Text, длинный — Chunks.
// Каждая часть — самостоятельный markdown, чтобы транспорт мог отформатировать её отдельно.
func Reply(text string, limit int) Result {
	parts := SplitMarkdown(text, limit)
	if len(parts) == 1 {
		return Text(parts[0])
	}
	return Chunks(parts)
}

// Signature подпись ответа вида "_(Geppetto v0.2.0 Source: OpenAI Model gpt-4o)_".
// Пустое имя бота — подписи нет.
func Signature(bot, version, source, model string) string {
	if bot == "" {
		return ""
	}
	return fmt.Sprintf("\n\n_(%s v%s Source: %s Model %s)_", bot, version, source, model)
}
