package content

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// размер куска при разбиении длинных сообщений
	MaxChunk = 4000
	// предел Telegram для одного сообщения
	MaxMessage = 4096
)

var ansiEscape = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// CleanANSI убирает цветовые и управляющие последовательности из вывода скриптов.
func CleanANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// SplitMessage режет текст на куски не длиннее limit символов, не разрывая строки.
// Строка длиннее limit остаётся отдельным куском целиком.
func SplitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	for _, line := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n+1 > limit && curLen > 0 {
			chunks = append(chunks, strings.TrimRight(cur.String(), " \t\r\n"))
			cur.Reset()
			curLen = 0
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
		curLen += n + 1
	}
	if curLen > 0 {
		chunks = append(chunks, strings.TrimRight(cur.String(), " \t\r\n"))
	}
	return chunks
}

// Truncate обрезает текст до limit символов, заканчивая многоточием.
func Truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	r := []rune(text)
	return string(r[:limit-3]) + "..."
}

var markdownV2 = strings.NewReplacer(
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
	"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// EscapeMarkdownV2 экранирует все спецсимволы MarkdownV2.
func EscapeMarkdownV2(s string) string {
	return markdownV2.Replace(s)
}
