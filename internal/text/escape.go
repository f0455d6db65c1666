package text

import "strings"

// mdEscaper escapes every character MarkdownV2 treats as markup.
var mdEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"[", `\[`,
	"]", `\]`,
	"(", `\(`,
	")", `\)`,
	"~", `\~`,
	"`", "\\`",
	">", `\>`,
	"#", `\#`,
	"+", `\+`,
	"-", `\-`,
	"=", `\=`,
	"|", `\|`,
	"{", `\{`,
	"}", `\}`,
	".", `\.`,
	"!", `\!`,
)

// EscapeMarkdown makes s safe to embed in a MarkdownV2 message.
func EscapeMarkdown(s string) string {
	return mdEscaper.Replace(s)
}
