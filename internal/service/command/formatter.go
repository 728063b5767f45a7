package command

import (
	"fmt"
	"strings"
)

// Replies are markdown. Transports render them for their medium.

func heading(title string) string {
	return fmt.Sprintf("🧠 **%s**\n", title)
}

func success(message string) string {
	return fmt.Sprintf("✅ **%s**\n", message)
}

func label(name, value string) string {
	return fmt.Sprintf("**%s**  ›  `%s`\n", name, value)
}

func usage(line string) string {
	return fmt.Sprintf("**Usage**: `%s`\n", line)
}

func examples(lines ...string) string {
	var sb strings.Builder
	sb.WriteString("**Examples**:\n")
	for _, ex := range lines {
		fmt.Fprintf(&sb, "`%s`\n", ex)
	}
	return sb.String()
}

func bullets(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "› %s\n", item)
	}
	return sb.String()
}

func tip(text string) string {
	return fmt.Sprintf("_%s_\n", text)
}

func section(emoji, title, content string) string {
	return fmt.Sprintf("%s **%s**\n%s", emoji, title, content)
}

func combine(parts ...string) string {
	return strings.Join(parts, "\n")
}
