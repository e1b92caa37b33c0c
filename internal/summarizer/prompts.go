package summarizer

import (
	"strings"

	"github.com/dshills/codegraph-mcp/pkg/types"
)

const systemPrompt = "You explain source code to engineers who are new to a codebase. Be precise and concise."

func filePrompt(path string, lang types.Language, content string) string {
	var b strings.Builder
	b.WriteString("Please analyze this code file and provide a detailed explanation:\n\n")
	b.WriteString("File: " + path + "\n")
	b.WriteString("Type: " + lang.String() + "\n")
	b.WriteString("Content:\n")
	b.WriteString(truncate(content, MaxContentChars))
	b.WriteString("\n\nPlease provide:\n")
	b.WriteString("1. An overview of what this file does\n")
	b.WriteString("2. Its main purpose and functionality\n")
	b.WriteString("3. Key components and their roles\n")
	b.WriteString("4. Important dependencies and relationships\n")
	b.WriteString("5. Notable patterns or design decisions\n")
	return b.String()
}

func methodPrompt(path string, m types.Method) string {
	var b strings.Builder
	b.WriteString("Please analyze this method and provide a detailed explanation:\n\n")
	b.WriteString("File: " + path + "\n")
	b.WriteString("Method: " + m.Name + "\n")
	b.WriteString("Type: " + string(m.Kind) + "\n")
	b.WriteString("Parameters: " + strings.Join(m.Params, ", ") + "\n")
	b.WriteString("Content:\n")
	b.WriteString(truncate(m.Body, MaxContentChars))
	b.WriteString("\n\nPlease provide:\n")
	b.WriteString("1. What this method does\n")
	b.WriteString("2. A step-by-step breakdown\n")
	b.WriteString("3. Its parameters and their purposes\n")
	b.WriteString("4. Return values and their meanings\n")
	b.WriteString("5. Side effects or dependencies\n")
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (truncated)"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
