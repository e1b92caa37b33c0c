package extractor

import (
	"regexp"
	"strings"
)

var (
	pyDocPattern    = regexp.MustCompile(`(?s)^(?:"""(.*?)"""|'''(.*?)''')`)
	blockDocPattern = regexp.MustCompile(`(?s)^/\*\*(.*?)\*/`)
	anyDocBlock     = regexp.MustCompile(`(?s)"""(.*?)"""|'''(.*?)'''|/\*\*(.*?)\*/`)
)

// docstringFor returns the cleaned doc comment attached to a signature
func docstringFor(p profile, content string, sig signatureMatch) string {
	if p.doc == docPreceding {
		return precedingLineComment(p, content[:sig.start])
	}

	if doc := followingBlock(content[sig.end:]); doc != "" {
		return doc
	}
	return precedingBlock(content[:sig.start])
}

// followingBlock returns the doc block that starts the text after a signature
func followingBlock(after string) string {
	after = strings.TrimLeft(after, " \t\r\n{")
	if m := pyDocPattern.FindStringSubmatch(after); m != nil {
		return cleanDoc(m[1] + m[2])
	}
	if m := blockDocPattern.FindStringSubmatch(after); m != nil {
		return cleanDoc(m[1])
	}
	return ""
}

// precedingBlock returns a /** */ block that ends right before a signature,
// allowing annotation and decorator lines in between
func precedingBlock(before string) string {
	trimmed := strings.TrimRight(before, " \t\r\n")
	for {
		lastNL := strings.LastIndexByte(trimmed, '\n')
		line := strings.TrimSpace(trimmed[lastNL+1:])
		if !strings.HasPrefix(line, "@") || lastNL < 0 {
			break
		}
		trimmed = strings.TrimRight(trimmed[:lastNL], " \t\r\n")
	}

	if !strings.HasSuffix(trimmed, "*/") {
		return ""
	}
	open := strings.LastIndex(trimmed, "/**")
	// "/**/" closes on the opener's own asterisk
	if open < 0 || open+3 > len(trimmed)-2 {
		return ""
	}
	return cleanDoc(trimmed[open+3 : len(trimmed)-2])
}

// precedingLineComment collects the contiguous comment lines directly above
// a signature
func precedingLineComment(p profile, before string) string {
	lines := strings.Split(strings.TrimRight(before, " \t"), "\n")
	// The signature starts on the last element; a comment must end on the line above
	if len(lines) > 0 {
		lines = lines[:len(lines)-1]
	}

	var collected []string
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		text, ok := stripLineComment(p, line)
		if !ok {
			break
		}
		collected = append(collected, text)
	}

	if len(collected) == 0 {
		if doc := precedingBlock(before); doc != "" {
			return doc
		}
		return ""
	}

	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return cleanDoc(strings.Join(collected, "\n"))
}

func stripLineComment(p profile, line string) (string, bool) {
	for _, marker := range p.lineComment {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
		}
	}
	return "", false
}

// cleanDoc strips comment decoration and collapses whitespace
func cleanDoc(raw string) string {
	lines := strings.Split(raw, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "*")
		line = strings.TrimSpace(line)
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

// docBlocks returns the text of every doc block in content, including line
// comments for the profile's comment markers
func docBlocks(p profile, content string) []string {
	var blocks []string
	for _, m := range anyDocBlock.FindAllStringSubmatch(content, -1) {
		if doc := cleanDoc(m[1] + m[2] + m[3]); doc != "" {
			blocks = append(blocks, doc)
		}
	}
	for _, line := range strings.Split(content, "\n") {
		if text, ok := stripLineComment(p, strings.TrimSpace(line)); ok {
			text = strings.TrimLeft(text, "!/#")
			if text = strings.TrimSpace(text); text != "" {
				blocks = append(blocks, text)
			}
		}
	}
	return blocks
}

// fileDoc returns the leading documentation of a file: the module docstring,
// a leading block comment, or the leading run of line comments (skipping a
// shebang). For Go, the comment directly above the package clause.
func fileDoc(p profile, content string) string {
	text := strings.TrimPrefix(content, "\ufeff")
	if strings.HasPrefix(text, "#!") {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		} else {
			return ""
		}
	}
	text = strings.TrimLeft(text, " \t\r\n")

	if m := pyDocPattern.FindStringSubmatch(text); m != nil {
		return cleanDoc(m[1] + m[2])
	}
	if strings.HasPrefix(text, "/*") {
		if end := strings.Index(text[2:], "*/"); end >= 0 {
			return cleanDoc(strings.TrimLeft(text[2:2+end], "*!"))
		}
		return ""
	}

	var collected []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(collected) > 0 {
				break
			}
			continue
		}
		c, ok := stripLineComment(p, line)
		if !ok {
			break
		}
		c = strings.TrimSpace(strings.TrimLeft(c, "!/"))
		if strings.HasPrefix(c, "-*-") || strings.HasPrefix(c, "go:build") || strings.HasPrefix(c, "+build") {
			continue
		}
		collected = append(collected, c)
	}
	return cleanDoc(strings.Join(collected, "\n"))
}
