package taxonomy

import (
	"regexp"
	"strings"
)

// fencePattern matches the body of a markdown code fence, tagged json or not.
var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?[ \\t]*\\n?(.*?)```")

// extractObject pulls an answer object out of chatty model output. A fenced
// block wins over surrounding prose; within it the first balanced {...} is
// kept. Line comments and trailing commas are dropped on the way. It
// returns "" when no complete object is found.
func extractObject(raw string) string {
	if m := fencePattern.FindStringSubmatch(raw); m != nil && strings.Contains(m[1], "{") {
		raw = m[1]
	}
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}
	src := raw[start:]

	out := make([]byte, 0, len(src))
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(src); i++ {
		ch := src[i]
		if inString {
			out = append(out, ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
				out = append(out, '\n')
				continue
			}
		case '{', '[':
			depth++
		case '}', ']':
			out = dropTrailingComma(out)
			depth--
		}
		out = append(out, ch)
		if depth == 0 {
			return string(out)
		}
	}
	return ""
}

// dropTrailingComma removes a comma left dangling before a closing bracket.
func dropTrailingComma(out []byte) []byte {
	i := len(out) - 1
	for i >= 0 && strings.IndexByte(" \t\r\n", out[i]) >= 0 {
		i--
	}
	if i >= 0 && out[i] == ',' {
		return append(out[:i], out[i+1:]...)
	}
	return out
}
