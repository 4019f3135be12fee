package command

import "strings"

// Tokenize splits a raw input line the way the host console does: double
// quotes toggle a quoted region, unquoted whitespace separates arguments,
// and the quote characters themselves never reach the output. An unmatched
// trailing quote runs to end of line as one token.
func Tokenize(raw string) []string {
	var args []string
	var cur strings.Builder
	quoted := false

	flush := func() {
		if cur.Len() > 0 {
			args = append(args, cur.String())
			cur.Reset()
		}
	}

	for _, r := range raw {
		switch {
		case r == '"':
			quoted = !quoted
		case !quoted && (r == ' ' || r == '\t'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return args
}
