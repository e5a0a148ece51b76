// Package comments recovers the comment blocks of a manifest's original text
// and associates each with the key it precedes.
//
// The association is a line-oriented heuristic, not a TOML grammar: it cannot
// tell a key inside an inline table or a multi-line array from a top-level
// key, and will attribute comments next to such constructs to whatever key
// shaped line follows them.
package comments

import (
	"bufio"
	"bytes"
	"strings"
)

// Map associates a qualified key ("<table>.<key>") with the verbatim comment
// block that preceded the key's definition line. Every line of a block keeps
// its leading '#' and ends with a newline; a key defined without a comment
// maps to "".
type Map map[string]string

// Qualify joins a table name and a key into a qualified key.
func Qualify(table, key string) string {
	return table + "." + key
}

// Lookup returns the comment block recorded for key in table, or "".
func (m Map) Lookup(table, key string) string {
	if m == nil {
		return ""
	}
	return m[Qualify(table, key)]
}

// Heuristic recovers comments with Scan.
type Heuristic struct{}

// Recover implements domain.CommentRecoverer.
func (Heuristic) Recover(src []byte) Map {
	return Scan(src)
}

// Scan builds the comment map of src. It never fails: text it cannot make
// sense of simply attributes nothing.
func Scan(src []byte) Map {
	out := make(Map)
	table := ""
	var pending strings.Builder

	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), len(src)+1)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			// Blank lines keep the pending block.
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			table = line[1 : len(line)-1]
			pending.Reset()
		case strings.HasPrefix(line, "#"):
			pending.WriteString(line)
			pending.WriteByte('\n')
		default:
			// An uncommented key still records its empty block, so the
			// last definition of a qualified key wins.
			if key := leadingKey(line); key != "" {
				out[Qualify(table, key)] = pending.String()
			}
			pending.Reset()
		}
	}
	return out
}

// leadingKey returns the longest prefix of line made of ASCII letters,
// digits, '-' and '_'.
func leadingKey(line string) string {
	for i := 0; i < len(line); i++ {
		if !isKeyByte(line[i]) {
			return line[:i]
		}
	}
	return line
}

func isKeyByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '-' || c == '_'
}
