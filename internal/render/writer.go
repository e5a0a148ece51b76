package render

import "io"

// writer emits TOML lines and remembers the first write error; every write
// after a failure is a no-op.
type writer struct {
	out     io.Writer
	err     error
	started bool
}

func (w *writer) writeString(s string) {
	if w.err != nil || s == "" {
		return
	}
	_, w.err = io.WriteString(w.out, s)
}

// table starts a [header] section, separated from the previous one by a blank line.
func (w *writer) table(header string) {
	w.separate()
	w.writeString("[" + header + "]\n")
}

// arrayTable starts a [[header]] section.
func (w *writer) arrayTable(header string) {
	w.separate()
	w.writeString("[[" + header + "]]\n")
}

func (w *writer) separate() {
	if w.started {
		w.writeString("\n")
	}
	w.started = true
}

// keyValue writes the comment block, if any, followed by key = value.
func (w *writer) keyValue(comment, key, value string) {
	w.writeString(comment)
	w.writeString(key + " = " + value + "\n")
}
