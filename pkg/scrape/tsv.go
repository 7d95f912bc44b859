package scrape

import (
	"bufio"
	"io"
)

// TSVWriter writes pairs as "word<TAB>pron" lines.
type TSVWriter struct {
	w *bufio.Writer
}

func NewTSVWriter(w io.Writer) *TSVWriter {
	return &TSVWriter{w: bufio.NewWriter(w)}
}

func (t *TSVWriter) Write(p Pair) error {
	t.w.WriteString(p.Word)
	t.w.WriteByte('\t')
	t.w.WriteString(p.Pron)
	return t.w.WriteByte('\n')
}

func (t *TSVWriter) Flush() error {
	return t.w.Flush()
}
