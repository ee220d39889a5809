package service

import (
	"bufio"
	"io"
	"strings"
)

// csvWriter writes RFC 4180 records with every field quoted. encoding/csv
// only quotes when it has to, and exports here quote unconditionally.
type csvWriter struct {
	w *bufio.Writer
}

func newCSVWriter(w io.Writer) *csvWriter {
	return &csvWriter{w: bufio.NewWriter(w)}
}

func (c *csvWriter) Write(record []string) error {
	for i, field := range record {
		if i > 0 {
			if err := c.w.WriteByte(','); err != nil {
				return err
			}
		}
		if err := c.w.WriteByte('"'); err != nil {
			return err
		}
		if _, err := c.w.WriteString(strings.ReplaceAll(field, `"`, `""`)); err != nil {
			return err
		}
		if err := c.w.WriteByte('"'); err != nil {
			return err
		}
	}
	_, err := c.w.WriteString("\r\n")
	return err
}

func (c *csvWriter) Flush() error {
	return c.w.Flush()
}
