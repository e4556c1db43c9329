package internal

import (
	"bufio"
	"context"
	"io"
)

const readBufSize = 64 * 1024

// readLines streams r and calls fn once per line with the line terminator
// ("\n" or "\r\n") removed. A final line without a newline is still delivered.
// Cancellation is checked between lines.
func readLines(ctx context.Context, r io.Reader, fn func(line string) error) error {
	br := bufio.NewReaderSize(r, readBufSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := br.ReadBytes('\n')
		if len(b) > 0 {
			if ferr := fn(string(trimEOL(b))); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func trimEOL(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
		if n := len(b); n > 0 && b[n-1] == '\r' {
			b = b[:n-1]
		}
	}
	return b
}
