// Package watch follows a growing Power.log and drives the full live
// pipeline: parse, archive, index, snapshot, broadcast.
package watch

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

const (
	tailPoll     = 100 * time.Millisecond
	tailOpenPoll = 500 * time.Millisecond
)

// Tail follows path and sends complete lines, newline stripped, to lines.
// The game client truncates Power.log on restart and some launchers swap the
// file out entirely; both make Tail reopen and read the new content from the
// top. Tail blocks until ctx is cancelled and closes lines on the way out.
func Tail(ctx context.Context, path string, fromStart bool, lines chan<- string, logger *log.Logger) error {
	defer close(lines)

	printf := func(format string, args ...any) {
		if logger != nil {
			logger.Printf(format, args...)
		}
	}

	var (
		f       *os.File
		pos     int64
		partial []byte
	)
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()

	openFile := func(seekEnd bool) error {
		if f != nil {
			_ = f.Close()
			f = nil
		}
		waited := false
		for {
			var err error
			f, err = os.Open(path)
			if err == nil {
				break
			}
			if !os.IsNotExist(err) {
				return err
			}
			if !waited {
				printf("waiting for %s", path)
				waited = true
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(tailOpenPoll):
			}
		}
		pos = 0
		partial = partial[:0]
		if seekEnd {
			var err error
			if pos, err = f.Seek(0, io.SeekEnd); err != nil {
				return err
			}
		}
		return nil
	}

	send := func(line []byte) error {
		s := strings.TrimSuffix(string(line), "\r")
		select {
		case lines <- s:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := openFile(!fromStart); err != nil {
		return err
	}

	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			pos += int64(n)
			data := buf[:n]
			for {
				i := bytes.IndexByte(data, '\n')
				if i < 0 {
					partial = append(partial, data...)
					break
				}
				line := data[:i]
				if len(partial) > 0 {
					line = append(partial, line...)
					partial = partial[:0]
				}
				if serr := send(line); serr != nil {
					return serr
				}
				data = data[i+1:]
			}
			continue
		}
		if err != nil && err != io.EOF {
			return err
		}

		// At EOF. Wait for growth, truncation, or replacement.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(tailPoll):
		}
		st, serr := os.Stat(path)
		switch {
		case serr != nil:
			printf("log %s went away; reopening", path)
			if oerr := openFile(false); oerr != nil {
				return oerr
			}
		case st.Size() < pos:
			printf("log %s truncated; reopening", path)
			if oerr := openFile(false); oerr != nil {
				return oerr
			}
		default:
			if fst, ferr := f.Stat(); ferr == nil && !os.SameFile(fst, st) {
				printf("log %s rotated; reopening", path)
				if oerr := openFile(false); oerr != nil {
					return oerr
				}
			}
		}
	}
}
