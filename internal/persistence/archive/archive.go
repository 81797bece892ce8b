// Package archive persists the full packet stream of each game as one
// zstd-compressed JSONL file, one PACKET frame per line, so a finished or
// aborted game can be replayed without the original Power.log.
package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"hearthlog.gg/internal/protocol"
)

// Writer journals one game. Not safe for concurrent use; the watcher owns
// one writer per live game.
type Writer struct {
	path string
	f    *os.File
	enc  *zstd.Encoder
	w    *bufio.Writer
}

// Create opens <dir>/<gameID>.jsonl.zst, truncating any stale file from a
// crashed run of the same id.
func Create(dir, gameID string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, gameID+".jsonl.zst")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

func (w *Writer) Path() string { return w.path }

// Write appends one frame and flushes it through to the encoder, so a crash
// loses at most the compressor's window.
func (w *Writer) Write(msg protocol.PacketMsg) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

// Read streams every frame of one archived game through fn.
func Read(path string, fn func(protocol.PacketMsg) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var msg protocol.PacketMsg
		if err := json.Unmarshal(sc.Bytes(), &msg); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ReadAll loads one archived game into memory.
func ReadAll(path string) ([]protocol.PacketMsg, error) {
	var out []protocol.PacketMsg
	err := Read(path, func(msg protocol.PacketMsg) error {
		out = append(out, msg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
