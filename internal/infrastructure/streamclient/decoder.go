package streamclient

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"chatdeck/services/inbox-sync/internal/domain/chat"
)

const defaultEventName = "message"

// Decoder turns a raw streaming body into an ordered sequence of typed
// events. The sequence is lazy, single-pass, and not restartable: it ends
// when the source closes.
//
// Protocol: line-oriented text. An "event:" line names the next data line
// (default "message"), a "data:" line carries a JSON payload, a blank line
// terminates the current event. Chunk boundaries may split a logical line;
// the bufio.Reader buffers partial trailing text across reads. A malformed
// data line is skipped and never aborts the stream.
type Decoder struct {
	body   io.ReadCloser
	reader *bufio.Reader
	event  string
}

// NewDecoder wraps a streaming body. The caller owns the lifecycle: Close
// must be called on every exit path, including external cancellation.
func NewDecoder(body io.ReadCloser) *Decoder {
	return &Decoder{
		body:   body,
		reader: bufio.NewReader(body),
		event:  defaultEventName,
	}
}

// Recv returns the next decoded event, or io.EOF when the source closes.
// Any buffered but unterminated trailing text at EOF is discarded.
func (d *Decoder) Recv() (*chat.Event, error) {
	for {
		line, err := d.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read line: %w", err)
		}

		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			// Blank line terminates the current event.
			d.event = defaultEventName
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if name, ok := strings.CutPrefix(line, "event:"); ok {
			d.event = strings.TrimSpace(name)
			continue
		}

		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}

		ev, err := chat.ParseEvent(d.event, []byte(strings.TrimSpace(data)))
		if err != nil {
			// Skip exactly the offending line; the stream continues.
			continue
		}
		return ev, nil
	}
}

// Close releases the underlying body.
func (d *Decoder) Close() error {
	return d.body.Close()
}

var _ chat.Stream = (*Decoder)(nil)
