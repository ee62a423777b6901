package streamclient_test

import (
	"io"
	"testing"

	"chatdeck/services/inbox-sync/internal/domain/chat"
	"chatdeck/services/inbox-sync/internal/infrastructure/streamclient"
)

// chunkReader yields the stream in fixed chunks so logical lines can be
// split across reads, the way a network body delivers them.
type chunkReader struct {
	chunks []string
	closed bool
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closed = true
	return nil
}

func drain(t *testing.T, d *streamclient.Decoder) []*chat.Event {
	t.Helper()
	var events []*chat.Event
	for {
		ev, err := d.Recv()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("Recv() error: %v", err)
		}
		events = append(events, ev)
	}
}

func TestDecoder_SplitAcrossChunks(t *testing.T) {
	src := &chunkReader{chunks: []string{
		"event: delta\ndata: {\"text\":\"Hel",
		"lo\"}\n\n",
	}}
	d := streamclient.NewDecoder(src)

	events := drain(t, d)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Type != chat.EventDelta || events[0].Delta.Text != "Hello" {
		t.Errorf("event = %+v, want delta Hello", events[0])
	}
}

func TestDecoder_FullStream(t *testing.T) {
	stream := "event: meta\n" +
		"data: {\"userMessageId\":\"m_1\",\"assistantMessageId\":\"m_2\"}\n" +
		"\n" +
		"event: delta\n" +
		"data: {\"text\":\"Hi \"}\n" +
		"\n" +
		"event: delta\n" +
		"data: {\"text\":\"there\"}\n" +
		"\n" +
		"event: done\n" +
		"data: {\"status\":\"done\",\"provider\":\"acme\"}\n" +
		"\n"
	d := streamclient.NewDecoder(&chunkReader{chunks: []string{stream}})

	events := drain(t, d)
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4", len(events))
	}
	wantTypes := []chat.EventType{chat.EventMeta, chat.EventDelta, chat.EventDelta, chat.EventDone}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event %d type = %s, want %s", i, events[i].Type, want)
		}
	}
	if events[0].Meta.AssistantMessageID != "m_2" {
		t.Errorf("meta = %+v", events[0].Meta)
	}
	if events[1].Delta.Text+events[2].Delta.Text != "Hi there" {
		t.Errorf("delta concat = %q", events[1].Delta.Text+events[2].Delta.Text)
	}
}

func TestDecoder_MalformedLineSkipped(t *testing.T) {
	stream := "event: delta\n" +
		"data: {not json\n" +
		"\n" +
		"event: delta\n" +
		"data: {\"text\":\"ok\"}\n" +
		"\n"
	d := streamclient.NewDecoder(&chunkReader{chunks: []string{stream}})

	events := drain(t, d)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 after skipping malformed line", len(events))
	}
	if events[0].Delta.Text != "ok" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestDecoder_UnknownEventNameSkipped(t *testing.T) {
	stream := "event: heartbeat\n" +
		"data: {}\n" +
		"\n" +
		"event: done\n" +
		"data: {\"status\":\"done\"}\n" +
		"\n"
	d := streamclient.NewDecoder(&chunkReader{chunks: []string{stream}})

	events := drain(t, d)
	if len(events) != 1 || events[0].Type != chat.EventDone {
		t.Fatalf("events = %+v, want single done", events)
	}
}

func TestDecoder_CommentsAndCRLF(t *testing.T) {
	stream := ": keepalive\r\n" +
		"event: delta\r\n" +
		"data: {\"text\":\"x\"}\r\n" +
		"\r\n"
	d := streamclient.NewDecoder(&chunkReader{chunks: []string{stream}})

	events := drain(t, d)
	if len(events) != 1 || events[0].Delta.Text != "x" {
		t.Fatalf("events = %+v, want single delta x", events)
	}
}

func TestDecoder_TrailingPartialDiscarded(t *testing.T) {
	stream := "event: delta\n" +
		"data: {\"text\":\"whole\"}\n" +
		"\n" +
		"data: {\"text\":\"cut off"
	d := streamclient.NewDecoder(&chunkReader{chunks: []string{stream}})

	events := drain(t, d)
	if len(events) != 1 || events[0].Delta.Text != "whole" {
		t.Fatalf("events = %+v, want single delta whole", events)
	}
}

func TestDecoder_Close(t *testing.T) {
	src := &chunkReader{}
	d := streamclient.NewDecoder(src)
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !src.closed {
		t.Error("Close() did not release the body")
	}
}
