package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"aichat-go/internal/config"
	"aichat-go/pkg/tasks"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.queue) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := r.queue[0]
	r.queue = r.queue[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type recordingProcessor struct {
	got []tasks.TurnRecordTask
	err error
}

func (p *recordingProcessor) Process(_ context.Context, task tasks.TurnRecordTask) error {
	p.got = append(p.got, task)
	return p.err
}

func TestPublishKeysBySession(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}

	task := tasks.TurnRecordTask{UserID: 1, SessionID: 2, Question: "q", Answer: "a"}
	if err := p.Publish(context.Background(), task); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages written = %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "1:2" {
		t.Fatalf("key = %q", w.msgs[0].Key)
	}
	var decoded tasks.TurnRecordTask
	if err := json.Unmarshal(w.msgs[0].Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Question != "q" || decoded.Answer != "a" {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Producer{writer: &fakeWriter{err: boom}}
	if err := p.Publish(context.Background(), tasks.TurnRecordTask{}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want broker error", err)
	}
}

func TestConsumeCommitsEveryMessage(t *testing.T) {
	good, _ := json.Marshal(tasks.TurnRecordTask{UserID: 7, SessionID: 9, Question: "q", Answer: "a"})
	r := &fakeReader{queue: []kafka.Message{
		{Offset: 1, Value: good},
		{Offset: 2, Value: []byte("not json")},
		{Offset: 3, Value: good},
	}}
	proc := &recordingProcessor{err: errors.New("db down")}

	consume(context.Background(), r, proc)

	if len(proc.got) != 2 {
		t.Fatalf("processed = %d, want 2 (malformed message skipped)", len(proc.got))
	}
	if len(r.committed) != 3 {
		t.Fatalf("committed = %v, want all three offsets", r.committed)
	}
	if !r.closed {
		t.Fatal("reader not closed after consumer stopped")
	}
}

func TestBrokersSplitsList(t *testing.T) {
	got := brokers(config.KafkaConfig{Brokers: "a:9092, b:9092,,"})
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("brokers = %v", got)
	}
}
