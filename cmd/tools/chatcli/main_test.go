package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

type scriptedRelay struct {
	replies map[string]string
	sent    []string
}

func (s *scriptedRelay) Send(_ context.Context, message string) (string, error) {
	s.sent = append(s.sent, message)
	reply, ok := s.replies[message]
	if !ok {
		return "", errors.New("connection refused")
	}
	return reply, nil
}

func TestRunChatRendersConversation(t *testing.T) {
	relay := &scriptedRelay{replies: map[string]string{"hello": "Hi there!"}}
	in := strings.NewReader("hello\n   \nfail\n/quit\nignored\n")
	var out bytes.Buffer

	if err := runChat(context.Background(), in, &out, relay, "TJ"); err != nil {
		t.Fatalf("runChat err: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Talk to TJ", "you: hello", "TJ is typing...", "TJ: Hi there!", "message not delivered: connection refused"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}

	if len(relay.sent) != 2 || relay.sent[0] != "hello" || relay.sent[1] != "fail" {
		t.Fatalf("unexpected relayed messages %q", relay.sent)
	}
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"server", "name", "timeout"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("missing flag %q", name)
		}
	}
}
