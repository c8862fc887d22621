package bot

import (
	"context"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/darkroom/internal/moderation"
)

type handlerStub struct {
	got      []moderation.Message
	decision moderation.Decision
}

func (h *handlerStub) Handle(_ context.Context, msg moderation.Message) moderation.Decision {
	h.got = append(h.got, msg)
	return h.decision
}

type senderStub struct {
	sent []api.Chattable
}

func (s *senderStub) Send(c api.Chattable) (api.Message, error) {
	s.sent = append(s.sent, c)
	return api.Message{}, nil
}

func newTestPoller(handler Handler, sender Sender) *Poller {
	return &Poller{
		sender:  sender,
		handler: handler,
		logger:  log.NewEntry(log.New()),
		failed:  make(chan error, 1),
	}
}

func TestToModerationMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		msg    *api.Message
		want   moderation.Message
		wantOK bool
	}{
		{
			name:   "nil message",
			msg:    nil,
			wantOK: false,
		},
		{
			name:   "no sender",
			msg:    &api.Message{Text: "hi"},
			wantOK: false,
		},
		{
			name:   "bot sender",
			msg:    &api.Message{Text: "hi", From: &api.User{ID: 1, IsBot: true}},
			wantOK: false,
		},
		{
			name:   "blank text",
			msg:    &api.Message{Text: "   ", From: &api.User{ID: 1}},
			wantOK: false,
		},
		{
			name: "private chat",
			msg: &api.Message{
				Text: " hi ",
				From: &api.User{ID: 42, UserName: "alice", FirstName: "Alice", LanguageCode: "zh-hans"},
				Chat: api.Chat{ID: 42, Type: "private"},
			},
			want:   moderation.Message{UserID: "42", UserName: "alice", Text: "hi", Language: "zh"},
			wantOK: true,
		},
		{
			name: "group chat without username",
			msg: &api.Message{
				Text: "hello",
				From: &api.User{ID: 7, FirstName: "Bob", LastName: "Builder"},
				Chat: api.Chat{ID: -100, Type: "supergroup"},
			},
			want:   moderation.Message{UserID: "7", UserName: "Bob Builder", GroupName: "Bob Builder", Text: "hello", IsGroup: true},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ToModerationMessage(tt.msg)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestProcessSendsReply(t *testing.T) {
	t.Parallel()

	handler := &handlerStub{decision: moderation.Decision{State: moderation.StateFloodViolation, Block: true, Reply: "go away"}}
	sender := &senderStub{}
	p := newTestPoller(handler, sender)

	p.Process(context.Background(), &api.Update{Message: &api.Message{
		MessageID: 10,
		Text:      "hi",
		From:      &api.User{ID: 1, UserName: "u"},
		Chat:      api.Chat{ID: 1, Type: "private"},
	}})

	if len(handler.got) != 1 {
		t.Fatalf("expected one handled message, got %d", len(handler.got))
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(sender.sent))
	}
	reply, ok := sender.sent[0].(api.MessageConfig)
	if !ok {
		t.Fatalf("unexpected chattable %T", sender.sent[0])
	}
	if reply.Text != "go away" {
		t.Fatalf("unexpected reply text: %q", reply.Text)
	}
}

func TestProcessSkipsSilentDecisions(t *testing.T) {
	t.Parallel()

	handler := &handlerStub{decision: moderation.Decision{State: moderation.StateClean}}
	sender := &senderStub{}
	p := newTestPoller(handler, sender)

	p.Process(context.Background(), &api.Update{Message: &api.Message{
		Text: "hi",
		From: &api.User{ID: 1},
		Chat: api.Chat{ID: 1, Type: "private"},
	}})
	p.Process(context.Background(), &api.Update{})
	p.Process(context.Background(), nil)

	if len(handler.got) != 1 {
		t.Fatalf("expected one handled message, got %d", len(handler.got))
	}
	if len(sender.sent) != 0 {
		t.Fatalf("clean decision must not reply, got %d", len(sender.sent))
	}
}
