package bot

import (
	"context"
	"sync"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/darkroom/internal/infra"
	"github.com/iamwavecut/darkroom/internal/moderation"
)

type (
	// Handler is the moderation entry point the poller feeds.
	Handler interface {
		Handle(ctx context.Context, msg moderation.Message) moderation.Decision
	}

	// Sender abstracts the part of the bot API used to answer, so tests can capture replies.
	Sender interface {
		Send(c api.Chattable) (api.Message, error)
	}

	// Poller reads telegram updates and runs every text message through the moderator.
	// Updates are handled one at a time, which keeps a single user's messages ordered.
	Poller struct {
		bot     *api.BotAPI
		sender  Sender
		handler Handler
		logger  *log.Entry

		mu      sync.Mutex
		started bool
		cancel  context.CancelFunc
		wg      sync.WaitGroup
		failed  chan error
	}
)

func NewPoller(bot *api.BotAPI, handler Handler) *Poller {
	return &Poller{
		bot:     bot,
		sender:  bot,
		handler: handler,
		logger:  log.WithField("component", "poller"),
		failed:  make(chan error, 1),
	}
}

func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.started = true

	updateConfig := api.NewUpdate(0)
	updateConfig.Timeout = 60
	updates, errs := GetUpdatesChans(runCtx, p.bot, updateConfig)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case err, ok := <-errs:
				if ok && runCtx.Err() == nil {
					p.logger.WithError(err).Error("bot api get updates error")
					p.failed <- err
				}
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				p.Process(runCtx, &update)
			}
		}
	}()
	return nil
}

func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.bot.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Failed reports a fatal polling error.
func (p *Poller) Failed() <-chan error {
	return p.failed
}

// Process moderates a single update and sends the reply, if any.
func (p *Poller) Process(ctx context.Context, update *api.Update) {
	if update == nil {
		return
	}
	defer infra.Recover(p.logger, "process_update", nil)

	msg := update.Message
	input, ok := ToModerationMessage(msg)
	if !ok {
		return
	}

	decision := p.handler.Handle(ctx, input)
	if !decision.HasReply() {
		return
	}

	reply := api.NewMessage(msg.Chat.ID, decision.Reply)
	reply.ReplyParameters.AllowSendingWithoutReply = true
	reply.ReplyParameters.MessageID = msg.MessageID
	reply.ReplyParameters.ChatID = msg.Chat.ID
	reply.MessageThreadID = msg.MessageThreadID
	if err := tool.Err(p.sender.Send(reply)); err != nil {
		p.logger.WithError(err).WithField("chat_id", msg.Chat.ID).Error("cant send reply")
	}
}
