package bot

import (
	"context"
	"strconv"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/darkroom/internal/i18n"
	"github.com/iamwavecut/darkroom/internal/moderation"
)

// GetUpdatesChans long-polls telegram until ctx is done. The error channel receives
// the first polling failure or the context error.
func GetUpdatesChans(ctx context.Context, bot *api.BotAPI, config api.UpdateConfig) (api.UpdatesChannel, chan error) {
	ch := make(chan api.Update, bot.Buffer)
	chErr := make(chan error, 1)

	go func() {
		defer close(ch)
		defer close(chErr)
		for {
			select {
			case <-ctx.Done():
				chErr <- ctx.Err()
				return
			default:
				updates, err := bot.GetUpdates(config)
				if err != nil {
					chErr <- err
					return
				}

				for _, update := range updates {
					if update.UpdateID >= config.Offset {
						config.Offset = update.UpdateID + 1
						select {
						case ch <- update:
						case <-ctx.Done():
							chErr <- ctx.Err()
							return
						}
					}
				}
			}
		}
	}()

	return ch, chErr
}

func GetUN(user *api.User) string {
	if user == nil {
		return ""
	}
	userName := user.UserName
	if len(userName) == 0 {
		userName = user.FirstName + " " + user.LastName
		userName = strings.TrimSpace(userName)
	}
	return userName
}

func GetFullName(user *api.User) string {
	if user == nil {
		return ""
	}
	fullName := user.FirstName + " " + user.LastName
	fullName = strings.TrimSpace(fullName)
	if len(fullName) == 0 {
		fullName = user.UserName
	}
	return fullName
}

// ToModerationMessage maps a text message onto the moderator input; ok is false for
// anything the dark room does not look at.
func ToModerationMessage(msg *api.Message) (moderation.Message, bool) {
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return moderation.Message{}, false
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return moderation.Message{}, false
	}

	isGroup := msg.Chat.Type != "private"
	res := moderation.Message{
		UserID:   strconv.FormatInt(msg.From.ID, 10),
		UserName: GetUN(msg.From),
		Text:     text,
		IsGroup:  isGroup,
		Language: i18n.Normalize(msg.From.LanguageCode),
	}
	if isGroup {
		res.GroupName = GetFullName(msg.From)
	}
	return res, true
}
