package moderation

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/darkroom/internal/i18n"
	"github.com/iamwavecut/darkroom/internal/observability"
)

func (m *Moderator) execute(ctx context.Context, entry *log.Entry, msg Message, cmd Command) Decision {
	entry = entry.WithFields(log.Fields{
		"method": "execute",
		"verb":   cmd.Verb,
	})

	if cmd.requiresAdmin() && !m.isAdmin(msg) {
		entry.Warn("admin command from non-admin")
		return commandReply(i18n.Get("You don't have admin rights to do that.", msg.Language))
	}

	var reply string
	switch cmd.Verb {
	case verbAuth:
		reply = m.authCommand(entry, msg, cmd.Arg)
	case verbRelease:
		reply = m.releaseCommand(ctx, entry, msg, cmd.Arg)
	case verbShow:
		reply = m.showCommand(ctx, entry, msg)
	case verbReleaseAll:
		reply = m.releaseAllCommand(ctx, entry, msg)
	case verbHelp:
		reply = helpReply(m.config, msg.Language)
	}
	return commandReply(reply)
}

func commandReply(text string) Decision {
	return Decision{State: StateAdminCommand, Block: true, Reply: text}
}

func (m *Moderator) authCommand(entry *log.Entry, msg Message, password string) string {
	if msg.IsGroup {
		entry.Warn("auth attempt in group chat")
		return i18n.Get("Authentication is not allowed in group chats, message me directly.", msg.Language)
	}
	if m.isAdmin(msg) {
		return i18n.Get("You are already an admin.", msg.Language)
	}
	if m.config.AdminPassword == "" || password != m.config.AdminPassword {
		entry.Warn("wrong admin password")
		return i18n.Get("Authentication failed.", msg.Language)
	}
	m.admins.Add(msg.UserID)
	entry.Info("user authenticated as admin")
	return i18n.Get("Authenticated, you are an admin now.", msg.Language)
}

func (m *Moderator) releaseCommand(ctx context.Context, entry *log.Entry, msg Message, arg string) string {
	target := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(arg), "@"))
	if target == "" {
		return i18n.Get("Usage: release <name>", msg.Language)
	}
	entry = entry.WithField("target", target)

	userID, err := m.store.FindSuspendedUserID(ctx, target)
	if err != nil {
		entry.WithError(err).Error("cant find suspended user")
		return i18n.Get("Something went wrong, please try again later.", msg.Language)
	}
	if userID == "" {
		entry.Warn("user is not in the dark room")
		return formatReply("User [{{ .name }}] is not in the dark room.", msg.Language, map[string]any{"name": target})
	}

	removed, err := m.store.DeleteSuspension(ctx, userID)
	if err != nil {
		entry.WithError(err).Error("cant release user")
		return i18n.Get("Something went wrong, please try again later.", msg.Language)
	}
	m.tracker.Reset(userID)
	if !removed {
		return formatReply("User [{{ .name }}] is not in the dark room.", msg.Language, map[string]any{"name": target})
	}

	observability.RecordRelease("admin", 1)
	entry.WithField("target_id", userID).Info("user released by admin")
	return formatReply("User [{{ .name }}] has been released from the dark room.", msg.Language, map[string]any{"name": target})
}

func (m *Moderator) showCommand(ctx context.Context, entry *log.Entry, msg Message) string {
	suspensions, err := m.store.ListSuspensions(ctx)
	if err != nil {
		entry.WithError(err).Error("cant list suspensions")
		return i18n.Get("Something went wrong, please try again later.", msg.Language)
	}
	return listReply(suspensions, msg.Language)
}

func (m *Moderator) releaseAllCommand(ctx context.Context, entry *log.Entry, msg Message) string {
	removed, err := m.store.DeleteAllSuspensions(ctx)
	if err != nil {
		entry.WithError(err).Error("cant release all users")
		return i18n.Get("Something went wrong, please try again later.", msg.Language)
	}
	m.tracker.ResetAll()
	observability.RecordRelease("admin_all", int(removed))
	entry.WithField("released", removed).Info("dark room cleared")
	return formatReply("Released {{ .count }} user(s) from the dark room.", msg.Language, map[string]any{"count": removed})
}
