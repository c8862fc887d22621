package moderation

import (
	"strings"
	"time"

	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/darkroom/internal/config"
	"github.com/iamwavecut/darkroom/internal/db"
	"github.com/iamwavecut/darkroom/internal/i18n"
)

const releaseTimeLayout = "2006/01/02 15:04"

func formatReply(key, lang string, data map[string]any) string {
	return tool.ExecTemplate(i18n.Get(key, lang), data)
}

func minutes(d time.Duration) int64 {
	return int64(d / time.Minute)
}

func floodReply(ban time.Duration, lang string) string {
	return formatReply("You are flooding the chat! Off to the dark room for {{ .minutes }} minutes.", lang, map[string]any{
		"minutes": minutes(ban),
	})
}

func wordReply(ban time.Duration, lang string) string {
	return formatReply("Banned words are not allowed! Off to the dark room for {{ .minutes }} minutes.", lang, map[string]any{
		"minutes": minutes(ban),
	})
}

func suspendedReply(s *db.Suspension, now time.Time, lang string) string {
	return formatReply("You are already in the dark room.\nTime left: {{ .remaining }}s\nRelease at: {{ .release_at }}", lang, map[string]any{
		"remaining":  s.Remaining(now),
		"release_at": s.ReleaseTime().Format(releaseTimeLayout),
	})
}

func listReply(suspensions []*db.Suspension, lang string) string {
	if len(suspensions) == 0 {
		return i18n.Get("The dark room is empty. Keep it up!", lang)
	}

	var b strings.Builder
	b.WriteString(i18n.Get("Dark room inmates:", lang))
	for _, s := range suspensions {
		b.WriteString("\n")
		b.WriteString(formatReply("[{{ .name }}]{{ if .group }} ({{ .group }}){{ end }}\n    Release at: {{ .release_at }}\n    Reason: {{ .reason }}", lang, map[string]any{
			"name":       s.UserName,
			"group":      s.GroupName.String,
			"release_at": s.ReleaseTime().Format(releaseTimeLayout),
			"reason":     i18n.Get(s.Reason, lang),
		}))
	}
	return b.String()
}

func helpReply(cfg config.Moderation, lang string) string {
	return formatReply("Be nice: flooding or banned words send you to the dark room for {{ .minutes }} minutes.\nAdmins: {{ .marker }}auth <password>, {{ .marker }}show, {{ .marker }}release <name>, {{ .marker }}releaseall", lang, map[string]any{
		"minutes": minutes(cfg.DurationOfBan),
		"marker":  cfg.CommandMarker,
	})
}
