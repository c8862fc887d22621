package moderation

import (
	"strings"
)

const (
	verbAuth       = "auth"
	verbRelease    = "release"
	verbShow       = "show"
	verbReleaseAll = "releaseall"
	verbHelp       = "help"

	// legacyMarker is accepted next to the configured one.
	legacyMarker = "~"
	// releaseAlias may carry its argument glued on: ~移除bob
	releaseAlias = "移除"
	showAlias    = "小黑屋"
)

// verbAliases keeps commands typed in older chats working.
var verbAliases = map[string]string{
	releaseAlias: verbRelease,
	showAlias:    verbShow,
}

var knownVerbs = map[string]bool{
	verbAuth:       true,
	verbRelease:    true,
	verbShow:       true,
	verbReleaseAll: true,
	verbHelp:       true,
}

type Command struct {
	Verb string
	Arg  string
}

// ParseCommand extracts a known command from text. Anything else, including unknown
// verbs, is reported as not a command so it is handled as ordinary chat.
func ParseCommand(text, marker string) (Command, bool) {
	text = strings.TrimSpace(text)
	var rest string
	switch {
	case marker != "" && strings.HasPrefix(text, marker):
		rest = text[len(marker):]
	case strings.HasPrefix(text, legacyMarker):
		rest = text[len(legacyMarker):]
	default:
		return Command{}, false
	}

	verb, arg, _ := strings.Cut(rest, " ")
	if attached, ok := strings.CutPrefix(verb, releaseAlias); ok && attached != "" {
		verb, arg = releaseAlias, attached+" "+arg
	}
	// telegram appends the bot username to commands in groups: /show@darkroom_bot
	verb, _, _ = strings.Cut(verb, "@")
	verb = strings.ToLower(verb)
	if target, ok := verbAliases[verb]; ok {
		verb = target
	}
	if !knownVerbs[verb] {
		return Command{}, false
	}
	return Command{Verb: verb, Arg: strings.TrimSpace(arg)}, true
}

func (c Command) requiresAdmin() bool {
	switch c.Verb {
	case verbRelease, verbShow, verbReleaseAll:
		return true
	}
	return false
}
