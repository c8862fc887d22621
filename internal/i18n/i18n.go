package i18n

import (
	"path"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/iamwavecut/darkroom/resources"
)

const defaultLanguage = "en"

var state = struct {
	sync.RWMutex
	translations map[string]map[string]string
	loaded       map[string]bool
}{
	translations: make(map[string]map[string]string),
	loaded:       make(map[string]bool),
}

func load(lang string) map[string]string {
	state.Lock()
	defer state.Unlock()
	if state.loaded[lang] {
		return state.translations[lang]
	}
	state.loaded[lang] = true

	data, err := resources.FS.ReadFile(path.Join("i18n", lang+".yml"))
	if err != nil {
		log.WithError(err).WithField("lang", lang).Debug("no i18n catalogue")
		return nil
	}
	translations := make(map[string]string)
	if err := yaml.Unmarshal(data, &translations); err != nil {
		log.WithError(err).WithField("lang", lang).Errorln("cant unmarshal i18n")
		return nil
	}
	state.translations[lang] = translations
	return translations
}

// Get returns the translation of key, falling back to the key itself which is the English text.
func Get(key, lang string) string {
	if lang == "" || lang == defaultLanguage {
		return key
	}
	state.RLock()
	translations, ok := state.translations[lang], state.loaded[lang]
	state.RUnlock()
	if !ok {
		translations = load(lang)
	}
	if res, ok := translations[key]; ok {
		return res
	}
	log.WithField("lang", lang).Tracef(`no translation for key "%s"`, key)
	return key
}
