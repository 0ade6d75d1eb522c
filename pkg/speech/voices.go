package speech

import "strings"

// PreferredLangPrefix is the language prefix picked for the default voice.
const PreferredLangPrefix = "en-"

// DefaultVoice picks the first voice whose language starts with "en-",
// falling back to the first voice. Returns nil for an empty list.
func DefaultVoice(voices []Voice) *Voice {
	if len(voices) == 0 {
		return nil
	}
	for i := range voices {
		if strings.HasPrefix(voices[i].Lang, PreferredLangPrefix) {
			v := voices[i]
			return &v
		}
	}
	v := voices[0]
	return &v
}

// FindVoice looks up a voice by name, then by URI.
func FindVoice(voices []Voice, name string) (Voice, bool) {
	for _, v := range voices {
		if v.Name == name {
			return v, true
		}
	}
	for _, v := range voices {
		if v.URI != "" && v.URI == name {
			return v, true
		}
	}
	return Voice{}, false
}
