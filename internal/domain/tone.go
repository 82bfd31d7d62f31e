package domain

import "fmt"

// Tone is one of the five predefined emotional categories scored
// independently per book.
type Tone string

// The display names exposed to callers.
const (
	ToneHappy       Tone = "Happy"
	ToneSurprising  Tone = "Surprising"
	ToneAngry       Tone = "Angry"
	ToneSuspenseful Tone = "Suspenseful"
	ToneSad         Tone = "Sad"
)

// toneScoreKeys maps each display name to its internal emotion score key.
// Fixed lookup table, not dynamic dispatch.
var toneScoreKeys = map[Tone]string{
	ToneHappy:       "joy",
	ToneSurprising:  "surprise",
	ToneAngry:       "anger",
	ToneSuspenseful: "fear",
	ToneSad:         "sadness",
}

// Tones returns every supported tone in display order.
func Tones() []Tone {
	return []Tone{ToneHappy, ToneSurprising, ToneAngry, ToneSuspenseful, ToneSad}
}

// ParseTone validates a caller-supplied tone name.
// The empty string and the "All" sentinel both mean "no tone filter"
// and return false for filtered.
func ParseTone(s string) (t Tone, filtered bool, err error) {
	if s == "" || s == AllSentinel {
		return "", false, nil
	}
	t = Tone(s)
	if _, ok := toneScoreKeys[t]; !ok {
		return "", false, fmt.Errorf("%w: %q", ErrUnknownTone, s)
	}
	return t, true, nil
}

// ScoreKey returns the internal emotion score key for the tone
// (e.g. "joy" for Happy). Empty for unknown tones.
func (t Tone) ScoreKey() string {
	return toneScoreKeys[t]
}

// IsValid reports whether the tone is one of the five supported names.
func (t Tone) IsValid() bool {
	_, ok := toneScoreKeys[t]
	return ok
}

func (t Tone) String() string { return string(t) }
