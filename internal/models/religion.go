package models

import "strings"

// Religion is the belief system a profile follows. It selects the content
// bank and the companion persona.
type Religion string

const (
	Buddhism Religion = "buddhism"
	Taoism   Religion = "taoism"
	Mazu     Religion = "mazu"
)

// Religions lists every supported belief system in display order.
var Religions = []Religion{Buddhism, Taoism, Mazu}

// ParseReligion normalizes user input; ok is false for unknown values.
func ParseReligion(s string) (Religion, bool) {
	r := Religion(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Religions {
		if r == known {
			return r, true
		}
	}
	return "", false
}

func (r Religion) Valid() bool {
	_, ok := ParseReligion(string(r))
	return ok
}
