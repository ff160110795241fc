// Package content holds the per-religion content tables the mini-games and
// the companion draw from.
package content

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
)

//go:embed data/*.yaml
var defaultsFS embed.FS

// MinItems is the number of entries a table needs to serve the largest
// element count in the difficulty table.
const MinItems = 10

type Building struct {
	Name  string `yaml:"name" json:"name"`
	Emoji string `yaml:"emoji" json:"emoji"`
}

type Pair struct {
	Term    string `yaml:"term" json:"term"`
	Meaning string `yaml:"meaning" json:"meaning"`
}

type Passage struct {
	Title string   `yaml:"title" json:"title"`
	Lines []string `yaml:"lines" json:"lines"`
}

type Chapter struct {
	Chapter int    `yaml:"chapter" json:"chapter"`
	Title   string `yaml:"title" json:"title"`
	Story   string `yaml:"story" json:"story"`
}

type Persona struct {
	Name         string `yaml:"name" json:"name"`
	Title        string `yaml:"title" json:"title"`
	Greeting     string `yaml:"greeting" json:"greeting"`
	SystemPrompt string `yaml:"system_prompt" json:"-"`
}

type FallbackQuestion struct {
	Question string   `yaml:"question"`
	Options  []string `yaml:"options"`
	Answer   int      `yaml:"answer"`
}

// Bank is the content of one religion.
type Bank struct {
	Religion  models.Religion    `yaml:"religion"`
	Persona   Persona            `yaml:"persona"`
	Buildings []Building         `yaml:"buildings"`
	Pairs     []Pair             `yaml:"pairs"`
	Passages  []Passage          `yaml:"passages"`
	Symbols   []string           `yaml:"symbols"`
	Chapters  []Chapter          `yaml:"chapters"`
	Replies   []string           `yaml:"replies"`
	Questions []FallbackQuestion `yaml:"questions"`
	Tips      []string           `yaml:"tips"`
}

// Validate checks that the bank can serve every chapter.
func (b *Bank) Validate() error {
	if !b.Religion.Valid() {
		return fmt.Errorf("unknown religion %q", b.Religion)
	}
	if len(b.Buildings) < MinItems {
		return fmt.Errorf("%s: need at least %d buildings, have %d", b.Religion, MinItems, len(b.Buildings))
	}
	if len(b.Pairs) < MinItems {
		return fmt.Errorf("%s: need at least %d pairs, have %d", b.Religion, MinItems, len(b.Pairs))
	}
	if len(b.Passages) == 0 {
		return fmt.Errorf("%s: no passages", b.Religion)
	}
	for _, p := range b.Passages {
		if len(p.Lines) < MinItems {
			return fmt.Errorf("%s: passage %q has %d lines, need %d", b.Religion, p.Title, len(p.Lines), MinItems)
		}
	}
	if len(b.Symbols) < 4 {
		return fmt.Errorf("%s: need at least 4 pattern symbols", b.Religion)
	}
	if len(b.Replies) == 0 {
		return fmt.Errorf("%s: no fallback replies", b.Religion)
	}
	for i, q := range b.Questions {
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return fmt.Errorf("%s: question %d answer out of range", b.Religion, i)
		}
	}
	return nil
}

// Library indexes banks by religion.
type Library struct {
	banks map[models.Religion]*Bank
}

// Load reads the embedded banks and replaces any of them with
// <dir>/<religion>.yaml when dir is set and the file exists.
func Load(dir string) (*Library, error) {
	log := logger.Default().WithPrefix("content")
	lib := &Library{banks: make(map[models.Religion]*Bank, len(models.Religions))}

	for _, r := range models.Religions {
		name := string(r) + ".yaml"
		data, err := defaultsFS.ReadFile("data/" + name)
		if err != nil {
			return nil, fmt.Errorf("read embedded %s: %w", name, err)
		}
		if dir != "" {
			path := filepath.Join(dir, name)
			if override, err := os.ReadFile(path); err == nil {
				log.Info("using content override: %s", path)
				data = override
			}
		}

		var b Bank
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if b.Religion == "" {
			b.Religion = r
		}
		if err := b.Validate(); err != nil {
			return nil, err
		}
		lib.banks[r] = &b
		log.Debug("loaded %s: %d buildings, %d pairs, %d passages", r, len(b.Buildings), len(b.Pairs), len(b.Passages))
	}
	return lib, nil
}

// MustLoadDefaults loads the embedded banks and panics on failure. Intended
// for tests.
func MustLoadDefaults() *Library {
	lib, err := Load("")
	if err != nil {
		panic(err)
	}
	return lib
}

// Bank returns the bank of a religion, falling back to Buddhism for unknown
// values.
func (l *Library) Bank(r models.Religion) *Bank {
	if b, ok := l.banks[r]; ok {
		return b
	}
	return l.banks[models.Buddhism]
}
