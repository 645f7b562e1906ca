package roles

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"burnish/internal/services"
	"burnish/internal/transcript"
)

//go:embed synonyms.yaml
var defaultSynonymsYAML []byte

var defaultDictionary = mustParseSynonyms(defaultSynonymsYAML)

// Dictionary maps role labels, in any of the supported languages, onto
// canonical roles. The canonical role names themselves always match.
type Dictionary struct {
	byLabel map[string]transcript.Role
}

type synonymsFile struct {
	Coach  []string `yaml:"coach"`
	Client []string `yaml:"client"`
}

// DefaultDictionary returns the built-in synonym table.
func DefaultDictionary() *Dictionary {
	return defaultDictionary
}

// LoadDictionary returns the built-in table extended with the entries from
// path. An empty path yields the defaults. File entries win over built-in
// ones when a label appears in both.
func LoadDictionary(path string) (*Dictionary, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultDictionary(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "roles", "load_synonyms", "read synonym dictionary", err)
	}
	extra, err := parseSynonyms(data)
	if err != nil {
		return nil, err
	}
	merged := &Dictionary{byLabel: make(map[string]transcript.Role, len(defaultDictionary.byLabel)+len(extra.byLabel))}
	for label, role := range defaultDictionary.byLabel {
		merged.byLabel[label] = role
	}
	for label, role := range extra.byLabel {
		merged.byLabel[label] = role
	}
	return merged, nil
}

// CanonicalRole maps a free-form role label onto its canonical role. The
// second result reports whether the label was recognized; unrecognized
// labels come back as RoleUnknown.
func (d *Dictionary) CanonicalRole(label string) (transcript.Role, bool) {
	normalized := normalizeLabel(label)
	if normalized == "" {
		return transcript.RoleUnknown, false
	}
	switch normalized {
	case string(transcript.RoleCoach):
		return transcript.RoleCoach, true
	case string(transcript.RoleClient):
		return transcript.RoleClient, true
	case string(transcript.RoleUnknown):
		return transcript.RoleUnknown, true
	}
	if role, ok := d.byLabel[normalized]; ok {
		return role, true
	}
	return transcript.RoleUnknown, false
}

func parseSynonyms(data []byte) (*Dictionary, error) {
	var file synonymsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "roles", "parse_synonyms", "decode synonym dictionary", err)
	}
	d := &Dictionary{byLabel: make(map[string]transcript.Role)}
	for _, label := range file.Coach {
		d.add(label, transcript.RoleCoach)
	}
	for _, label := range file.Client {
		d.add(label, transcript.RoleClient)
	}
	return d, nil
}

func mustParseSynonyms(data []byte) *Dictionary {
	d, err := parseSynonyms(data)
	if err != nil {
		panic(fmt.Sprintf("roles: embedded synonyms: %v", err))
	}
	return d
}

func (d *Dictionary) add(label string, role transcript.Role) {
	normalized := normalizeLabel(label)
	if normalized == "" {
		return
	}
	d.byLabel[normalized] = role
}

// normalizeLabel lowers a label and strips surrounding punctuation so
// variants like "Coach:" or "【教練】" match their dictionary entries.
func normalizeLabel(label string) string {
	trimmed := strings.TrimFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToLower(trimmed)
}
