package locator

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/earnings-cli/internal/model"
)

// Rules describes how the source site labels documents and titles quarters.
// The defaults match the live site; a YAML file can override them when the
// markup changes, without a rebuild.
type Rules struct {
	// Labels maps each document kind to the link texts that identify it.
	Labels map[model.DocumentKind][]string `yaml:"labels"`

	// QuarterPatterns are title templates tried in order when looking for a
	// quarter on the company page. Placeholders: {q} {year} {yy}.
	QuarterPatterns []string `yaml:"quarter_patterns"`
}

// DefaultRules returns the built-in rules for the source site.
func DefaultRules() Rules {
	return Rules{
		Labels: map[model.DocumentKind][]string{
			model.KindPressRelease: {"Press Release"},
			model.KindPresentation: {"Presentation"},
			model.KindTranscript:   {"Transcript"},
		},
		QuarterPatterns: []string{"{q} {year}", "{q} FY{year}", "{q} {yy}"},
	}
}

// LoadRules reads locator rules from a YAML file. Missing sections fall back
// to the defaults.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrapf(err, "locator: read rules %s", path)
	}

	// The YAML has a top-level "locator" key
	var wrapper struct {
		Locator Rules `yaml:"locator"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Rules{}, eris.Wrap(err, "locator: parse rules")
	}

	rules := wrapper.Locator
	defaults := DefaultRules()
	if len(rules.Labels) == 0 {
		rules.Labels = defaults.Labels
	}
	if len(rules.QuarterPatterns) == 0 {
		rules.QuarterPatterns = defaults.QuarterPatterns
	}
	return rules, nil
}

// QuarterTitles expands the patterns for one period, e.g. "Q1 2025",
// "Q1 FY2025", "Q1 25".
func (r Rules) QuarterTitles(p model.FiscalPeriod) []string {
	yy := fmt.Sprintf("%02d", p.Year%100)
	titles := make([]string, 0, len(r.QuarterPatterns))
	for _, pat := range r.QuarterPatterns {
		s := strings.NewReplacer(
			"{q}", p.QuarterString(),
			"{year}", fmt.Sprintf("%d", p.Year),
			"{yy}", yy,
		).Replace(pat)
		titles = append(titles, s)
	}
	return titles
}
