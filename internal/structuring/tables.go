package structuring

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed compliance_usury.yaml
var usuryYAML []byte

//go:embed compliance_disclosures.yaml
var disclosuresYAML []byte

// usuryLimit is one state's rate ceilings. A zero field means that category
// is uncapped.
type usuryLimit struct {
	Commercial float64 `yaml:"commercial"`
	Consumer   float64 `yaml:"consumer"`
}

type usuryTable struct {
	States map[string]usuryLimit `yaml:"states"`
}

type disclosureTable struct {
	States map[string][]string `yaml:"states"`
}

// complianceTables holds the embedded regulatory reference data. Parsed once
// at construction and read-only afterwards.
type complianceTables struct {
	usury       map[string]usuryLimit
	disclosures map[string][]string
}

func loadComplianceTables() (*complianceTables, error) {
	var u usuryTable
	if err := yaml.Unmarshal(usuryYAML, &u); err != nil {
		return nil, eris.Wrap(err, "structuring: parse usury table")
	}
	var d disclosureTable
	if err := yaml.Unmarshal(disclosuresYAML, &d); err != nil {
		return nil, eris.Wrap(err, "structuring: parse disclosure table")
	}
	return &complianceTables{usury: u.States, disclosures: d.States}, nil
}

// usuryCeiling returns the applicable annual rate cap for a state, or false
// when the state imposes none on the category.
func (t *complianceTables) usuryCeiling(stateAbbr string, commercial bool) (float64, bool) {
	lim, ok := t.usury[strings.ToUpper(strings.TrimSpace(stateAbbr))]
	if !ok {
		return 0, false
	}
	ceiling := lim.Consumer
	if commercial {
		ceiling = lim.Commercial
	}
	return ceiling, ceiling > 0
}

// stateDisclosures returns the disclosure list for a state, or nil.
func (t *complianceTables) stateDisclosures(stateAbbr string) []string {
	return t.disclosures[strings.ToUpper(strings.TrimSpace(stateAbbr))]
}
