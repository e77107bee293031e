package grammar

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Grammar description file layout:
//
//	name: calc
//	captureLocations: true
//	moduleInclude: |
//	  yy.count = 0;
//	productions:
//	  - lhs: expr
//	    rhs: expr PLUS expr      # or [expr, PLUS, expr]
//	    action: $$ = $1 + $3
//	bnf:
//	  term:
//	    - NUMBER                 # no action
//	    - ["( expr )", "$$ = $2"]
//	    - ["", "$$ = 0"]         # epsilon
//
// Productions listed under "productions" come first, followed by the "bnf"
// entries in document order.
type grammarFile struct {
	Name             string            `yaml:"name"`
	CaptureLocations bool              `yaml:"captureLocations"`
	ModuleInclude    string            `yaml:"moduleInclude"`
	Productions      []productionEntry `yaml:"productions"`
	Bnf              yaml.Node         `yaml:"bnf"`
}

type productionEntry struct {
	Lhs    string  `yaml:"lhs"`
	Rhs    rhsList `yaml:"rhs"`
	Action string  `yaml:"action"`
}

type rhsList []string

func (list *rhsList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*list = splitRhs(value.Value)
		return nil
	case yaml.SequenceNode:
		var symbols []string
		err := value.Decode(&symbols)
		if err != nil {
			return err
		}
		*list = symbols
		return nil
	}

	return fmt.Errorf(
		"line %d col %d: rhs must be a string or a list of symbols",
		value.Line,
		value.Column)
}

func splitRhs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 1 && fields[0] == EmptyMarker {
		return nil
	}
	return fields
}

func LoadFile(fileName string) (*Grammar, error) {
	content, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	return Load(fileName, content)
}

func Load(fileName string, content []byte) (*Grammar, error) {
	file := grammarFile{}
	err := yaml.Unmarshal(content, &file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}

	grammar := &Grammar{
		Name:             file.Name,
		CaptureLocations: file.CaptureLocations,
		ModuleInclude:    file.ModuleInclude,
	}

	for idx, entry := range file.Productions {
		if entry.Lhs == "" {
			return nil, fmt.Errorf(
				"%s: production %d has no lhs",
				fileName,
				idx)
		}

		err := grammar.addParsed(entry.Lhs, entry.Rhs, entry.Action)
		if err != nil {
			return nil, fmt.Errorf("%s: production %d: %w", fileName, idx, err)
		}
	}

	err = grammar.loadBnf(&file.Bnf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}

	if len(grammar.Productions) == 0 {
		return nil, fmt.Errorf("%s: grammar has no productions", fileName)
	}

	return grammar, nil
}

func (grammar *Grammar) addParsed(
	lhs string,
	rhs []string,
	action string,
) error {
	symbols := make([]Symbol, 0, len(rhs))
	for _, text := range rhs {
		sym, err := ParseSymbol(text)
		if err != nil {
			return err
		}
		symbols = append(symbols, sym)
	}

	grammar.Add(lhs, symbols, strings.TrimSpace(action))
	return nil
}

func (grammar *Grammar) loadBnf(node *yaml.Node) error {
	if node.Kind == 0 { // not present
		return nil
	}

	if node.Kind != yaml.MappingNode {
		return fmt.Errorf(
			"line %d col %d: bnf must be a mapping from lhs to alternatives",
			node.Line,
			node.Column)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		lhs := node.Content[i].Value
		alternatives := node.Content[i+1]

		if alternatives.Kind != yaml.SequenceNode {
			return fmt.Errorf(
				"line %d col %d: alternatives for %s must be a list",
				alternatives.Line,
				alternatives.Column,
				lhs)
		}

		for _, alternative := range alternatives.Content {
			rhs, action, err := parseAlternative(alternative)
			if err != nil {
				return fmt.Errorf("%s: %w", lhs, err)
			}

			err = grammar.addParsed(lhs, rhs, action)
			if err != nil {
				return fmt.Errorf(
					"line %d col %d: %s: %w",
					alternative.Line,
					alternative.Column,
					lhs,
					err)
			}
		}
	}

	return nil
}

func parseAlternative(node *yaml.Node) ([]string, string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return splitRhs(node.Value), "", nil
	case yaml.SequenceNode:
		if len(node.Content) == 0 || len(node.Content) > 2 {
			break
		}

		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, "", fmt.Errorf(
					"line %d col %d: expecting a string",
					item.Line,
					item.Column)
			}
		}

		action := ""
		if len(node.Content) == 2 {
			action = node.Content[1].Value
		}
		return splitRhs(node.Content[0].Value), action, nil
	}

	return nil, "", fmt.Errorf(
		"line %d col %d: alternative must be \"rhs\" or [\"rhs\", \"action\"]",
		node.Line,
		node.Column)
}
