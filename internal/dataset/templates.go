package dataset

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/rechenwerk/foundation/core/error"
	"github.com/msto63/rechenwerk/internal/dispatch"
)

//go:embed templates.yaml
var defaultTemplates []byte

var placeholder = regexp.MustCompile(`\{([a-z])\}`)

// CallTemplate is one call a template produces. Arg names the placeholder
// that supplies the operand.
type CallTemplate struct {
	Name string `yaml:"name"`
	Arg  string `yaml:"arg,omitempty"`
}

// Template is a sentence pattern with the calls it stands for
type Template struct {
	Operation string         `yaml:"operation,omitempty"`
	Text      string         `yaml:"text"`
	Calls     []CallTemplate `yaml:"calls,omitempty"`
}

type templateFile struct {
	Templates []Template `yaml:"templates"`
}

// DefaultTemplates returns the built-in template set
func DefaultTemplates() ([]Template, error) {
	return ParseTemplates(defaultTemplates)
}

// LoadTemplates reads a YAML template file
func LoadTemplates(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return ParseTemplates(data)
}

// ReadTemplates decodes YAML templates from r
func ReadTemplates(r io.Reader) ([]Template, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return ParseTemplates(data)
}

// ParseTemplates decodes and validates YAML templates. Templates without an
// explicit calls list get one call per placeholder.
func ParseTemplates(data []byte) ([]Template, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, mdwerror.Wrap(err, "decode templates").WithCode(mdwerror.CodeInvalidInput)
	}
	if len(file.Templates) == 0 {
		return nil, mdwerror.New("no templates defined").WithCode(mdwerror.CodeInvalidInput)
	}

	for i := range file.Templates {
		if err := file.Templates[i].normalize(); err != nil {
			return nil, mdwerror.Wrap(err, "invalid template").
				WithCode(mdwerror.CodeInvalidInput).
				WithDetail("index", i).
				WithDetail("text", file.Templates[i].Text)
		}
	}
	return file.Templates, nil
}

// Placeholders returns the distinct placeholder names in order of first use
func (t Template) Placeholders() []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(t.Text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

func (t *Template) normalize() error {
	if t.Text == "" {
		return fmt.Errorf("empty text")
	}
	names := t.Placeholders()

	if len(t.Calls) == 0 {
		if t.Operation == "" {
			return fmt.Errorf("operation or calls required")
		}
		op, err := dispatch.ParseOperation(t.Operation)
		if err != nil {
			return err
		}
		if !op.NeedsOperand() {
			if len(names) > 0 {
				return fmt.Errorf("%s takes no operand but text has placeholders", op)
			}
			t.Calls = []CallTemplate{{Name: op.String()}}
			return nil
		}
		if len(names) == 0 {
			return fmt.Errorf("%s needs an operand but text has no placeholder", op)
		}
		for _, name := range names {
			t.Calls = append(t.Calls, CallTemplate{Name: op.String(), Arg: name})
		}
		return nil
	}

	known := map[string]bool{}
	for _, name := range names {
		known[name] = true
	}
	for _, c := range t.Calls {
		op, err := dispatch.ParseOperation(c.Name)
		if err != nil {
			return err
		}
		switch {
		case op.NeedsOperand() && c.Arg == "":
			return fmt.Errorf("call %s needs an arg", op)
		case !op.NeedsOperand() && c.Arg != "":
			return fmt.Errorf("call %s takes no arg", op)
		case c.Arg != "" && !known[c.Arg]:
			return fmt.Errorf("call %s refers to unknown placeholder {%s}", op, c.Arg)
		}
	}
	return nil
}
