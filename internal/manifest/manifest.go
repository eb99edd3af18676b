package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the parsed route manifest.
type Manifest struct {
	Controllers []ControllerSpec `yaml:"controllers"`

	// file is the manifest path; script files resolve against its directory.
	file string
}

// ControllerSpec declares one controller.
type ControllerSpec struct {
	Name      string       `yaml:"name"`
	Namespace string       `yaml:"namespace"`
	Begin     *HandlerSpec `yaml:"begin"`
	Auto      *HandlerSpec `yaml:"auto"`
	End       *HandlerSpec `yaml:"end"`
	Actions   []ActionSpec `yaml:"actions"`
}

// HandlerSpec selects what an action does. At most one of Respond, Script,
// ScriptFile and Forward may be set; none means the action succeeds without
// output.
type HandlerSpec struct {
	Respond    *string `yaml:"respond"`
	Status     int     `yaml:"status"`
	Script     string  `yaml:"script"`
	ScriptFile string  `yaml:"script_file"`
	Forward    string  `yaml:"forward"`
}

// ActionSpec declares one action and the attributes strategies match on.
type ActionSpec struct {
	Name        string                `yaml:"name"`
	Path        StringList            `yaml:"path"`
	Args        *int                  `yaml:"args"`
	Chained     *string               `yaml:"chained"`
	PathPart    *string               `yaml:"path_part"`
	CaptureArgs *int                  `yaml:"capture_args"`
	Private     bool                  `yaml:"private"`
	Attributes  map[string]StringList `yaml:"attributes"`

	HandlerSpec `yaml:",inline"`
}

// StringList accepts either a single string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
}

// Parse decodes a manifest. Unknown keys are rejected. An empty document
// yields an empty manifest.
func Parse(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, &Error{Err: fmt.Errorf("%w: %v", ErrParse, err)}
	}
	return &m, nil
}

// Load reads and parses the manifest file at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{File: path, Err: err}
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		var me *Error
		if errors.As(err, &me) {
			me.File = path
		}
		return nil, err
	}
	m.file = path
	return m, nil
}

// File returns the path the manifest was loaded from, or "".
func (m *Manifest) File() string {
	return m.file
}

// resolve makes a script path relative to the manifest directory.
func (m *Manifest) resolve(path string) string {
	if filepath.IsAbs(path) || m.file == "" {
		return path
	}
	return filepath.Join(filepath.Dir(m.file), path)
}
