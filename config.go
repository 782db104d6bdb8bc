package zosdatum

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rawbytedev/zosdatum/pkg/choice"
	"github.com/rawbytedev/zosdatum/pkg/layout"
)

var ErrInvalidConfig = errors.New("zosdatum: invalid config")

// Config describes one conversion run.
//
//	layout: customer.yaml
//	framing: rdw
//	charset: IBM1047
//	signature: "C3E4E2E3"
//	choices:
//	  PAYLOAD:
//	    expr: 'COM_SELECT == 1 ? "B" : "A"'
//	    variables: [COM-SELECT]
type Config struct {
	Layout          string                  `yaml:"layout,omitempty"` // path, relative to the config file
	Inline          *layout.Spec            `yaml:"inline,omitempty"`
	Framing         string                  `yaml:"framing,omitempty"` // fixed (default), rdw, variable
	RecordLength    int                     `yaml:"recordLength,omitempty"`
	Charset         string                  `yaml:"charset,omitempty"`
	MaxRecordLength int                     `yaml:"maxRecordLength,omitempty"`
	Signature       string                  `yaml:"signature,omitempty"` // hex
	Choices         map[string]ChoiceConfig `yaml:"choices,omitempty"`

	dir string
}

// ChoiceConfig selects an alternative with a CEL expression.
type ChoiceConfig struct {
	Expr      string   `yaml:"expr"`
	Variables []string `yaml:"variables,omitempty"`
}

// ParseConfig decodes a YAML config. Unknown keys are rejected.
func ParseConfig(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var c Config
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if (c.Layout == "") == (c.Inline == nil) {
		return nil, fmt.Errorf("%w: exactly one of layout and inline is required", ErrInvalidConfig)
	}
	return &c, nil
}

// LoadConfig reads a config file. A relative layout path is resolved
// against the config file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := ParseConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c.dir = filepath.Dir(path)
	return c, nil
}

// Root loads the layout the config names.
func (c *Config) Root() (layout.Node, error) {
	if c.Inline != nil {
		return c.Inline.Build()
	}
	path := c.Layout
	if !filepath.IsAbs(path) && c.dir != "" {
		path = filepath.Join(c.dir, path)
	}
	return layout.LoadFile(path)
}

func (c *Config) Framer() (Framer, error) {
	switch strings.ToLower(c.Framing) {
	case "", "fixed":
		return FixedFramer{RecordLen: c.RecordLength}, nil
	case "rdw", "vb":
		return RDWFramer{}, nil
	case "variable":
		return VariableFramer{}, nil
	default:
		return nil, fmt.Errorf("%w: framing %q", ErrInvalidConfig, c.Framing)
	}
}

// Resolver compiles the configured expressions. It returns nil when no
// choice is configured.
func (c *Config) Resolver() (choice.Resolver, error) {
	if len(c.Choices) == 0 {
		return nil, nil
	}
	reg := choice.NewRegistry()
	for name, cc := range c.Choices {
		e, err := choice.NewExpr(cc.Expr, cc.Variables...)
		if err != nil {
			return nil, fmt.Errorf("%w: choice %s: %w", ErrInvalidConfig, name, err)
		}
		reg.Register(name, e)
	}
	return reg, nil
}

// Matcher returns the record signature, or nil when none is configured.
func (c *Config) Matcher() (Matcher, error) {
	if c.Signature == "" {
		return nil, nil
	}
	sig, err := hex.DecodeString(strings.ReplaceAll(c.Signature, " ", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %w", ErrInvalidConfig, err)
	}
	if len(sig) == 0 {
		return nil, fmt.Errorf("%w: empty signature", ErrInvalidConfig)
	}
	return Signature(sig), nil
}

// NewReader builds a reader over src and, when a signature is configured,
// positions it on the first record start.
func (c *Config) NewReader(src Source, logger *slog.Logger) (*Reader, error) {
	root, err := c.Root()
	if err != nil {
		return nil, err
	}
	framer, err := c.Framer()
	if err != nil {
		return nil, err
	}
	res, err := c.Resolver()
	if err != nil {
		return nil, err
	}
	m, err := c.Matcher()
	if err != nil {
		return nil, err
	}
	r, err := NewReader(src, root, Options{
		Framer:       framer,
		Resolver:     res,
		Charset:      c.Charset,
		MaxRecordLen: c.MaxRecordLength,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	if m != nil {
		if err := r.SeekRecordStart(m); err != nil {
			r.Close()
			return nil, err
		}
	}
	return r, nil
}
