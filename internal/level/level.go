// Package level loads the static level tables: node layouts, energy,
// timers, hazard settings and star thresholds.
package level

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/synapsis/internal/domain"
)

const (
	CanvasWidth  = 900
	CanvasHeight = 700
)

var validate = validator.New()

// Definition is one level table as written in YAML.
type Definition struct {
	Number      int    `yaml:"number" validate:"required,min=1"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
	StartEnergy int    `yaml:"start_energy" validate:"required,min=1"`

	TimeLimit time.Duration `yaml:"time_limit" validate:"gte=0"`

	Waves        bool          `yaml:"waves"`
	WaveInterval time.Duration `yaml:"wave_interval" validate:"gte=0"`
	SilenceSpeed float64       `yaml:"silence_speed" validate:"gte=0,lte=1"`

	TemporaryConnections bool          `yaml:"temporary_connections"`
	TemporaryDuration    time.Duration `yaml:"temporary_duration" validate:"gte=0"`

	MaxConnectionLength float64 `yaml:"max_connection_length" validate:"gte=0"`
	TimeBonus           float64 `yaml:"time_bonus" validate:"gte=0,lte=1"`
	EnergyBonus         float64 `yaml:"energy_bonus" validate:"gte=0,lte=1"`
	MaxConnections      int     `yaml:"max_connections" validate:"gte=0"`

	Nodes []NodeDef `yaml:"nodes" validate:"required,min=2,dive"`
	Links []LinkDef `yaml:"links" validate:"dive"`
}

// NodeDef places a node on the 900x700 canvas.
type NodeDef struct {
	X    float64 `yaml:"x" validate:"gte=0,lte=900"`
	Y    float64 `yaml:"y" validate:"gte=0,lte=700"`
	Kind string  `yaml:"kind" validate:"required,oneof=start finish neutral virus firewall amplifier decoy codex"`
}

// LinkDef is a connection present when the level loads, by node index.
type LinkDef struct {
	A    int    `yaml:"a" validate:"gte=0"`
	B    int    `yaml:"b" validate:"gte=0"`
	Kind string `yaml:"kind" validate:"omitempty,oneof=normal enhanced temporary firewall"`
}

// Parse decodes and validates a level table.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse level: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks field ranges and the layout rules: exactly one start
// and one finish, and links between distinct existing nodes.
func (d *Definition) Validate() error {
	if err := validate.Struct(d); err != nil {
		return formatValidationError(d.Number, err)
	}

	counts := make(map[string]int)
	for _, n := range d.Nodes {
		counts[n.Kind]++
	}
	if counts[string(domain.NodeStart)] != 1 {
		return fmt.Errorf("level %d: need exactly one start node, got %d", d.Number, counts[string(domain.NodeStart)])
	}
	if counts[string(domain.NodeFinish)] != 1 {
		return fmt.Errorf("level %d: need exactly one finish node, got %d", d.Number, counts[string(domain.NodeFinish)])
	}

	for i, l := range d.Links {
		if l.A >= len(d.Nodes) || l.B >= len(d.Nodes) {
			return fmt.Errorf("level %d: link %d references a missing node", d.Number, i)
		}
		if l.A == l.B {
			return fmt.Errorf("level %d: link %d joins node %d to itself", d.Number, i, l.A)
		}
	}
	return nil
}

func formatValidationError(number int, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("level %d: %w", number, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("level %d: invalid table: %s", number, strings.Join(msgs, "; "))
}

// ToLevel converts the table into the domain record.
func (d *Definition) ToLevel() domain.Level {
	l := domain.Level{
		Number:               d.Number,
		Name:                 d.Name,
		Description:          d.Description,
		StartEnergy:          d.StartEnergy,
		TimeLimit:            d.TimeLimit,
		Waves:                d.Waves,
		WaveInterval:         d.WaveInterval,
		SilenceSpeed:         d.SilenceSpeed,
		TemporaryConnections: d.TemporaryConnections,
		TemporaryDuration:    d.TemporaryDuration,
		MaxConnectionLength:  d.MaxConnectionLength,
		TimeBonus:            d.TimeBonus,
		EnergyBonus:          d.EnergyBonus,
		MaxConnections:       d.MaxConnections,
		Nodes:                make([]domain.NodeSpec, len(d.Nodes)),
	}
	for i, n := range d.Nodes {
		l.Nodes[i] = domain.NodeSpec{X: n.X, Y: n.Y, Kind: domain.NodeKind(n.Kind)}
	}
	for _, lk := range d.Links {
		l.Links = append(l.Links, domain.LinkSpec{
			A:    domain.NodeID(lk.A),
			B:    domain.NodeID(lk.B),
			Kind: domain.ConnectionKind(lk.Kind),
		})
	}
	return l
}
