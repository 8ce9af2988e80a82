// Package scenario replays scripted open/close sequences against a headless
// overlay host and records the lifecycle events they produce. Scripts are
// small YAML files, which makes transition timing reproducible outside a
// real display host.
package scenario

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcrowther/veil/internal/overlay"
)

// Step is one scripted state change, applied after waiting from the
// previous step.
type Step struct {
	After time.Duration `yaml:"after"`
	Open  bool          `yaml:"open"`
}

// Overlay describes the host under replay.
type Overlay struct {
	Interaction string        `yaml:"interaction"`
	OpenDelay   time.Duration `yaml:"open_delay"`
	Transition  time.Duration `yaml:"transition"`
	Virtual     bool          `yaml:"virtual_trigger"`
}

// Scenario is a named script.
type Scenario struct {
	Name    string  `yaml:"name"`
	Overlay Overlay `yaml:"overlay"`
	Steps   []Step  `yaml:"steps"`

	// Settle is how long to wait after the last step for in-flight
	// transitions to finish. Zero picks a default derived from the script.
	Settle time.Duration `yaml:"settle"`
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a scenario from YAML bytes.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", s.Name)
	}
	if _, err := s.interaction(); err != nil {
		return err
	}
	return nil
}

func (s *Scenario) interaction() (overlay.Interaction, error) {
	switch s.Overlay.Interaction {
	case "", "click":
		return overlay.InteractionClick, nil
	case "hover":
		return overlay.InteractionHover, nil
	case "longpress":
		return overlay.InteractionLongpress, nil
	case "modal":
		return overlay.InteractionModal, nil
	default:
		return "", fmt.Errorf("scenario %q: unknown interaction %q", s.Name, s.Overlay.Interaction)
	}
}

// settleBudget returns how long the runner lingers after the last step.
func (s *Scenario) settleBudget() time.Duration {
	if s.Settle > 0 {
		return s.Settle
	}
	budget := 50 * time.Millisecond
	budget += s.Overlay.OpenDelay
	budget += s.Overlay.Transition
	return budget
}
