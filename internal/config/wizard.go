package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewWizard creates a wizard reading answers from in and prompting on out
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run asks for the model, reasoning effort, log directory and provider keys,
// starting from base (or defaults when base is nil). Empty answers keep the current value.
func (w *Wizard) Run(base *Config) (*Config, error) {
	cfg := DefaultConfig()
	if base != nil {
		copied := *base
		cfg = &copied
	}
	validator := NewValidator()

	fmt.Fprintln(w.out, "=== AgencyCode Configuration ===")
	fmt.Fprintln(w.out)

	model, err := w.ask("Model", cfg.Model, validator.ValidateModel)
	if err != nil {
		return nil, err
	}
	cfg.Model = model

	effort, err := w.ask("Reasoning effort (low, medium, high)", cfg.ReasoningEffort, validator.ValidateReasoningEffort)
	if err != nil {
		return nil, err
	}
	cfg.ReasoningEffort = effort

	logDir, err := w.ask("Session log directory", cfg.LogDir, nil)
	if err != nil {
		return nil, err
	}
	cfg.LogDir = logDir

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "API keys (press Enter to skip):")

	var profiles []AIProfile
	for i, provider := range Providers {
		key, err := w.ask(fmt.Sprintf("%s API key", provider), "", func(k string) error {
			if k == "" {
				return nil
			}
			return validator.ValidateAPIKey(k, provider)
		})
		if err != nil {
			return nil, err
		}
		if key == "" {
			continue
		}
		profiles = append(profiles, AIProfile{
			ID:       provider,
			Provider: provider,
			APIKey:   key,
			Priority: i + 1,
		})
	}
	if len(profiles) > 0 {
		cfg.AI.Profiles = profiles
	}

	return cfg, nil
}

// ask re-prompts until validate accepts the answer
func (w *Wizard) ask(prompt, current string, validate func(string) error) (string, error) {
	for {
		if current != "" {
			fmt.Fprintf(w.out, "%s [%s]: ", prompt, current)
		} else {
			fmt.Fprintf(w.out, "%s: ", prompt)
		}

		answer, err := w.readLine()
		if err != nil {
			return "", err
		}
		if answer == "" {
			answer = current
		}
		if validate != nil {
			if err := validate(answer); err != nil {
				fmt.Fprintf(w.out, "Error: %v\n", err)
				continue
			}
		}
		return answer, nil
	}
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
