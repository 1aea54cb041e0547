// Package prompt wraps promptui for the interactive parts of the CLI.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("aborted")

// IsAborted reports whether err comes from an interrupted prompt.
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, ErrAborted)
}

func wrapError(err error) error {
	if err != nil && IsAborted(err) {
		return ErrAborted
	}
	return err
}

// Password prompts for a secret with masked input.
func Password(label string) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}
	result, err := p.Run()
	return result, wrapError(err)
}

// Input prompts for a value, offering defaultValue.
func Input(label, defaultValue string) (string, error) {
	p := promptui.Prompt{
		Label:   label,
		Default: defaultValue,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("value is required")
			}
			return nil
		},
	}
	result, err := p.Run()
	return strings.TrimSpace(result), wrapError(err)
}

// Confirm asks a yes/no question. An empty answer means defaultYes.
func Confirm(label string, defaultYes bool) (bool, error) {
	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}

	p := promptui.Prompt{
		Label:     fmt.Sprintf("%s [%s]", label, hint),
		IsConfirm: true,
	}
	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			if result == "" {
				return defaultYes, nil
			}
			return false, nil
		}
		return false, wrapError(err)
	}
	return parseYes(result, defaultYes), nil
}

// ConfirmWithForce skips the question when force is set.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label, false)
}

// Select asks the user to pick one of items and returns it.
func Select(label string, items []string) (string, error) {
	if len(items) == 0 {
		return "", errors.New("nothing to select")
	}
	p := promptui.Select{
		Label: label,
		Items: items,
		Size:  len(items),
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "* {{ . | green }}",
		},
	}
	_, result, err := p.Run()
	return result, wrapError(err)
}

func parseYes(answer string, defaultYes bool) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}
