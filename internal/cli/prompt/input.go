// Package prompt provides interactive terminal prompts for smbdctl.
package prompt

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// IsAborted reports whether err indicates the user aborted a prompt.
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

// Input prompts for text input, returning defaultValue if the user
// presses Enter without typing anything.
func Input(label string, defaultValue string) (string, error) {
	p := promptui.Prompt{Label: label, Default: defaultValue}
	result, err := p.Run()
	return result, wrapError(err)
}

// InputRequired prompts for text input and rejects an empty answer.
func InputRequired(label string) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if input == "" {
				return promptui.ErrAbort
			}
			return nil
		},
	}
	result, err := p.Run()
	return result, wrapError(err)
}

// InputOptional prompts for text input; an empty answer is returned as
// an empty string rather than an error.
func InputOptional(label string) (string, error) {
	p := promptui.Prompt{Label: label + " (optional)"}
	result, err := p.Run()
	return result, wrapError(err)
}
