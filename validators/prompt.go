package validators

import (
	"errors"
	"strings"
)

var ErrPromptEmpty = errors.New("no prompt provided")

func PromptValidator(p string) error {
	if strings.TrimSpace(p) == "" {
		return ErrPromptEmpty
	}

	return nil
}
