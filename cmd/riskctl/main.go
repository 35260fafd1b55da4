package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mkdev28/Cropp/internal/domain/model"
)

// Exit codes for different failure modes
const (
	ExitSuccess  = 0
	ExitError    = 1 // Configuration or runtime error
	ExitRejected = 2 // Input records failed validation
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		if errors.Is(err, model.ErrValidation) {
			os.Exit(ExitRejected)
		}
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
