package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	// ErrInputNotFound is returned when a stage input file does not exist.
	ErrInputNotFound = errors.New("input not found")
	// ErrEmptyTable marks a run that stopped because a stage produced no rows.
	ErrEmptyTable = errors.New("empty result table")
)

func requireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return nil
}
