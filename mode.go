package streamrec

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Mode is the open mode of a recorder file, named after the classic fopen tokens.
type Mode string

const (
	ModeAppend    Mode = "a"  // read/write, create if missing
	ModeWrite     Mode = "w"  // create, truncating existing contents
	ModeReadWrite Mode = "r+" // read/write, must exist
	ModeReadOnly  Mode = "r"  // read-only, must exist
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeAppend, nil
	case ModeAppend, ModeWrite, ModeReadWrite, ModeReadOnly:
		return m, nil
	default:
		return "", fmt.Errorf("invalid mode %q", s)
	}
}

func (m Mode) orDefault() Mode {
	if m == "" {
		return ModeAppend
	}
	return m
}

func (m Mode) readOnly() bool {
	return m == ModeReadOnly
}

// prepareFile applies the mode's existence and truncation rules to path
// before the storage opens it.
func (m Mode) prepareFile(path string) error {
	switch m {
	case ModeAppend:
		return nil
	case ModeWrite:
		err := os.Truncate(path, 0)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	case ModeReadWrite, ModeReadOnly:
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%s: %w", path, ErrNotFound)
			}
			return err
		}
		return nil
	default:
		return fmt.Errorf("invalid mode %q", string(m))
	}
}
