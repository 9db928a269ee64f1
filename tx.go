package streamrec

import (
	"fmt"
	"runtime/debug"
)

type panicked struct {
	reason any
	stack  string
}

func (p panicked) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.reason, p.stack)
}

func (p panicked) Unwrap() error {
	err, _ := p.reason.(error)
	return err
}

func safelyCall(fn func(storageTx) error, tx storageTx) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicked{p, string(debug.Stack())}
		}
	}()
	return fn(tx)
}

// write runs f in a writable transaction and commits it unless f fails.
// Panics inside f (from must/ensure) are returned as errors.
func (c *container) write(f func(tx storageTx) error) error {
	if c.readOnly {
		return ErrReadOnly
	}
	tx, err := c.stor.BeginTx(true)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	err = safelyCall(f, tx)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (c *container) read(f func(tx storageTx) error) error {
	tx, err := c.stor.BeginTx(false)
	if err != nil {
		return fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()
	return safelyCall(f, tx)
}
