package pack

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ivlev/pptx2h5p/internal/errs"
)

// writeAtomic runs fill against a temporary file next to dst and renames it
// into place only if fill and every flush succeed.
func writeAtomic(dst string, fill func(w io.Writer) error) (err error) {
	dir := filepath.Dir(dst)
	f, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating archive: %w", errs.ErrIO, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if err = fill(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("%w: flushing archive: %w", errs.ErrIO, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("%w: closing archive: %w", errs.ErrIO, err)
	}
	if err = os.Chmod(tmp, 0644); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrIO, err)
	}
	if err = os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("%w: publishing archive: %w", errs.ErrIO, err)
	}
	return nil
}
