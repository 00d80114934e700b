package renderer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ivlev/pptx2h5p/internal/errs"
	"github.com/ivlev/pptx2h5p/internal/system"
)

// OfficeRenderer converts a slide deck to PDF with LibreOffice in headless
// mode and rasterizes the PDF.
type OfficeRenderer struct {
	Binary string
	PDF    *FitzRenderer
	Logger *log.Logger
}

func (r *OfficeRenderer) Render(ctx context.Context, input, outDir string) error {
	binary := r.Binary
	if binary == "" {
		binary = "soffice"
	}
	bin, err := system.LookupTool(binary)
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "pptx2h5p_")
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrIO, err)
	}
	defer os.RemoveAll(tmpDir)

	r.logger().Info("converting with office suite", "tool", bin, "input", input)
	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", "pdf", "--outdir", tmpDir, input)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s: %w, output: %s", errs.ErrExternalToolUnavailable, binary, err, strings.TrimSpace(string(out)))
	}

	pdf := filepath.Join(tmpDir, strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))+".pdf")
	if _, err := os.Stat(pdf); err != nil {
		return fmt.Errorf("%w: %s produced no PDF: %w", errs.ErrExternalToolUnavailable, binary, err)
	}
	return r.PDF.Render(ctx, pdf, outDir)
}

func (r *OfficeRenderer) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}
