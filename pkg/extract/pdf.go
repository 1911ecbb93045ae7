package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFInfo summarizes a PDF for routing between native text extraction and
// page rasterization plus OCR.
type PDFInfo struct {
	Pages int
	// HasImages marks pages carrying at least one image XObject, which is
	// the signature of a scanned page.
	HasImages []bool
}

// pdfToolkit is the PDF tooling surface the extractor depends on. Production
// uses pdfcpu for inspection and the poppler binaries for text and
// rasterization; tests substitute a fake.
type pdfToolkit interface {
	Info(data []byte) (PDFInfo, error)
	PageText(ctx context.Context, path string, page int) (string, error)
	RenderPage(ctx context.Context, dir, path string, page, dpi int) ([]byte, error)
}

type popplerToolkit struct{}

func (popplerToolkit) Info(data []byte) (PDFInfo, error) {
	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return PDFInfo{}, fmt.Errorf("inspect pdf: %w", err)
	}

	info := PDFInfo{
		Pages:     pctx.PageCount,
		HasImages: make([]bool, pctx.PageCount),
	}
	for page := 1; page <= pctx.PageCount; page++ {
		info.HasImages[page-1] = len(pdfcpu.ImageObjNrs(pctx, page)) > 0
	}
	return info, nil
}

// PageText extracts the native text layer of one page with pdftotext.
func (popplerToolkit) PageText(ctx context.Context, path string, page int) (string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return "", fmt.Errorf("pdftotext not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(
		ctx,
		"pdftotext",
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-enc", "UTF-8",
		"-eol", "unix",
		"-nopgbrk",
		"-q",
		path,
		"-",
	)
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")

	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("pdftotext timed out on page %d", page)
	}
	if err != nil {
		return "", fmt.Errorf("pdftotext failed on page %d: %w: %s", page, err, bytes.TrimSpace(out))
	}
	return string(out), nil
}

// RenderPage rasterizes one page to PNG with pdftoppm.
func (popplerToolkit) RenderPage(ctx context.Context, dir, path string, page, dpi int) ([]byte, error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return nil, fmt.Errorf("pdftoppm not found in PATH: %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("nanoid: %w", err)
	}
	prefix := filepath.Join(dir, "page-"+id)

	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-r", strconv.Itoa(dpi),
		"-q",
		"-singlefile",
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		path,
		prefix,
	)
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")

	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("pdftoppm timed out on page %d", page)
	}
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed on page %d: %w: %s", page, err, strings.TrimSpace(string(out)))
	}

	img, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("read rendered page %d: %w", page, err)
	}
	return img, nil
}
