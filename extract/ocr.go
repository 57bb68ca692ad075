package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// ocrPages renders each page of a document to an image with pdftoppm and
// runs tesseract over the rendered pages in order.
func ocrPages(ctx context.Context, location string, pageCount int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "lectern-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm", "-png", "-r", "200", location, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(out)))
	}

	images, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", fmt.Errorf("pdftoppm rendered no pages for %s", location)
	}
	// pdftoppm zero-pads page numbers, so lexicographic order is page order
	sort.Strings(images)

	client := gosseract.NewClient()
	defer client.Close()

	var sb strings.Builder
	for _, image := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := client.SetImage(image); err != nil {
			return "", fmt.Errorf("tesseract set image: %w", err)
		}
		pageText, err := client.Text()
		if err != nil {
			return "", fmt.Errorf("tesseract: %w", err)
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.TrimSpace(pageText))
	}

	return sb.String(), nil
}
