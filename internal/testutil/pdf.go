package testutil

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/stretchr/testify/require"
)

// TextRun is one string set at a position in PDF points, origin bottom
// left.
type TextRun struct {
	X, Y int
	Text string
}

// WriteTextPDF writes a letter-size PDF with one page per entry of pages.
// Each line is set in 12pt Helvetica; an empty line leaves a paragraph gap.
func WriteTextPDF(t *testing.T, path string, pages [][]string) {
	t.Helper()

	runs := make([][]TextRun, len(pages))
	for i, lines := range pages {
		y := 750
		for _, line := range lines {
			if line != "" {
				runs[i] = append(runs[i], TextRun{X: 72, Y: y, Text: line})
			}
			y -= 14
		}
	}
	WriteRunsPDF(t, path, runs)
}

// WriteRunsPDF writes a letter-size PDF with one page per entry of pages,
// each run set in 12pt Helvetica at its own position.
func WriteRunsPDF(t *testing.T, path string, pages [][]TextRun) {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, runs := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		var content strings.Builder
		for _, r := range runs {
			fmt.Fprintf(&content, "BT /F1 12 Tf %d %d Td (%s) Tj ET\n", r.X, r.Y, escapePDFString(r.Text))
		}
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	require.NoError(t, EnsureDir(filepath.Dir(path)))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600), "Failed to write PDF %s", path)
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// WriteImagePDF writes a PDF with one page per image, each embedded as an
// image object.
func WriteImagePDF(t *testing.T, path string, imgs []image.Image) {
	t.Helper()

	dir := t.TempDir()
	files := make([]string, len(imgs))
	for i, img := range imgs {
		files[i] = filepath.Join(dir, fmt.Sprintf("img_%d.png", i+1))
		SaveImage(t, img, files[i])
	}
	require.NoError(t, EnsureDir(filepath.Dir(path)))
	require.NoError(t, api.ImportImagesFile(files, path, pdfcpu.DefaultImportConfig(), nil),
		"Failed to build image PDF %s", path)
}
