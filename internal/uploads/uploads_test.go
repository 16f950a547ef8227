package uploads

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipr-api/internal/config"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// fileHeader builds a multipart.FileHeader the way echo would hand it to a handler
func fileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="resume"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["resume"][0]
}

func newLocalService(t *testing.T, maxBytes int64) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	return NewService(NewLocalStorage(dir), maxBytes, config.DefaultAllowedUploadTypes), dir
}

func TestSaveStoresPDF(t *testing.T) {
	svc, dir := newLocalService(t, 5*1024*1024)
	ctx := context.Background()

	file, err := svc.Save(ctx, fileHeader(t, "My CV (final).pdf", "application/pdf", samplePDF))
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, int64(len(samplePDF)), file.Size)
	assert.True(t, strings.HasSuffix(file.Name, "-My_CV__final_.pdf"), file.Name)

	stored, err := os.ReadFile(filepath.Join(dir, file.Name))
	require.NoError(t, err)
	assert.Equal(t, samplePDF, stored)

	rc, err := svc.Open(ctx, file.Name)
	require.NoError(t, err)
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	assert.Equal(t, samplePDF, got)
}

func TestSaveAcceptsPlainText(t *testing.T) {
	svc, _ := newLocalService(t, 1024)
	file, err := svc.Save(context.Background(), fileHeader(t, "resume.txt", "text/plain; charset=utf-8", []byte("Ada Lovelace\nEngineer\n")))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", file.ContentType)
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	svc, dir := newLocalService(t, 64)
	_, err := svc.Save(context.Background(), fileHeader(t, "big.txt", "text/plain", bytes.Repeat([]byte("a"), 65)))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestTooLargeMessage(t *testing.T) {
	svc, _ := newLocalService(t, 5*1024*1024)
	assert.Equal(t, "File too large. Please upload a file smaller than 5MB.", svc.TooLargeMessage())
}

func TestValidateRejectsDisallowedTypes(t *testing.T) {
	svc, _ := newLocalService(t, 1024)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	_, err := svc.Validate(png, "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	// a PNG renamed and declared as a PDF is still rejected
	_, err = svc.Validate(png, "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	// a real PDF declared as an image is rejected on the declared type
	_, err = svc.Validate(samplePDF, "image/jpeg")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = svc.Validate([]byte("   "), "text/plain")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestValidateAcceptsOctetStreamDeclaration(t *testing.T) {
	svc, _ := newLocalService(t, 1024)
	ct, err := svc.Validate(samplePDF, "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ct)
}

func TestOpenMissingAndUnsafeNames(t *testing.T) {
	svc, _ := newLocalService(t, 1024)
	ctx := context.Background()

	_, err := svc.Open(ctx, "nope.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, name := range []string{"../etc/passwd", "a/b.pdf", ".hidden", ""} {
		_, err := svc.Open(ctx, name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "resume.pdf", SanitizeFilename("resume.pdf"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "cv.docx", SanitizeFilename(`C:\Users\ada\cv.docx`))
	assert.Equal(t, "r_sum_.pdf", SanitizeFilename("résumé.pdf"))
	assert.Equal(t, "resume", SanitizeFilename(""))
}
