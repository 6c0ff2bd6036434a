package upload

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/hong9883/ai-drug-approval-test/internal/models"
	"github.com/hong9883/ai-drug-approval-test/internal/pdftext"
)

const (
	PDFMimeType = "application/pdf"
	// MaxFileSize is the largest file the backend accepts (100MB).
	MaxFileSize int64 = 100 * 1024 * 1024
)

// Inspect describes the file at path for Select. The MIME type is sniffed
// from content, not taken from the extension. The page count is best effort.
func Inspect(path string) (models.LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.LocalFile{}, err
	}
	if info.IsDir() {
		return models.LocalFile{}, fmt.Errorf("%s is a directory", path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return models.LocalFile{}, fmt.Errorf("detect file type: %w", err)
	}

	file := models.LocalFile{
		Path:      path,
		Name:      filepath.Base(path),
		SizeBytes: info.Size(),
		MimeType:  mtype.String(),
	}
	if mtype.Is(PDFMimeType) && info.Size() <= MaxFileSize {
		if n, err := pdftext.PageCount(path); err == nil {
			file.PageCount = n
		}
	}
	return file, nil
}

// validate returns the alert text for the first rule file breaks, or "".
func validate(file models.LocalFile) string {
	if !isPDF(file.MimeType) {
		return MsgPDFOnly
	}
	if file.SizeBytes > MaxFileSize {
		return MsgTooLarge
	}
	return ""
}

func isPDF(mimeType string) bool {
	if mimeType == "" {
		return false
	}
	return mimetype.EqualsAny(mimeType, PDFMimeType)
}
