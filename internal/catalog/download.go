package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Download saves the document's file into the download directory under its
// original name and returns the written path. Existing files are not
// overwritten; a numbered suffix is added instead. Failures are logged and
// returned, and never change catalog state.
func (c *Catalog) Download(ctx context.Context, id int64) (string, error) {
	path, err := c.download(ctx, id)
	if err != nil {
		c.log.WithError(err).WithField("document_id", id).Error("Error downloading document")
		return "", err
	}
	c.log.WithFields(logrus.Fields{"document_id": id, "path": path}).Info("document downloaded")
	return path, nil
}

func (c *Catalog) download(ctx context.Context, id int64) (string, error) {
	name := c.fileName(id)
	if name == "" {
		doc, err := c.source.GetDocument(ctx, id)
		if err != nil {
			return "", fmt.Errorf("look up document %d: %w", id, err)
		}
		name = doc.OriginalFileName
	}

	data, err := c.source.DownloadDocument(ctx, id)
	if err != nil {
		return "", err
	}

	dir := c.downloadDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}
	return writeUnique(dir, safeFileName(name, id), data)
}

func (c *Catalog) fileName(id int64) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.items {
		if d.ID == id {
			return d.OriginalFileName
		}
	}
	return ""
}

// safeFileName keeps only the base name so a server-supplied name cannot
// escape the download directory.
func safeFileName(name string, id int64) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "document-" + strconv.FormatInt(id, 10) + ".pdf"
	}
	return name
}

func writeUnique(dir, name string, data []byte) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < 1000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", err
		}
		return path, f.Close()
	}
	return "", fmt.Errorf("too many copies of %s in %s", name, dir)
}
