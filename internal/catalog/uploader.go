package catalog

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// Uploader stores an uploaded image and returns the durable reference
// URL to persist on the catalog row.
type Uploader interface {
	Upload(ctx context.Context, originalName string, content io.Reader) (string, error)
}

// DiskUploader writes images to a local directory served under
// baseURL by the API's static file route.
type DiskUploader struct {
	dir     string
	baseURL string
}

func NewDiskUploader(dir, baseURL string) *DiskUploader {
	return &DiskUploader{dir: dir, baseURL: baseURL}
}

func (u *DiskUploader) Upload(_ context.Context, originalName string, content io.Reader) (string, error) {
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("image-%d-%d%s", time.Now().UnixMilli(), rand.Intn(1_000_000_000), filepath.Ext(originalName))

	f, err := os.Create(filepath.Join(u.dir, name))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", err
	}

	return u.baseURL + "/" + name, nil
}
