package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider keeps objects as plain files under a base directory. Used for
// tests and single-node deployments without an object store.
type LocalProvider struct {
	dir string
}

func NewLocalProvider(dir string) (*LocalProvider, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalProvider{dir: dir}, nil
}

func (p *LocalProvider) CreateBucket(ctx context.Context, bucket string) error {
	return os.MkdirAll(filepath.Join(p.dir, bucket), os.ModePerm)
}

func (p *LocalProvider) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	return os.ReadFile(filepath.Join(p.dir, bucket, key))
}

func (p *LocalProvider) PutObject(ctx context.Context, bucket, key string, data io.Reader) error {
	path := filepath.Join(p.dir, bucket, key)
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, data)
	return err
}

func (p *LocalProvider) DeleteObject(ctx context.Context, bucket, key string) error {
	err := os.Remove(filepath.Join(p.dir, bucket, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (p *LocalProvider) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	root := filepath.Join(p.dir, bucket)

	var keys []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		key, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		key = filepath.ToSlash(key)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
