// Package blob хранилище резервных копий пользовательских данных.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotFound = errors.New("blob: объект не найден")
	ErrExists   = errors.New("blob: объект уже существует")
)

type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store ключи вида "<user_id>/<имя>". Put не перезаписывает существующий объект.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Delete(ctx context.Context, key string) error
}
