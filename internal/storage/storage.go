// Package storage stores downloaded QR images.
package storage

import (
	"context"
	"io"
)

// ObjectStore минимальное хранилище файлов
type ObjectStore interface {
	// Put записывает содержимое под именем name и возвращает итоговое расположение
	Put(ctx context.Context, name string, body io.Reader, contentType string) (string, error)
}
