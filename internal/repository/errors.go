package repository

import (
	stderrors "errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Common repository errors
var (
	ErrNotFound     = stderrors.New("record not found")
	ErrDuplicateKey = stderrors.New("duplicate key violation")
)

// translate maps gorm errors onto repository sentinels, wrapping the rest
func translate(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return errors.Wrap(err, msg)
	}
}
