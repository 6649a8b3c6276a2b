package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrInvalidInput = errors.New("invalid input parameters")
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
