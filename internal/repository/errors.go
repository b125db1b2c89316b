package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// 各エンジンの一意制約違反メッセージ
var duplicateKeyMarkers = []string{
	"duplicate key",            // postgres (SQLSTATE 23505)
	"UNIQUE constraint failed", // sqlite
	"Duplicate entry",          // mysql (1062)
}

// IsDuplicateKey reports whether err is a unique-constraint violation from any supported engine.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, marker := range duplicateKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsNotFound は gorm.ErrRecordNotFound の判定
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
