package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/lmring/lmring/internal/observability"
)

var ErrDuplicateKey = errors.New("duplicate key")

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// observe records the repository operation and maps gorm's not-found and
// unique errors onto the caller's sentinels. A nil notFound leaves
// gorm.ErrRecordNotFound untouched.
func observe(ctx context.Context, repo, op string, err, notFound, duplicate error) error {
	switch {
	case err == nil:
		observability.RecordRepositoryOperation(ctx, repo, op, "success")
		return nil
	case notFound != nil && errors.Is(err, gorm.ErrRecordNotFound):
		observability.RecordRepositoryOperation(ctx, repo, op, "not_found")
		return notFound
	case duplicate != nil && isUniqueViolation(err):
		observability.RecordRepositoryOperation(ctx, repo, op, "conflict")
		return duplicate
	default:
		observability.RecordRepositoryOperation(ctx, repo, op, "error")
		return err
	}
}
