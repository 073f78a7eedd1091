package gormstore

import (
	"errors"
	"fmt"
	"testing"

	"commerce-service/internal/repository"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name     string
		in       error
		expected error
	}{
		{name: "nil", in: nil, expected: nil},
		{name: "record not found", in: gorm.ErrRecordNotFound, expected: repository.ErrNotFound},
		{name: "gorm duplicate", in: gorm.ErrDuplicatedKey, expected: repository.ErrDuplicate},
		{name: "mysql duplicate", in: &mysql.MySQLError{Number: 1062}, expected: repository.ErrDuplicate},
		{name: "mysql deadlock", in: fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1213}), expected: repository.ErrRetryable},
		{name: "mysql lock timeout", in: &mysql.MySQLError{Number: 1205}, expected: repository.ErrRetryable},
		{name: "pg unique", in: &pgconn.PgError{Code: "23505"}, expected: repository.ErrDuplicate},
		{name: "pg deadlock", in: &pgconn.PgError{Code: "40P01"}, expected: repository.ErrRetryable},
		{name: "pg serialization", in: &pgconn.PgError{Code: "40001"}, expected: repository.ErrRetryable},
		{name: "other", in: other, expected: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.in)
			if tt.expected == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.expected)
		})
	}
}
