package gormstore

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func uptr(v uint64) *uint64 { return &v }

const (
	decrementProductSQL = "UPDATE `products` SET `stock_quantity`=stock_quantity - ?,`updated_at`=? WHERE id = ? AND stock_quantity >= ?"
	decrementVariantSQL = "UPDATE `product_variants` SET `stock_quantity`=stock_quantity - ?,`updated_at`=? WHERE (id = ? AND product_id = ?) AND stock_quantity >= ?"
	backorderSQL        = "UPDATE `products` SET `stock_quantity`=stock_quantity - ?,`updated_at`=? WHERE id = ?"
)

func TestProductRepo_DecrementStock(t *testing.T) {
	tests := []struct {
		name     string
		line     repository.StockLine
		sql      string
		args     []driver.Value
		result   func(*sqlmock.ExpectedExec)
		expected error
	}{
		{
			name: "guarded product update",
			line: repository.StockLine{ProductID: 7, Quantity: 3},
			sql:  decrementProductSQL,
			args: []driver.Value{int64(3), sqlmock.AnyArg(), int64(7), int64(3)},
			result: func(e *sqlmock.ExpectedExec) {
				e.WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "guarded variant update",
			line: repository.StockLine{ProductID: 7, VariantID: uptr(11), Quantity: 2},
			sql:  decrementVariantSQL,
			args: []driver.Value{int64(2), sqlmock.AnyArg(), int64(11), int64(7), int64(2)},
			result: func(e *sqlmock.ExpectedExec) {
				e.WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "backorder drops the guard",
			line: repository.StockLine{ProductID: 7, Quantity: 9, AllowBackorder: true},
			sql:  backorderSQL,
			args: []driver.Value{int64(9), sqlmock.AnyArg(), int64(7)},
			result: func(e *sqlmock.ExpectedExec) {
				e.WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "guard rejects the update",
			line: repository.StockLine{ProductID: 7, Quantity: 3},
			sql:  decrementProductSQL,
			args: []driver.Value{int64(3), sqlmock.AnyArg(), int64(7), int64(3)},
			result: func(e *sqlmock.ExpectedExec) {
				e.WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expected: repository.ErrInsufficientStock,
		},
		{
			name: "deadlock is retryable",
			line: repository.StockLine{ProductID: 7, Quantity: 3},
			sql:  decrementProductSQL,
			args: []driver.Value{int64(3), sqlmock.AnyArg(), int64(7), int64(3)},
			result: func(e *sqlmock.ExpectedExec) {
				e.WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
			},
			expected: repository.ErrRetryable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.result(mock.ExpectExec(regexp.QuoteMeta(tt.sql)).WithArgs(tt.args...))

			err := NewProductRepository(db).DecrementStock(context.Background(), tt.line)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProductRepo_IncrementStock(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		expected error
	}{
		{name: "restocked", affected: 1},
		{name: "missing row", affected: 0, expected: repository.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec(regexp.QuoteMeta("UPDATE `products` SET `stock_quantity`=stock_quantity + ?,`updated_at`=? WHERE id = ?")).
				WithArgs(int64(4), sqlmock.AnyArg(), int64(7)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := NewProductRepository(db).IncrementStock(context.Background(), repository.StockLine{ProductID: 7, Quantity: 4})
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOrderRepo_UpdateState(t *testing.T) {
	const updateSQL = "UPDATE `orders` SET `fulfillment_status`=?,`payment_status`=?,`status`=?,`updated_at`=? " +
		"WHERE id = ? AND status = ? AND fulfillment_status = ? AND payment_status = ?"
	const countSQL = "SELECT count(*) FROM `orders` WHERE id = ?"

	from := domain.OrderState{Status: domain.StatusPending, FulfillmentStatus: domain.FulfillmentUnfulfilled, PaymentStatus: domain.PaymentPending}
	to := domain.OrderState{Status: domain.StatusConfirmed, FulfillmentStatus: domain.FulfillmentUnfulfilled, PaymentStatus: domain.PaymentPaid}

	tests := []struct {
		name     string
		affected int64
		count    *int64
		expected error
	}{
		{name: "swapped", affected: 1},
		{name: "state moved on", affected: 0, count: func() *int64 { n := int64(1); return &n }(), expected: repository.ErrStaleState},
		{name: "order missing", affected: 0, count: func() *int64 { n := int64(0); return &n }(), expected: repository.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec(regexp.QuoteMeta(updateSQL)).
				WithArgs("unfulfilled", "paid", "confirmed", sqlmock.AnyArg(), int64(42), "pending", "unfulfilled", "pending").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			if tt.count != nil {
				mock.ExpectQuery(regexp.QuoteMeta(countSQL)).
					WithArgs(int64(42)).
					WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(*tt.count))
			}

			err := NewOrderRepository(db).UpdateState(context.Background(), 42, from, to)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPaymentRepo_UpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		expected error
	}{
		{name: "swapped", affected: 1},
		{name: "status moved on", affected: 0, expected: repository.ErrStaleState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec(regexp.QuoteMeta("UPDATE `payments` SET `status`=?,`updated_at`=? WHERE id = ? AND status = ?")).
				WithArgs("paid", sqlmock.AnyArg(), int64(5), "pending").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := NewPaymentRepository(db).UpdateStatus(context.Background(), 5, domain.PaymentPending, domain.PaymentPaid)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPaymentRepo_RecordEvent(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		expected error
	}{
		{name: "first delivery", affected: 1},
		{name: "replayed delivery", affected: 0, expected: repository.ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec("INSERT INTO `payment_events` .+ ON DUPLICATE KEY UPDATE `id`=`id`").
				WithArgs(int64(9), "ch_1", "paid", true, sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(tt.affected, tt.affected))

			event := &domain.PaymentEvent{OrderID: 9, ExternalRef: "ch_1", Status: domain.PaymentPaid, Applied: true}
			err := NewPaymentRepository(db).RecordEvent(context.Background(), event)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTransactor_WithinTransaction(t *testing.T) {
	line := repository.StockLine{ProductID: 7, Quantity: 1}

	t.Run("commits and joins the outer transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(decrementProductSQL)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx := NewTransactor(db)
		products := NewProductRepository(db)
		err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
			return tx.WithinTransaction(ctx, func(ctx context.Context) error {
				return products.DecrementStock(ctx, line)
			})
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(decrementProductSQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		products := NewProductRepository(db)
		err := NewTransactor(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
			return products.DecrementStock(ctx, line)
		})
		assert.ErrorIs(t, err, repository.ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
