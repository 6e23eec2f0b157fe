package apperror

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestKindsMatchThroughErrorsIs(t *testing.T) {
	cases := []struct {
		err  error
		kind error
	}{
		{NotFound("tenant", "id %d", 1), ErrNotFound},
		{InvalidArgument("tenant", "bad"), ErrInvalidArgument},
		{MissingField("tenant", "name"), ErrInvalidArgument},
		{ReferentialIntegrity("role", "in use"), ErrReferentialIntegrity},
		{Transient("role", context.DeadlineExceeded), ErrTransient},
		{Uniqueness("role", "name"), ErrUniqueness},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("outer: %w", tc.err)
		assert.ErrorIs(t, wrapped, tc.kind, tc.err.Error())
		assert.True(t, IsKnown(wrapped))
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "invalid_argument: tenant: field name not informed", MissingField("tenant", "name").Error())
	assert.Equal(t, "uniqueness_constraint: permission: duplicated field(s): actionId, resourceId",
		Uniqueness("permission", "actionId", "resourceId").Error())
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify("tenant", nil))

	plain := errors.New("boom")
	assert.Same(t, plain, Classify("tenant", plain))

	known := NotFound("tenant", "x")
	assert.Same(t, known, Classify("tenant", known))

	for _, cause := range []error{context.DeadlineExceeded, context.Canceled, driver.ErrBadConn, errors.New("dial tcp: connection refused")} {
		assert.ErrorIs(t, Classify("tenant", cause), ErrTransient, cause.Error())
	}
}

func TestClassifyDriverFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "tenants"`).WillReturnError(errors.New("read tcp 10.0.0.7:5432: connection reset by peer"))

	var count int64
	err = conn.Table("tenants").Count(&count).Error
	require.Error(t, err)

	classified := Classify("tenant", err)
	assert.ErrorIs(t, classified, ErrTransient)
	assert.False(t, errors.Is(classified, ErrNotFound))
}
