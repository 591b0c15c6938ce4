package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ORD-20250101-0001' for key 'uk_order_number'"}

	assert.True(t, IsDuplicateKey(dup))
	assert.True(t, IsDuplicateKey(fmt.Errorf("insert order: %w", dup)))
	assert.False(t, IsDuplicateKey(&mysql.MySQLError{Number: 1146}))
	assert.False(t, IsDuplicateKey(fmt.Errorf("boom")))
	assert.False(t, IsDuplicateKey(nil))
}

func TestNormalizeDSNForcesParseTime(t *testing.T) {
	dsn, err := normalizeDSN("user:pass@tcp(db:3306)/freshmart")
	require.NoError(t, err)

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, "freshmart", parsed.DBName)
	assert.Equal(t, "db:3306", parsed.Addr)

	assert.Equal(t, time.UTC, parsed.Loc)
	assert.Equal(t, "'+00:00'", parsed.Params["time_zone"])

	_, err = normalizeDSN("not a dsn")
	assert.Error(t, err)
}

func TestNormalizeDSNOverridesTimeZone(t *testing.T) {
	dsn, err := normalizeDSN("user:pass@tcp(db:3306)/freshmart?loc=Local&time_zone=%27%2B05%3A30%27")
	require.NoError(t, err)

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, parsed.Loc)
	assert.Equal(t, "'+00:00'", parsed.Params["time_zone"])
}
