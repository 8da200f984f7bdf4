package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	db, err := Open("sqlite", "file:dbtest?mode=memory&cache=shared")
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	_, err = Open("oracle", "x")
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}
