package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePointStatus(t *testing.T) {
	for _, s := range []string{"AVAILABLE", "OCCUPIED"} {
		status, err := ParsePointStatus(s)
		require.NoError(t, err)
		assert.Equal(t, PointStatus(s), status)
	}

	// Availability is derived from reservation rows; a holding status is
	// not part of the stored set.
	_, err := ParsePointStatus("RESERVED")
	assert.Error(t, err)
}
