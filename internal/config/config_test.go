package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayoutTimeLocation(t *testing.T) {
	loc, err := PayoutConfig{Location: "UTC"}.TimeLocation()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = PayoutConfig{Location: "Mars/Olympus_Mons"}.TimeLocation()
	assert.ErrorContains(t, err, "LEDGERLY_PAYOUT_LOCATION")
}
