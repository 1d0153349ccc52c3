package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custody/config"
	"custody/pkg/consts"
)

func TestLoadChains(t *testing.T) {
	config.SetConfig(&config.CustodyConfModel{
		Chain: config.Chain{Supported: []string{"Algorand", "xrpl"}},
	})
	LoadChains()

	assert.True(t, IsChainSupported(consts.Algorand))
	assert.False(t, IsChainSupported("xrpl"))

	c, err := GetChain(consts.Algorand)
	require.NoError(t, err)
	assert.Error(t, c.ValidateAddress("not-an-address"))

	_, err = GetChain("xrpl")
	assert.Error(t, err)
}
