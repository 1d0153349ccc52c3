package chain

import (
	"fmt"
	"strings"

	"custody/config"
	"custody/pkg/consts"
	"custody/pkg/repo/driver/chain/algorand"
	"custody/utilities"
)

var chainStore *Store

type Store struct {
	store map[string]Chain
}

// Chain identifies accounts of a blockchain network.
type Chain interface {
	ValidateAddress(address string) error
	VerifySignature(address string, message, signature []byte) error
}

// LoadChains initialises identity verifiers of the supported networks
func LoadChains() {
	log := utilities.NewLogger("LoadChains")

	chainStore = new(Store)
	chainStore.store = make(map[string]Chain)

	for _, chain := range config.GetConfig().Chain.Supported {
		chain = strings.ToLower(chain)

		switch chain {
		case consts.Algorand:
			chainStore.store[consts.Algorand] = algorand.New()
		default:
			log.Warnf("chain %s is not supported, skipping", chain)
		}
	}
}

// GetChain returns the verifier of the specified blockchain network
func GetChain(network string) (Chain, error) {
	if chainStore == nil {
		return nil, fmt.Errorf("chains not loaded")
	}
	c, ok := chainStore.store[network]
	if !ok {
		return nil, fmt.Errorf("chain %s not supported", network)
	}
	return c, nil
}

// IsChainSupported checks if the given chain is supported by custody
func IsChainSupported(chain string) bool {
	if chainStore == nil {
		return false
	}
	_, present := chainStore.store[chain]
	return present
}
