package model

import "github.com/ethereum/go-ethereum/common"

// Token captures ERC20 metadata. Decimals drive all fixed-point scaling.
type Token struct {
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
}

// Label returns the symbol when known, otherwise the hex address.
func (t Token) Label() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address.Hex()
}
