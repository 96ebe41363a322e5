// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

// CustomGenesis is user customized genesis
type CustomGenesis struct {
	Name         string           `json:"name"`
	Boundaries   []uint64         `json:"boundaries"`
	TotalRewards *HexOrDecimal256 `json:"totalRewards"`
	Owner        mrtr.Address     `json:"owner"`
	Treasurer    mrtr.Address     `json:"treasurer"`
	Reserve      *mrtr.Address    `json:"reserve"`
	Accounts     []Account        `json:"accounts"`
}

// Account is an account funded in the genesis state
type Account struct {
	Address mrtr.Address     `json:"address"`
	Balance *HexOrDecimal256 `json:"balance"`
}

// HexOrDecimal256 marshals big.Int as hex or decimal.
// Copied from go-ethereum/common/math and implement json.Marshaler
type HexOrDecimal256 math.HexOrDecimal256

// UnmarshalJSON implements the json.Unmarshaler interface.
func (i *HexOrDecimal256) UnmarshalJSON(input []byte) error {
	var hex string
	if err := json.Unmarshal(input, &hex); err != nil {
		if err = (*big.Int)(i).UnmarshalJSON(input); err != nil {
			return err
		}
		return nil
	}
	bigint, ok := math.ParseBig256(hex)
	if !ok {
		return fmt.Errorf("invalid hex or decimal integer %q", input)
	}
	*i = HexOrDecimal256(*bigint)
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (i HexOrDecimal256) MarshalJSON() ([]byte, error) {
	decimal256 := math.HexOrDecimal256(i)
	text, err := decimal256.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// ToBig converts to a big int, nil stays nil.
func (i *HexOrDecimal256) ToBig() *big.Int {
	if i == nil {
		return nil
	}
	return (*big.Int)(i)
}
