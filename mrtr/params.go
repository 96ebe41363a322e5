// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mrtr

import "math/big"

// Constants of the staking ledger.
const (
	// QuarterCount is the number of accrual windows spanning the staking period.
	QuarterCount = 80

	// TokenName   is the underlying asset name.
	// TokenSymbol is the underlying asset symbol.
	TokenName   = "Mortar"
	TokenSymbol = "MRTR"

	// StakedTokenName   is the claim-share token name.
	// StakedTokenSymbol is the claim-share token symbol.
	StakedTokenName   = "Staked Mortar"
	StakedTokenSymbol = "stMRTR"

	// TokenDecimals applies to both the asset and the share token.
	TokenDecimals = 18
)

// Precision is the fixed-point scale of cumulative reward-per-share values.
var Precision = big.NewInt(1e18)

// Mainnet economic parameters.
var (
	// InitialSupply is the genesis token supply.
	InitialSupply = new(big.Int).Mul(big.NewInt(1_000_000_000), Precision)

	// TotalRewards is the reward budget emitted across the full quarter
	// calendar.
	TotalRewards = new(big.Int).Mul(big.NewInt(200_000_000), Precision)
)

// Well-known account addresses.
var (
	// StakingAddress holds staked assets, pulled rewards and unclaimed shares.
	StakingAddress = BytesToAddress([]byte("mrtr-staking-pool"))

	// InitialReserveAddress is the default reward reserve custody account.
	// The effective reserve address is recorded in ledger state and may be
	// changed by the owner.
	InitialReserveAddress = BytesToAddress([]byte("mrtr-reward-reserve"))

	// TokenAddress keys the token supply counters.
	TokenAddress = BytesToAddress([]byte("mrtr-token"))

	// AuthorityAddress keys the role and pause records.
	AuthorityAddress = BytesToAddress([]byte("mrtr-authority"))
)
