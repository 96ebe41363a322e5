// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/BricklayerDAO/mrtr-token/authority"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/staking/reserve"
	"github.com/BricklayerDAO/mrtr-token/state"
	"github.com/BricklayerDAO/mrtr-token/storage"
	"github.com/BricklayerDAO/mrtr-token/token"
)

// MainnetTreasury holds the non-reward share of the initial supply and
// carries the owner and treasurer roles at launch.
var MainnetTreasury = mrtr.BytesToAddress([]byte("mrtr-treasury"))

// mainnetBoundaries is the fixed quarter calendar: the 2024-08-29
// launch followed by 80 quarterly boundaries, all UTC midnights.
var mainnetBoundaries = []uint64{
	1724889600, 1732492800, 1740441600, 1748044800, // 2024-08-29, 2024-11-25, 2025-02-25, 2025-05-24
	1756425600, 1764028800, 1771977600, 1779580800, // 2025-08-29, 2025-11-25, 2026-02-25, 2026-05-24
	1787961600, 1795564800, 1803513600, 1811116800, // 2026-08-29, 2026-11-25, 2027-02-25, 2027-05-24
	1819497600, 1827100800, 1835049600, 1842739200, // 2027-08-29, 2027-11-25, 2028-02-25, 2028-05-24
	1851120000, 1858723200, 1866672000, 1874275200, // 2028-08-29, 2028-11-25, 2029-02-25, 2029-05-24
	1882656000, 1890259200, 1898208000, 1905811200, // 2029-08-29, 2029-11-25, 2030-02-25, 2030-05-24
	1914192000, 1921795200, 1929744000, 1937347200, // 2030-08-29, 2030-11-25, 2031-02-25, 2031-05-24
	1945728000, 1953331200, 1961280000, 1968969600, // 2031-08-29, 2031-11-25, 2032-02-25, 2032-05-24
	1977350400, 1984953600, 1992902400, 2000505600, // 2032-08-29, 2032-11-25, 2033-02-25, 2033-05-24
	2008886400, 2016489600, 2024438400, 2032041600, // 2033-08-29, 2033-11-25, 2034-02-25, 2034-05-24
	2040422400, 2048025600, 2055974400, 2063577600, // 2034-08-29, 2034-11-25, 2035-02-25, 2035-05-24
	2071958400, 2079561600, 2087510400, 2095200000, // 2035-08-29, 2035-11-25, 2036-02-25, 2036-05-24
	2103580800, 2111184000, 2119132800, 2126736000, // 2036-08-29, 2036-11-25, 2037-02-25, 2037-05-24
	2135116800, 2142720000, 2150668800, 2158272000, // 2037-08-29, 2037-11-25, 2038-02-25, 2038-05-24
	2166652800, 2174256000, 2182204800, 2189808000, // 2038-08-29, 2038-11-25, 2039-02-25, 2039-05-24
	2198188800, 2205792000, 2213740800, 2221430400, // 2039-08-29, 2039-11-25, 2040-02-25, 2040-05-24
	2229811200, 2237414400, 2245363200, 2252966400, // 2040-08-29, 2040-11-25, 2041-02-25, 2041-05-24
	2261347200, 2268950400, 2276899200, 2284502400, // 2041-08-29, 2041-11-25, 2042-02-25, 2042-05-24
	2292883200, 2300486400, 2308435200, 2316038400, // 2042-08-29, 2042-11-25, 2043-02-25, 2043-05-24
	2324419200, 2332022400, 2339971200, 2347660800, // 2043-08-29, 2043-11-25, 2044-02-25, 2044-05-24
	2356041600, // 2044-08-29
}

// NewMainnet create mainnet genesis.
func NewMainnet() *Genesis {
	treasuryFund := new(big.Int).Sub(mrtr.InitialSupply, mrtr.TotalRewards)

	builder := new(Builder).
		Timestamp(mainnetBoundaries[0]).
		State(func(st *state.State) error {
			if err := st.SetBalance(mrtr.InitialReserveAddress, mrtr.TotalRewards); err != nil {
				return err
			}
			if err := st.SetBalance(MainnetTreasury, treasuryFund); err != nil {
				return err
			}
			tok := token.New(mrtr.TokenAddress, st)
			tok.InitializeSupply(mrtr.InitialSupply)

			authority.New(storage.NewContext(mrtr.AuthorityAddress, st)).
				Init(MainnetTreasury, MainnetTreasury)
			reserve.New(storage.NewContext(mrtr.StakingAddress, st), tok).
				SetAddress(mrtr.InitialReserveAddress)
			return nil
		})

	return &Genesis{
		builder:    builder,
		name:       "mainnet",
		boundaries: mainnetBoundaries,
		rewards:    mrtr.TotalRewards,
	}
}
