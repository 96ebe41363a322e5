// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/state"
)

// Builder helper to build the genesis state.
type Builder struct {
	timestamp uint64

	stateProcs []func(state *state.State) error
}

// Timestamp set the launch timestamp.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// State add a state process.
func (b *Builder) State(proc func(state *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// Build runs the state processes against a fresh state and commits,
// returning the resulting state digest.
func (b *Builder) Build(stater *state.Stater) (mrtr.Bytes32, error) {
	st := stater.NewState()
	for _, proc := range b.stateProcs {
		if err := proc(st); err != nil {
			return mrtr.Bytes32{}, errors.Wrap(err, "state process")
		}
	}
	stage, err := st.Stage()
	if err != nil {
		return mrtr.Bytes32{}, errors.Wrap(err, "stage genesis state")
	}
	digest, err := stage.Commit()
	if err != nil {
		return mrtr.Bytes32{}, errors.Wrap(err, "commit genesis state")
	}
	return digest, nil
}
