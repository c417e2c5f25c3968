// transition.go implements the transition store: the input and output
// stores plus the content columns of each transition (program locator,
// finalize inputs, proof, tpk, tcm, fee) with reverse indexes on tpk
// and tcm. Whole transitions are inserted and removed under one atomic
// scope spanning every map of every sub-store.
package store

import (
	"errors"
	"fmt"

	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
	"github.com/avmlabs/go-avm/transition"
)

var (
	// ErrIncompleteTransition is returned when a stored transition is
	// missing one of its content columns.
	ErrIncompleteTransition = errors.New("store: incomplete transition")

	// ErrTransitionIDMismatch is returned when a reassembled
	// transition's recomputed ID differs from the stored one.
	ErrTransitionIDMismatch = errors.New("store: reassembled transition id mismatch")
)

// locator names the program and function a transition called.
type locator struct {
	programID    program.ProgramID
	functionName program.Identifier
}

// TransitionStore holds whole transitions: the input and output stores
// plus one map per content column.
type TransitionStore struct {
	// Transition ID to program ID and function name.
	locator Map[crypto.Field, locator]
	// The transition inputs.
	inputs *InputStore
	// The transition outputs.
	outputs *OutputStore
	// Transition ID to finalize inputs; nil means none were attached.
	finalize Map[crypto.Field, []program.Value]
	// Transition ID to execution proof.
	proof Map[crypto.Field, []byte]
	// Transition ID to transition public key.
	tpk Map[crypto.Field, crypto.Group]
	// Transition public key to transition ID.
	reverseTPK Map[crypto.Group, crypto.Field]
	// Transition ID to transition commitment.
	tcm Map[crypto.Field, crypto.Field]
	// Transition commitment to transition ID.
	reverseTCM Map[crypto.Field, crypto.Field]
	// Transition ID to fee.
	fee Map[crypto.Field, int64]
}

// NewTransitionStore creates a transition store backed by in-memory
// maps.
func NewTransitionStore() *TransitionStore {
	return &TransitionStore{
		locator:    NewMemoryMap[crypto.Field, locator](),
		inputs:     NewInputStore(),
		outputs:    NewOutputStore(),
		finalize:   NewMemoryMap[crypto.Field, []program.Value](),
		proof:      NewMemoryMap[crypto.Field, []byte](),
		tpk:        NewMemoryMap[crypto.Field, crypto.Group](),
		reverseTPK: NewMemoryMap[crypto.Group, crypto.Field](),
		tcm:        NewMemoryMap[crypto.Field, crypto.Field](),
		reverseTCM: NewMemoryMap[crypto.Field, crypto.Field](),
		fee:        NewMemoryMap[crypto.Field, int64](),
	}
}

// InputStore returns the underlying input store.
func (s *TransitionStore) InputStore() *InputStore { return s.inputs }

// OutputStore returns the underlying output store.
func (s *TransitionStore) OutputStore() *OutputStore { return s.outputs }

// StartAtomic begins an atomic batch on every map of every sub-store.
func (s *TransitionStore) StartAtomic() {
	s.locator.StartAtomic()
	s.inputs.StartAtomic()
	s.outputs.StartAtomic()
	s.finalize.StartAtomic()
	s.proof.StartAtomic()
	s.tpk.StartAtomic()
	s.reverseTPK.StartAtomic()
	s.tcm.StartAtomic()
	s.reverseTCM.StartAtomic()
	s.fee.StartAtomic()
}

// IsAtomicInProgress reports whether any underlying map has an open
// batch.
func (s *TransitionStore) IsAtomicInProgress() bool {
	return s.locator.IsAtomicInProgress() ||
		s.inputs.IsAtomicInProgress() ||
		s.outputs.IsAtomicInProgress() ||
		s.finalize.IsAtomicInProgress() ||
		s.proof.IsAtomicInProgress() ||
		s.tpk.IsAtomicInProgress() ||
		s.reverseTPK.IsAtomicInProgress() ||
		s.tcm.IsAtomicInProgress() ||
		s.reverseTCM.IsAtomicInProgress() ||
		s.fee.IsAtomicInProgress()
}

// AbortAtomic discards the open batch on every map of every sub-store.
func (s *TransitionStore) AbortAtomic() {
	s.locator.AbortAtomic()
	s.inputs.AbortAtomic()
	s.outputs.AbortAtomic()
	s.finalize.AbortAtomic()
	s.proof.AbortAtomic()
	s.tpk.AbortAtomic()
	s.reverseTPK.AbortAtomic()
	s.tcm.AbortAtomic()
	s.reverseTCM.AbortAtomic()
	s.fee.AbortAtomic()
}

// FinishAtomic commits the open batch on every map of every sub-store.
func (s *TransitionStore) FinishAtomic() error {
	if err := s.locator.FinishAtomic(); err != nil {
		return err
	}
	if err := s.inputs.FinishAtomic(); err != nil {
		return err
	}
	if err := s.outputs.FinishAtomic(); err != nil {
		return err
	}
	if err := s.finalize.FinishAtomic(); err != nil {
		return err
	}
	if err := s.proof.FinishAtomic(); err != nil {
		return err
	}
	if err := s.tpk.FinishAtomic(); err != nil {
		return err
	}
	if err := s.reverseTPK.FinishAtomic(); err != nil {
		return err
	}
	if err := s.tcm.FinishAtomic(); err != nil {
		return err
	}
	if err := s.reverseTCM.FinishAtomic(); err != nil {
		return err
	}
	return s.fee.FinishAtomic()
}

// Insert stores a whole transition. The content columns and the input
// and output stores are written under one atomic scope; the nested
// sub-store inserts join it.
func (s *TransitionStore) Insert(t *transition.Transition) error {
	return atomicWrite(s, func() error {
		transitionID := t.ID()

		if err := s.locator.Insert(transitionID, locator{programID: t.ProgramID(), functionName: t.FunctionName()}); err != nil {
			return err
		}
		if err := s.inputs.Insert(transitionID, t.Inputs()); err != nil {
			return err
		}
		if err := s.outputs.Insert(transitionID, t.Outputs()); err != nil {
			return err
		}

		// Finalize returns a non-nil slice exactly when finalize inputs
		// were attached, so the slice itself carries the optionality.
		finalize, _ := t.Finalize()
		if err := s.finalize.Insert(transitionID, finalize); err != nil {
			return err
		}

		if err := s.proof.Insert(transitionID, t.Proof()); err != nil {
			return err
		}
		if err := s.tpk.Insert(transitionID, t.TPK()); err != nil {
			return err
		}
		if err := s.reverseTPK.Insert(t.TPK(), transitionID); err != nil {
			return err
		}
		if err := s.tcm.Insert(transitionID, t.TCM()); err != nil {
			return err
		}
		if err := s.reverseTCM.Insert(t.TCM(), transitionID); err != nil {
			return err
		}
		return s.fee.Insert(transitionID, t.Fee())
	})
}

// Remove deletes a whole transition from every map of every sub-store.
// An unknown transition ID is a no-op.
func (s *TransitionStore) Remove(transitionID crypto.Field) error {
	// The reverse indexes are keyed by the stored tpk and tcm.
	tpk, ok, err := s.tpk.Get(transitionID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	tcm, ok, err := s.tcm.Get(transitionID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: transition %s has no tcm", ErrIncompleteTransition, transitionID.String())
	}

	return atomicWrite(s, func() error {
		if err := s.locator.Remove(transitionID); err != nil {
			return err
		}
		if err := s.inputs.Remove(transitionID); err != nil {
			return err
		}
		if err := s.outputs.Remove(transitionID); err != nil {
			return err
		}
		if err := s.finalize.Remove(transitionID); err != nil {
			return err
		}
		if err := s.proof.Remove(transitionID); err != nil {
			return err
		}
		if err := s.tpk.Remove(transitionID); err != nil {
			return err
		}
		if err := s.reverseTPK.Remove(tpk); err != nil {
			return err
		}
		if err := s.tcm.Remove(transitionID); err != nil {
			return err
		}
		if err := s.reverseTCM.Remove(tcm); err != nil {
			return err
		}
		return s.fee.Remove(transitionID)
	})
}

// GetTransition reassembles the stored transition. An unknown ID
// yields nil; a stored transition with missing content columns is an
// error.
func (s *TransitionStore) GetTransition(transitionID crypto.Field) (*transition.Transition, error) {
	loc, ok, err := s.locator.Get(transitionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	inputs, err := s.inputs.Get(transitionID)
	if err != nil {
		return nil, err
	}
	outputs, err := s.outputs.Get(transitionID)
	if err != nil {
		return nil, err
	}

	finalize, ok, err := s.finalize.Get(transitionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: transition %s has no finalize entry", ErrIncompleteTransition, transitionID.String())
	}
	proof, ok, err := s.proof.Get(transitionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: transition %s has no proof", ErrIncompleteTransition, transitionID.String())
	}
	tpk, ok, err := s.tpk.Get(transitionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: transition %s has no tpk", ErrIncompleteTransition, transitionID.String())
	}
	tcm, ok, err := s.tcm.Get(transitionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: transition %s has no tcm", ErrIncompleteTransition, transitionID.String())
	}
	fee, ok, err := s.fee.Get(transitionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: transition %s has no fee", ErrIncompleteTransition, transitionID.String())
	}

	t, err := transition.FromParts(loc.programID, loc.functionName, inputs, outputs, finalize, proof, tpk, tcm, fee)
	if err != nil {
		return nil, err
	}
	if got := t.ID(); !crypto.FieldsEqual(got, transitionID) {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrTransitionIDMismatch, got.String(), transitionID.String())
	}
	return t, nil
}

// ContainsTransitionID reports whether the transition is stored.
func (s *TransitionStore) ContainsTransitionID(transitionID crypto.Field) (bool, error) {
	return s.locator.Contains(transitionID)
}

// TransitionIDs returns the IDs of all stored transitions.
func (s *TransitionStore) TransitionIDs() []crypto.Field { return s.locator.Keys() }

// GetFee returns the fee of the stored transition.
func (s *TransitionStore) GetFee(transitionID crypto.Field) (int64, bool, error) {
	return s.fee.Get(transitionID)
}

// GetRecord returns the record ciphertext stored under the commitment.
func (s *TransitionStore) GetRecord(commitment crypto.Field) (*program.RecordCiphertext, error) {
	return s.outputs.GetRecord(commitment)
}

// FindTransitionIDFromInputID returns the transition that consumed the
// input ID. Record inputs are found by serial number.
func (s *TransitionStore) FindTransitionIDFromInputID(inputID crypto.Field) (crypto.Field, bool, error) {
	return s.inputs.FindTransitionID(inputID)
}

// FindTransitionIDFromOutputID returns the transition that produced
// the output ID. Record outputs are found by commitment.
func (s *TransitionStore) FindTransitionIDFromOutputID(outputID crypto.Field) (crypto.Field, bool, error) {
	return s.outputs.FindTransitionID(outputID)
}

// FindTransitionIDFromTPK returns the transition signed under the
// transition public key.
func (s *TransitionStore) FindTransitionIDFromTPK(tpk crypto.Group) (crypto.Field, bool, error) {
	return s.reverseTPK.Get(tpk)
}

// FindTransitionIDFromTCM returns the transition bound to the
// transition commitment.
func (s *TransitionStore) FindTransitionIDFromTCM(tcm crypto.Field) (crypto.Field, bool, error) {
	return s.reverseTCM.Get(tcm)
}

// ContainsTPK reports whether any stored transition used the
// transition public key.
func (s *TransitionStore) ContainsTPK(tpk crypto.Group) (bool, error) {
	return s.reverseTPK.Contains(tpk)
}

// ContainsTCM reports whether any stored transition carries the
// transition commitment.
func (s *TransitionStore) ContainsTCM(tcm crypto.Field) (bool, error) {
	return s.reverseTCM.Contains(tcm)
}

// ContainsSerialNumber reports whether a record was spent under the
// serial number.
func (s *TransitionStore) ContainsSerialNumber(serialNumber crypto.Field) (bool, error) {
	return s.inputs.ContainsSerialNumber(serialNumber)
}

// ContainsTag reports whether a record was spent under the tag.
func (s *TransitionStore) ContainsTag(tag crypto.Field) (bool, error) {
	return s.inputs.ContainsTag(tag)
}

// ContainsCommitment reports whether a record output carries the
// commitment.
func (s *TransitionStore) ContainsCommitment(commitment crypto.Field) (bool, error) {
	return s.outputs.ContainsCommitment(commitment)
}

// ContainsNonce reports whether any transmitted record carries the
// nonce.
func (s *TransitionStore) ContainsNonce(nonce crypto.Group) (bool, error) {
	return s.outputs.ContainsNonce(nonce)
}

// SerialNumbers returns the serial numbers of all spent records.
func (s *TransitionStore) SerialNumbers() []crypto.Field { return s.inputs.SerialNumbers() }

// Tags returns the tags of all spent records.
func (s *TransitionStore) Tags() []crypto.Field { return s.inputs.Tags() }

// Commitments returns the commitments of all record outputs.
func (s *TransitionStore) Commitments() []crypto.Field { return s.outputs.Commitments() }

// Nonces returns the nonces of all transmitted records.
func (s *TransitionStore) Nonces() []crypto.Group { return s.outputs.Nonces() }
