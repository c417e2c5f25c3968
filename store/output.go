// output.go implements the transition output store: eight keyed maps
// holding the output IDs of each transition, the reverse index back to
// the transition, and one map per output kind, written together under
// atomic batches.
package store

import (
	"errors"
	"fmt"

	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
	"github.com/avmlabs/go-avm/transition"
)

var (
	// ErrMissingOutput is returned when an output ID is listed for a
	// transition but present in none of the per-kind maps.
	ErrMissingOutput = errors.New("store: missing output")

	// ErrMultipleOutputs is returned when an output ID is present in
	// more than one per-kind map.
	ErrMultipleOutputs = errors.New("store: multiple outputs for one output id")

	// ErrRecordNotFound is returned when no record entry exists for a
	// commitment.
	ErrRecordNotFound = errors.New("store: record not found")
)

// recordEntry is the record-map value: the ciphertext checksum plus
// the ciphertext itself when it was transmitted.
type recordEntry struct {
	checksum crypto.Field
	record   *program.RecordCiphertext
}

// RecordPair couples a record commitment with its stored ciphertext.
type RecordPair struct {
	Commitment crypto.Field
	Record     program.RecordCiphertext
}

// OutputStore holds the outputs of stored transitions, partitioned by
// output kind. Multi-map writes run under a single atomic batch.
type OutputStore struct {
	// Transition ID to output IDs.
	ids Map[crypto.Field, []crypto.Field]
	// Output ID to transition ID.
	reverse Map[crypto.Field, crypto.Field]
	// Constant output ID to optional plaintext.
	constant Map[crypto.Field, *program.Plaintext]
	// Public output ID to optional plaintext.
	public Map[crypto.Field, *program.Plaintext]
	// Private output ID to optional ciphertext.
	private Map[crypto.Field, []crypto.Field]
	// Record commitment to checksum and optional record ciphertext.
	record Map[crypto.Field, recordEntry]
	// Record nonce to commitment.
	recordNonce Map[crypto.Group, crypto.Field]
	// External record output ID, key only.
	external Map[crypto.Field, struct{}]
}

// NewOutputStore creates an output store backed by in-memory maps.
func NewOutputStore() *OutputStore {
	return &OutputStore{
		ids:         NewMemoryMap[crypto.Field, []crypto.Field](),
		reverse:     NewMemoryMap[crypto.Field, crypto.Field](),
		constant:    NewMemoryMap[crypto.Field, *program.Plaintext](),
		public:      NewMemoryMap[crypto.Field, *program.Plaintext](),
		private:     NewMemoryMap[crypto.Field, []crypto.Field](),
		record:      NewMemoryMap[crypto.Field, recordEntry](),
		recordNonce: NewMemoryMap[crypto.Group, crypto.Field](),
		external:    NewMemoryMap[crypto.Field, struct{}](),
	}
}

// StartAtomic begins an atomic batch on every output map.
func (s *OutputStore) StartAtomic() {
	s.ids.StartAtomic()
	s.reverse.StartAtomic()
	s.constant.StartAtomic()
	s.public.StartAtomic()
	s.private.StartAtomic()
	s.record.StartAtomic()
	s.recordNonce.StartAtomic()
	s.external.StartAtomic()
}

// IsAtomicInProgress reports whether any output map has an open batch.
func (s *OutputStore) IsAtomicInProgress() bool {
	return s.ids.IsAtomicInProgress() ||
		s.reverse.IsAtomicInProgress() ||
		s.constant.IsAtomicInProgress() ||
		s.public.IsAtomicInProgress() ||
		s.private.IsAtomicInProgress() ||
		s.record.IsAtomicInProgress() ||
		s.recordNonce.IsAtomicInProgress() ||
		s.external.IsAtomicInProgress()
}

// AbortAtomic discards the open batch on every output map.
func (s *OutputStore) AbortAtomic() {
	s.ids.AbortAtomic()
	s.reverse.AbortAtomic()
	s.constant.AbortAtomic()
	s.public.AbortAtomic()
	s.private.AbortAtomic()
	s.record.AbortAtomic()
	s.recordNonce.AbortAtomic()
	s.external.AbortAtomic()
}

// FinishAtomic commits the open batch on every output map.
func (s *OutputStore) FinishAtomic() error {
	if err := s.ids.FinishAtomic(); err != nil {
		return err
	}
	if err := s.reverse.FinishAtomic(); err != nil {
		return err
	}
	if err := s.constant.FinishAtomic(); err != nil {
		return err
	}
	if err := s.public.FinishAtomic(); err != nil {
		return err
	}
	if err := s.private.FinishAtomic(); err != nil {
		return err
	}
	if err := s.record.FinishAtomic(); err != nil {
		return err
	}
	if err := s.recordNonce.FinishAtomic(); err != nil {
		return err
	}
	return s.external.FinishAtomic()
}

// Insert stores the outputs of one transition. All writes land in a
// single atomic batch; when called inside an enclosing batch they join
// it instead.
func (s *OutputStore) Insert(transitionID crypto.Field, outputs []transition.Output) error {
	return atomicWrite(s, func() error {
		ids := make([]crypto.Field, len(outputs))
		for i, output := range outputs {
			ids[i] = output.ID()
		}
		if err := s.ids.Insert(transitionID, ids); err != nil {
			return err
		}

		for _, output := range outputs {
			if err := s.reverse.Insert(output.ID(), transitionID); err != nil {
				return err
			}
			switch o := output.(type) {
			case transition.ConstantOutput:
				if err := s.constant.Insert(o.Hash, o.Value); err != nil {
					return err
				}
			case transition.PublicOutput:
				if err := s.public.Insert(o.Hash, o.Value); err != nil {
					return err
				}
			case transition.PrivateOutput:
				if err := s.private.Insert(o.Hash, o.Ciphertext); err != nil {
					return err
				}
			case transition.RecordOutput:
				// A transmitted record also lands in the nonce index.
				if o.Record != nil {
					if err := s.recordNonce.Insert(o.Record.Nonce(), o.Commitment); err != nil {
						return err
					}
				}
				if err := s.record.Insert(o.Commitment, recordEntry{checksum: o.Checksum, record: o.Record}); err != nil {
					return err
				}
			case transition.ExternalRecordOutput:
				if err := s.external.Insert(o.Hash, struct{}{}); err != nil {
					return err
				}
			default:
				return fmt.Errorf("store: unknown output kind %T", output)
			}
		}
		return nil
	})
}

// Remove deletes the outputs of one transition from every map. A
// transition with no stored outputs is a no-op.
func (s *OutputStore) Remove(transitionID crypto.Field) error {
	ids, ok, err := s.ids.Get(transitionID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	return atomicWrite(s, func() error {
		if err := s.ids.Remove(transitionID); err != nil {
			return err
		}
		for _, outputID := range ids {
			if err := s.reverse.Remove(outputID); err != nil {
				return err
			}

			// A stored record carries a nonce index entry that goes
			// with it.
			entry, isRecord, err := s.record.Get(outputID)
			if err != nil {
				return err
			}
			if isRecord && entry.record != nil {
				if err := s.recordNonce.Remove(entry.record.Nonce()); err != nil {
					return err
				}
			}

			if err := s.constant.Remove(outputID); err != nil {
				return err
			}
			if err := s.public.Remove(outputID); err != nil {
				return err
			}
			if err := s.private.Remove(outputID); err != nil {
				return err
			}
			if err := s.record.Remove(outputID); err != nil {
				return err
			}
			if err := s.external.Remove(outputID); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetIDs returns the output IDs of the transition, in stored order. A
// transition with no stored outputs yields an empty slice.
func (s *OutputStore) GetIDs(transitionID crypto.Field) ([]crypto.Field, error) {
	ids, ok, err := s.ids.Get(transitionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	out := make([]crypto.Field, len(ids))
	copy(out, ids)
	return out, nil
}

// Get returns the outputs of the transition, in stored order. A
// transition with no stored outputs yields an empty slice.
func (s *OutputStore) Get(transitionID crypto.Field) ([]transition.Output, error) {
	ids, ok, err := s.ids.Get(transitionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	outputs := make([]transition.Output, len(ids))
	for i, outputID := range ids {
		output, err := s.getOutput(transitionID, outputID)
		if err != nil {
			return nil, err
		}
		outputs[i] = output
	}
	return outputs, nil
}

// getOutput reconstructs one output from whichever per-kind map holds
// its ID. Exactly one map may hold it; anything else is inconsistent
// storage.
func (s *OutputStore) getOutput(transitionID, outputID crypto.Field) (transition.Output, error) {
	constant, inConstant, err := s.constant.Get(outputID)
	if err != nil {
		return nil, err
	}
	public, inPublic, err := s.public.Get(outputID)
	if err != nil {
		return nil, err
	}
	private, inPrivate, err := s.private.Get(outputID)
	if err != nil {
		return nil, err
	}
	record, inRecord, err := s.record.Get(outputID)
	if err != nil {
		return nil, err
	}
	inExternal, err := s.external.Contains(outputID)
	if err != nil {
		return nil, err
	}

	count := 0
	for _, in := range []bool{inConstant, inPublic, inPrivate, inRecord, inExternal} {
		if in {
			count++
		}
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: output %s of transition %s", ErrMissingOutput, outputID.String(), transitionID.String())
	}
	if count > 1 {
		return nil, fmt.Errorf("%w: output %s of transition %s", ErrMultipleOutputs, outputID.String(), transitionID.String())
	}

	switch {
	case inConstant:
		return transition.ConstantOutput{Hash: outputID, Value: constant}, nil
	case inPublic:
		return transition.PublicOutput{Hash: outputID, Value: public}, nil
	case inPrivate:
		return transition.PrivateOutput{Hash: outputID, Ciphertext: private}, nil
	case inRecord:
		return transition.RecordOutput{Commitment: outputID, Checksum: record.checksum, Record: record.record}, nil
	default:
		return transition.ExternalRecordOutput{Hash: outputID}, nil
	}
}

// GetRecord returns the record ciphertext stored under the commitment.
// A nil ciphertext with nil error means the record was not
// transmitted; an unknown commitment is an error.
func (s *OutputStore) GetRecord(commitment crypto.Field) (*program.RecordCiphertext, error) {
	entry, ok, err := s.record.Get(commitment)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: commitment %s", ErrRecordNotFound, commitment.String())
	}
	return entry.record, nil
}

// FindTransitionID returns the transition that produced the output ID.
func (s *OutputStore) FindTransitionID(outputID crypto.Field) (crypto.Field, bool, error) {
	return s.reverse.Get(outputID)
}

// ContainsOutputID reports whether any transition produced the output
// ID.
func (s *OutputStore) ContainsOutputID(outputID crypto.Field) (bool, error) {
	return s.reverse.Contains(outputID)
}

// ContainsCommitment reports whether a record output carries the
// commitment.
func (s *OutputStore) ContainsCommitment(commitment crypto.Field) (bool, error) {
	return s.record.Contains(commitment)
}

// ContainsChecksum reports whether any record output carries the
// checksum.
func (s *OutputStore) ContainsChecksum(checksum crypto.Field) bool {
	for _, c := range s.Checksums() {
		if crypto.FieldsEqual(c, checksum) {
			return true
		}
	}
	return false
}

// ContainsNonce reports whether any transmitted record carries the
// nonce.
func (s *OutputStore) ContainsNonce(nonce crypto.Group) (bool, error) {
	return s.recordNonce.Contains(nonce)
}

// OutputIDs returns the IDs of all stored outputs.
func (s *OutputStore) OutputIDs() []crypto.Field { return s.reverse.Keys() }

// ConstantOutputIDs returns the IDs of all constant outputs.
func (s *OutputStore) ConstantOutputIDs() []crypto.Field { return s.constant.Keys() }

// PublicOutputIDs returns the IDs of all public outputs.
func (s *OutputStore) PublicOutputIDs() []crypto.Field { return s.public.Keys() }

// PrivateOutputIDs returns the IDs of all private outputs.
func (s *OutputStore) PrivateOutputIDs() []crypto.Field { return s.private.Keys() }

// Commitments returns the commitments of all record outputs.
func (s *OutputStore) Commitments() []crypto.Field { return s.record.Keys() }

// ExternalOutputIDs returns the IDs of all external record outputs.
func (s *OutputStore) ExternalOutputIDs() []crypto.Field { return s.external.Keys() }

// ConstantOutputs returns every transmitted constant output value.
func (s *OutputStore) ConstantOutputs() []program.Plaintext {
	var out []program.Plaintext
	for _, v := range s.constant.Values() {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// PublicOutputs returns every transmitted public output value.
func (s *OutputStore) PublicOutputs() []program.Plaintext {
	var out []program.Plaintext
	for _, v := range s.public.Values() {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// PrivateOutputs returns every transmitted private output ciphertext.
func (s *OutputStore) PrivateOutputs() [][]crypto.Field {
	var out [][]crypto.Field
	for _, v := range s.private.Values() {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// Checksums returns the checksums of all record outputs.
func (s *OutputStore) Checksums() []crypto.Field {
	values := s.record.Values()
	out := make([]crypto.Field, len(values))
	for i, entry := range values {
		out[i] = entry.checksum
	}
	return out
}

// Nonces returns the nonces of all transmitted records.
func (s *OutputStore) Nonces() []crypto.Group { return s.recordNonce.Keys() }

// Records returns the (commitment, record) pairs of every transmitted
// record.
func (s *OutputStore) Records() ([]RecordPair, error) {
	var out []RecordPair
	for _, commitment := range s.record.Keys() {
		entry, ok, err := s.record.Get(commitment)
		if err != nil {
			return nil, err
		}
		if ok && entry.record != nil {
			out = append(out, RecordPair{Commitment: commitment, Record: *entry.record})
		}
	}
	return out, nil
}
