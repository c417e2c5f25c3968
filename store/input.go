// input.go implements the transition input store, the input-side twin
// of the output store: per-kind maps keyed by input ID, a serial
// number to tag map for spent records, and the tag reverse index.
package store

import (
	"errors"
	"fmt"

	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
	"github.com/avmlabs/go-avm/transition"
)

var (
	// ErrMissingInput is returned when an input ID is listed for a
	// transition but present in none of the per-kind maps.
	ErrMissingInput = errors.New("store: missing input")

	// ErrMultipleInputs is returned when an input ID is present in more
	// than one per-kind map.
	ErrMultipleInputs = errors.New("store: multiple inputs for one input id")
)

// InputStore holds the inputs of stored transitions, partitioned by
// input kind. Multi-map writes run under a single atomic batch.
type InputStore struct {
	// Transition ID to input IDs.
	ids Map[crypto.Field, []crypto.Field]
	// Input ID to transition ID.
	reverse Map[crypto.Field, crypto.Field]
	// Constant input ID to optional plaintext.
	constant Map[crypto.Field, *program.Plaintext]
	// Public input ID to optional plaintext.
	public Map[crypto.Field, *program.Plaintext]
	// Private input ID to optional ciphertext.
	private Map[crypto.Field, []crypto.Field]
	// Serial number to tag.
	record Map[crypto.Field, crypto.Field]
	// Tag to serial number.
	recordTag Map[crypto.Field, crypto.Field]
	// External record input ID, key only.
	external Map[crypto.Field, struct{}]
}

// NewInputStore creates an input store backed by in-memory maps.
func NewInputStore() *InputStore {
	return &InputStore{
		ids:       NewMemoryMap[crypto.Field, []crypto.Field](),
		reverse:   NewMemoryMap[crypto.Field, crypto.Field](),
		constant:  NewMemoryMap[crypto.Field, *program.Plaintext](),
		public:    NewMemoryMap[crypto.Field, *program.Plaintext](),
		private:   NewMemoryMap[crypto.Field, []crypto.Field](),
		record:    NewMemoryMap[crypto.Field, crypto.Field](),
		recordTag: NewMemoryMap[crypto.Field, crypto.Field](),
		external:  NewMemoryMap[crypto.Field, struct{}](),
	}
}

// StartAtomic begins an atomic batch on every input map.
func (s *InputStore) StartAtomic() {
	s.ids.StartAtomic()
	s.reverse.StartAtomic()
	s.constant.StartAtomic()
	s.public.StartAtomic()
	s.private.StartAtomic()
	s.record.StartAtomic()
	s.recordTag.StartAtomic()
	s.external.StartAtomic()
}

// IsAtomicInProgress reports whether any input map has an open batch.
func (s *InputStore) IsAtomicInProgress() bool {
	return s.ids.IsAtomicInProgress() ||
		s.reverse.IsAtomicInProgress() ||
		s.constant.IsAtomicInProgress() ||
		s.public.IsAtomicInProgress() ||
		s.private.IsAtomicInProgress() ||
		s.record.IsAtomicInProgress() ||
		s.recordTag.IsAtomicInProgress() ||
		s.external.IsAtomicInProgress()
}

// AbortAtomic discards the open batch on every input map.
func (s *InputStore) AbortAtomic() {
	s.ids.AbortAtomic()
	s.reverse.AbortAtomic()
	s.constant.AbortAtomic()
	s.public.AbortAtomic()
	s.private.AbortAtomic()
	s.record.AbortAtomic()
	s.recordTag.AbortAtomic()
	s.external.AbortAtomic()
}

// FinishAtomic commits the open batch on every input map.
func (s *InputStore) FinishAtomic() error {
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
	if err := s.recordTag.FinishAtomic(); err != nil {
		return err
	}
	return s.external.FinishAtomic()
}

// Insert stores the inputs of one transition. All writes land in a
// single atomic batch; when called inside an enclosing batch they join
// it instead.
func (s *InputStore) Insert(transitionID crypto.Field, inputs []transition.Input) error {
	return atomicWrite(s, func() error {
		ids := make([]crypto.Field, len(inputs))
		for i, input := range inputs {
			ids[i] = input.ID()
		}
		if err := s.ids.Insert(transitionID, ids); err != nil {
			return err
		}

		for _, input := range inputs {
			if err := s.reverse.Insert(input.ID(), transitionID); err != nil {
				return err
			}
			switch in := input.(type) {
			case transition.ConstantInput:
				if err := s.constant.Insert(in.Hash, in.Value); err != nil {
					return err
				}
			case transition.PublicInput:
				if err := s.public.Insert(in.Hash, in.Value); err != nil {
					return err
				}
			case transition.PrivateInput:
				if err := s.private.Insert(in.Hash, in.Ciphertext); err != nil {
					return err
				}
			case transition.RecordInput:
				if err := s.recordTag.Insert(in.Tag, in.SerialNumber); err != nil {
					return err
				}
				if err := s.record.Insert(in.SerialNumber, in.Tag); err != nil {
					return err
				}
			case transition.ExternalRecordInput:
				if err := s.external.Insert(in.Hash, struct{}{}); err != nil {
					return err
				}
			default:
				return fmt.Errorf("store: unknown input kind %T", input)
			}
		}
		return nil
	})
}

// Remove deletes the inputs of one transition from every map. A
// transition with no stored inputs is a no-op.
func (s *InputStore) Remove(transitionID crypto.Field) error {
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
		for _, inputID := range ids {
			if err := s.reverse.Remove(inputID); err != nil {
				return err
			}

			// A spent record carries a tag index entry that goes with
			// it.
			tag, isRecord, err := s.record.Get(inputID)
			if err != nil {
				return err
			}
			if isRecord {
				if err := s.recordTag.Remove(tag); err != nil {
					return err
				}
			}

			if err := s.constant.Remove(inputID); err != nil {
				return err
			}
			if err := s.public.Remove(inputID); err != nil {
				return err
			}
			if err := s.private.Remove(inputID); err != nil {
				return err
			}
			if err := s.record.Remove(inputID); err != nil {
				return err
			}
			if err := s.external.Remove(inputID); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetIDs returns the input IDs of the transition, in stored order. A
// transition with no stored inputs yields an empty slice.
func (s *InputStore) GetIDs(transitionID crypto.Field) ([]crypto.Field, error) {
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

// Get returns the inputs of the transition, in stored order. A
// transition with no stored inputs yields an empty slice.
func (s *InputStore) Get(transitionID crypto.Field) ([]transition.Input, error) {
	ids, ok, err := s.ids.Get(transitionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	inputs := make([]transition.Input, len(ids))
	for i, inputID := range ids {
		input, err := s.getInput(transitionID, inputID)
		if err != nil {
			return nil, err
		}
		inputs[i] = input
	}
	return inputs, nil
}

// getInput reconstructs one input from whichever per-kind map holds
// its ID. Exactly one map may hold it; anything else is inconsistent
// storage.
func (s *InputStore) getInput(transitionID, inputID crypto.Field) (transition.Input, error) {
	constant, inConstant, err := s.constant.Get(inputID)
	if err != nil {
		return nil, err
	}
	public, inPublic, err := s.public.Get(inputID)
	if err != nil {
		return nil, err
	}
	private, inPrivate, err := s.private.Get(inputID)
	if err != nil {
		return nil, err
	}
	tag, inRecord, err := s.record.Get(inputID)
	if err != nil {
		return nil, err
	}
	inExternal, err := s.external.Contains(inputID)
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
		return nil, fmt.Errorf("%w: input %s of transition %s", ErrMissingInput, inputID.String(), transitionID.String())
	}
	if count > 1 {
		return nil, fmt.Errorf("%w: input %s of transition %s", ErrMultipleInputs, inputID.String(), transitionID.String())
	}

	switch {
	case inConstant:
		return transition.ConstantInput{Hash: inputID, Value: constant}, nil
	case inPublic:
		return transition.PublicInput{Hash: inputID, Value: public}, nil
	case inPrivate:
		return transition.PrivateInput{Hash: inputID, Ciphertext: private}, nil
	case inRecord:
		return transition.RecordInput{SerialNumber: inputID, Tag: tag}, nil
	default:
		return transition.ExternalRecordInput{Hash: inputID}, nil
	}
}

// FindTransitionID returns the transition that consumed the input ID.
func (s *InputStore) FindTransitionID(inputID crypto.Field) (crypto.Field, bool, error) {
	return s.reverse.Get(inputID)
}

// ContainsInputID reports whether any transition consumed the input
// ID.
func (s *InputStore) ContainsInputID(inputID crypto.Field) (bool, error) {
	return s.reverse.Contains(inputID)
}

// ContainsSerialNumber reports whether a record was spent under the
// serial number.
func (s *InputStore) ContainsSerialNumber(serialNumber crypto.Field) (bool, error) {
	return s.record.Contains(serialNumber)
}

// ContainsTag reports whether a record was spent under the tag.
func (s *InputStore) ContainsTag(tag crypto.Field) (bool, error) {
	return s.recordTag.Contains(tag)
}

// InputIDs returns the IDs of all stored inputs.
func (s *InputStore) InputIDs() []crypto.Field { return s.reverse.Keys() }

// ConstantInputIDs returns the IDs of all constant inputs.
func (s *InputStore) ConstantInputIDs() []crypto.Field { return s.constant.Keys() }

// PublicInputIDs returns the IDs of all public inputs.
func (s *InputStore) PublicInputIDs() []crypto.Field { return s.public.Keys() }

// PrivateInputIDs returns the IDs of all private inputs.
func (s *InputStore) PrivateInputIDs() []crypto.Field { return s.private.Keys() }

// SerialNumbers returns the serial numbers of all spent records.
func (s *InputStore) SerialNumbers() []crypto.Field { return s.record.Keys() }

// Tags returns the tags of all spent records.
func (s *InputStore) Tags() []crypto.Field { return s.recordTag.Keys() }

// ExternalInputIDs returns the IDs of all external record inputs.
func (s *InputStore) ExternalInputIDs() []crypto.Field { return s.external.Keys() }

// ConstantInputs returns every transmitted constant input value.
func (s *InputStore) ConstantInputs() []program.Plaintext {
	var out []program.Plaintext
	for _, v := range s.constant.Values() {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// PublicInputs returns every transmitted public input value.
func (s *InputStore) PublicInputs() []program.Plaintext {
	var out []program.Plaintext
	for _, v := range s.public.Values() {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// PrivateInputs returns every transmitted private input ciphertext.
func (s *InputStore) PrivateInputs() [][]crypto.Field {
	var out [][]crypto.Field
	for _, v := range s.private.Values() {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}
