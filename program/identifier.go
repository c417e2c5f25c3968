// identifier.go implements program, function, and record-type names:
// short lowercase ASCII identifiers with a field-element embedding, and
// the two-part program ID "name.network".
package program

import (
	"strings"

	"github.com/avmlabs/go-avm/crypto"
)

// MaxIdentifierBytes bounds identifier length so the byte packing of a
// name always fits a single field element.
const MaxIdentifierBytes = 31

// Identifier is a validated name: 1 to 31 bytes of lowercase ASCII
// letters, digits, and underscores, starting with a letter.
type Identifier string

// NewIdentifier validates s as an identifier.
func NewIdentifier(s string) (Identifier, error) {
	if len(s) == 0 || len(s) > MaxIdentifierBytes {
		return "", ErrIdentifier
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9' && i > 0:
		case c == '_' && i > 0:
		default:
			return "", ErrIdentifier
		}
	}
	return Identifier(s), nil
}

// String returns the identifier text.
func (id Identifier) String() string { return string(id) }

// ToBitsLE returns the bits of the identifier bytes, 8 bits per byte,
// least significant first.
func (id Identifier) ToBitsLE() []bool {
	return crypto.BytesToBitsLE([]byte(id))
}

// ToField packs the identifier bytes little-endian into a field
// element. The length bound guarantees the packing never reduces.
func (id Identifier) ToField() crypto.Field {
	b := []byte(id)
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	var f crypto.Field
	f.SetBytes(be)
	return f
}

// ProgramID names a deployed program: a program name qualified by a
// network suffix, written "name.network".
type ProgramID struct {
	Name    Identifier
	Network Identifier
}

// NewProgramID builds a program ID from validated parts.
func NewProgramID(name, network Identifier) ProgramID {
	return ProgramID{Name: name, Network: network}
}

// ParseProgramID parses "name.network".
func ParseProgramID(s string) (ProgramID, error) {
	name, network, found := strings.Cut(s, ".")
	if !found {
		return ProgramID{}, ErrProgramID
	}
	n, err := NewIdentifier(name)
	if err != nil {
		return ProgramID{}, ErrProgramID
	}
	w, err := NewIdentifier(network)
	if err != nil {
		return ProgramID{}, ErrProgramID
	}
	return ProgramID{Name: n, Network: w}, nil
}

// String returns "name.network".
func (pid ProgramID) String() string {
	return pid.Name.String() + "." + pid.Network.String()
}

// ToBitsLE concatenates the name and network bits.
func (pid ProgramID) ToBitsLE() []bool {
	bits := pid.Name.ToBitsLE()
	return append(bits, pid.Network.ToBitsLE()...)
}

// Equal reports whether two program IDs name the same program.
func (pid ProgramID) Equal(other ProgramID) bool {
	return pid.Name == other.Name && pid.Network == other.Network
}

// FunctionID derives the field element identifying one function of one
// program on one network. Every per-input hash of the request protocol
// is bound to this value.
func FunctionID(networkID uint16, pid ProgramID, function Identifier) (crypto.Field, error) {
	bits := crypto.U16ToBitsLE(networkID)
	bits = append(bits, pid.ToBitsLE()...)
	bits = append(bits, function.ToBitsLE()...)
	return crypto.HashBHP1024(bits)
}
