// bhp.go implements the bit-windowed Pedersen hash (BHP) used for
// function identifiers, record commitments, and ciphertext checksums.
// Input bits are consumed in 3-bit chunks; each chunk selects a signed
// small multiple of a chunk-specific generator, and the multiples are
// summed in the group. The output is the x-coordinate of the sum.
//
// Generators are derived lazily per (variant, chunk index) through
// hash-to-group, so no two chunks or variants share a basis and the
// discrete logs between generators are unknown.
package crypto

import (
	"errors"
	"math/big"
	"sync"
)

// BHP variant identifiers double as capacity parameters: variant v
// accepts up to 3·v input bits.
const (
	bhpVariant256  = 256
	bhpVariant512  = 512
	bhpVariant768  = 768
	bhpVariant1024 = 1024

	bhpChunkBits = 3
)

var (
	// ErrBHPEmpty is returned when hashing an empty bit string.
	ErrBHPEmpty = errors.New("crypto: BHP input is empty")

	// ErrBHPCapacity is returned when the input exceeds the variant's
	// bit capacity.
	ErrBHPCapacity = errors.New("crypto: BHP input exceeds capacity")
)

// bhpGenerators lazily grows the per-variant generator tables and the
// per-variant blinding bases.
var bhpGenerators struct {
	mu       sync.Mutex
	tables   map[uint16][]Group
	blinding map[uint16]Group
}

// bhpGeneratorRange returns generators [0, n) for the variant, growing
// the table on demand.
func bhpGeneratorRange(variant uint16, n int) []Group {
	bhpGenerators.mu.Lock()
	defer bhpGenerators.mu.Unlock()
	if bhpGenerators.tables == nil {
		bhpGenerators.tables = make(map[uint16][]Group)
	}
	table := bhpGenerators.tables[variant]
	for len(table) < n {
		g, err := HashToGroup(bhpDomain, FieldFromUint64(uint64(variant)), FieldFromUint64(uint64(len(table))))
		if err != nil {
			panic("crypto: BHP generator derivation failed: " + err.Error())
		}
		table = append(table, g)
	}
	bhpGenerators.tables[variant] = table
	return table[:n]
}

// hashBHPPoint hashes bits under the given variant, returning the
// accumulated group element.
func hashBHPPoint(variant uint16, bits []bool) (Group, error) {
	if len(bits) == 0 {
		return Group{}, ErrBHPEmpty
	}
	if len(bits) > int(variant)*bhpChunkBits {
		return Group{}, ErrBHPCapacity
	}

	numChunks := (len(bits) + bhpChunkBits - 1) / bhpChunkBits
	gens := bhpGeneratorRange(variant, numChunks)

	bit := func(i int) bool {
		if i < len(bits) {
			return bits[i]
		}
		return false
	}

	acc := Identity()
	var multiple big.Int
	for c := 0; c < numChunks; c++ {
		// Chunk (b0, b1, b2) selects ±(1 + b0 + 2·b1)·G_c, with b2 as
		// the sign bit.
		m := int64(1)
		if bit(c * bhpChunkBits) {
			m += 1
		}
		if bit(c*bhpChunkBits + 1) {
			m += 2
		}
		multiple.SetInt64(m)
		p := ScalarMulPoint(&gens[c], &multiple)
		if bit(c*bhpChunkBits + 2) {
			p.Neg(&p)
		}
		acc.Add(&acc, &p)
	}
	return acc, nil
}

// hashBHP projects the BHP point to its x-coordinate.
func hashBHP(variant uint16, bits []bool) (Field, error) {
	p, err := hashBHPPoint(variant, bits)
	if err != nil {
		return Field{}, err
	}
	var out Field
	out.Set(&p.X)
	return out, nil
}

// blindingGenerator returns the dedicated blinding basis for the
// commitment variant, independent of all chunk generators.
func blindingGenerator(variant uint16) Group {
	bhpGenerators.mu.Lock()
	defer bhpGenerators.mu.Unlock()
	if bhpGenerators.blinding == nil {
		bhpGenerators.blinding = make(map[uint16]Group)
	}
	g, ok := bhpGenerators.blinding[variant]
	if !ok {
		var err error
		g, err = HashToGroup(bhpDomain, FieldFromUint64(uint64(variant)), domainBlindingIndex)
		if err != nil {
			panic("crypto: BHP blinding generator derivation failed: " + err.Error())
		}
		bhpGenerators.blinding[variant] = g
	}
	return g
}

// domainBlindingIndex sits outside the uint64 chunk-index range, so the
// blinding basis can never coincide with a chunk generator.
var domainBlindingIndex = func() Field {
	var f Field
	f.SetBytes([]byte("blinding"))
	return f
}()

// CommitBHP512 commits to up to 1536 bits under a blinding scalar:
// the BHP hash point plus randomizer·B for the dedicated blinding
// basis B, projected to its x-coordinate.
func CommitBHP512(bits []bool, randomizer *big.Int) (Field, error) {
	p, err := hashBHPPoint(bhpVariant512, bits)
	if err != nil {
		return Field{}, err
	}
	b := blindingGenerator(bhpVariant512)
	blind := ScalarMulPoint(&b, randomizer)
	p.Add(&p, &blind)

	var out Field
	out.Set(&p.X)
	return out, nil
}

// HashBHP256 hashes up to 768 bits.
func HashBHP256(bits []bool) (Field, error) { return hashBHP(bhpVariant256, bits) }

// HashBHP512 hashes up to 1536 bits.
func HashBHP512(bits []bool) (Field, error) { return hashBHP(bhpVariant512, bits) }

// HashBHP768 hashes up to 2304 bits.
func HashBHP768(bits []bool) (Field, error) { return hashBHP(bhpVariant768, bits) }

// HashBHP1024 hashes up to 3072 bits.
func HashBHP1024(bits []bool) (Field, error) { return hashBHP(bhpVariant1024, bits) }
