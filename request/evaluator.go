// evaluator.go defines the capability interface through which the
// protocol performs its derivations. Signing, verification, and
// transition assembly are written once against Evaluator; swapping the
// implementation switches between the plain execution path and an
// instrumented path that must produce identical results.
package request

import (
	"math/big"
	"sort"
	"sync"

	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
)

// Evaluator is the set of primitive operations the request and
// transition protocols derive identifiers with.
type Evaluator interface {
	HashPSD2(inputs ...crypto.Field) crypto.Field
	HashPSD4(inputs ...crypto.Field) crypto.Field
	HashPSD8(inputs ...crypto.Field) crypto.Field
	HashToScalarPSD2(inputs ...crypto.Field) *big.Int
	HashToGroup(domain string, inputs ...crypto.Field) (crypto.Group, error)
	HashBHP1024(bits []bool) (crypto.Field, error)
	ScalarMulPoint(p *crypto.Group, s *big.Int) crypto.Group
	AddPoints(a, b *crypto.Group) crypto.Group
	EncryptSymmetric(plaintext []crypto.Field, key crypto.Field) []crypto.Field
	RecordCommitment(r program.Record, pid program.ProgramID, name program.Identifier) (crypto.Field, error)
	SerialNumber(gamma crypto.Group, commitment crypto.Field) (crypto.Field, error)
	RecordTag(skTag, commitment crypto.Field) crypto.Field
}

// PlainEvaluator computes every operation directly.
type PlainEvaluator struct{}

// Plain returns the plain execution path.
func Plain() PlainEvaluator { return PlainEvaluator{} }

func (PlainEvaluator) HashPSD2(inputs ...crypto.Field) crypto.Field { return crypto.HashPSD2(inputs...) }
func (PlainEvaluator) HashPSD4(inputs ...crypto.Field) crypto.Field { return crypto.HashPSD4(inputs...) }
func (PlainEvaluator) HashPSD8(inputs ...crypto.Field) crypto.Field { return crypto.HashPSD8(inputs...) }

func (PlainEvaluator) HashToScalarPSD2(inputs ...crypto.Field) *big.Int {
	return crypto.HashToScalarPSD2(inputs...)
}

func (PlainEvaluator) HashToGroup(domain string, inputs ...crypto.Field) (crypto.Group, error) {
	return crypto.HashToGroup(domain, inputs...)
}

func (PlainEvaluator) HashBHP1024(bits []bool) (crypto.Field, error) {
	return crypto.HashBHP1024(bits)
}

func (PlainEvaluator) ScalarMulPoint(p *crypto.Group, s *big.Int) crypto.Group {
	return crypto.ScalarMulPoint(p, s)
}

func (PlainEvaluator) AddPoints(a, b *crypto.Group) crypto.Group {
	return crypto.AddPoints(a, b)
}

func (PlainEvaluator) EncryptSymmetric(plaintext []crypto.Field, key crypto.Field) []crypto.Field {
	return crypto.EncryptSymmetric(plaintext, key)
}

func (PlainEvaluator) RecordCommitment(r program.Record, pid program.ProgramID, name program.Identifier) (crypto.Field, error) {
	return r.Commitment(pid, name)
}

func (PlainEvaluator) SerialNumber(gamma crypto.Group, commitment crypto.Field) (crypto.Field, error) {
	return program.SerialNumberFromGamma(gamma, commitment)
}

func (PlainEvaluator) RecordTag(skTag, commitment crypto.Field) crypto.Field {
	return program.Tag(skTag, commitment)
}

// CountingEvaluator performs the same arithmetic as the plain path
// while tallying each operation by name. It stands in for the
// constrained execution mode, whose cost is measured in operations
// rather than wall time; both paths must derive identical values.
type CountingEvaluator struct {
	inner PlainEvaluator

	mu     sync.Mutex
	counts map[string]int
}

// NewCountingEvaluator returns an instrumented evaluator with all
// counters at zero.
func NewCountingEvaluator() *CountingEvaluator {
	return &CountingEvaluator{counts: make(map[string]int)}
}

func (c *CountingEvaluator) tally(op string) {
	c.mu.Lock()
	c.counts[op]++
	c.mu.Unlock()
}

// Counts returns a copy of the operation tallies.
func (c *CountingEvaluator) Counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Operations returns the tallied operation names in sorted order.
func (c *CountingEvaluator) Operations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.counts))
	for k := range c.counts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *CountingEvaluator) HashPSD2(inputs ...crypto.Field) crypto.Field {
	c.tally("hash_psd2")
	return c.inner.HashPSD2(inputs...)
}

func (c *CountingEvaluator) HashPSD4(inputs ...crypto.Field) crypto.Field {
	c.tally("hash_psd4")
	return c.inner.HashPSD4(inputs...)
}

func (c *CountingEvaluator) HashPSD8(inputs ...crypto.Field) crypto.Field {
	c.tally("hash_psd8")
	return c.inner.HashPSD8(inputs...)
}

func (c *CountingEvaluator) HashToScalarPSD2(inputs ...crypto.Field) *big.Int {
	c.tally("hash_to_scalar_psd2")
	return c.inner.HashToScalarPSD2(inputs...)
}

func (c *CountingEvaluator) HashToGroup(domain string, inputs ...crypto.Field) (crypto.Group, error) {
	c.tally("hash_to_group")
	return c.inner.HashToGroup(domain, inputs...)
}

func (c *CountingEvaluator) HashBHP1024(bits []bool) (crypto.Field, error) {
	c.tally("hash_bhp1024")
	return c.inner.HashBHP1024(bits)
}

func (c *CountingEvaluator) ScalarMulPoint(p *crypto.Group, s *big.Int) crypto.Group {
	c.tally("scalar_mul")
	return c.inner.ScalarMulPoint(p, s)
}

func (c *CountingEvaluator) AddPoints(a, b *crypto.Group) crypto.Group {
	c.tally("point_add")
	return c.inner.AddPoints(a, b)
}

func (c *CountingEvaluator) EncryptSymmetric(plaintext []crypto.Field, key crypto.Field) []crypto.Field {
	c.tally("encrypt_symmetric")
	return c.inner.EncryptSymmetric(plaintext, key)
}

func (c *CountingEvaluator) RecordCommitment(r program.Record, pid program.ProgramID, name program.Identifier) (crypto.Field, error) {
	c.tally("record_commitment")
	return c.inner.RecordCommitment(r, pid, name)
}

func (c *CountingEvaluator) SerialNumber(gamma crypto.Group, commitment crypto.Field) (crypto.Field, error) {
	c.tally("serial_number")
	return c.inner.SerialNumber(gamma, commitment)
}

func (c *CountingEvaluator) RecordTag(skTag, commitment crypto.Field) crypto.Field {
	c.tally("record_tag")
	return c.inner.RecordTag(skTag, commitment)
}
