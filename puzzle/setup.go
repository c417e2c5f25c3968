// setup.go implements SRS handling: universal setup, trimming to a
// fixed puzzle degree, and the process-wide development setup.
package puzzle

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/fft"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/kzg"
)

// SRS is the universal structured reference string, sized so that the
// product of two polynomials of degree maxDegree can be committed.
type SRS struct {
	inner     *kzg.SRS
	maxDegree uint32
}

// MaxDegree returns the largest puzzle degree this SRS supports.
func (s *SRS) MaxDegree() uint32 { return s.maxDegree }

// productDomainSize returns the evaluation-domain cardinality for a
// puzzle of the given degree: the next power of two at or above 2n+1.
func productDomainSize(degree uint32) uint64 {
	n := uint64(2)*uint64(degree) + 1
	size := uint64(1)
	for size < n {
		size <<= 1
	}
	return size
}

// Setup samples a universal SRS supporting puzzles up to maxDegree.
// rng defaults to crypto/rand. The sampled secret is discarded; for a
// production deployment the SRS comes from a multiparty ceremony and
// is loaded externally.
func Setup(maxDegree uint32, rng io.Reader) (*SRS, error) {
	if maxDegree == 0 {
		return nil, fmt.Errorf("%w: degree must be positive", ErrDegree)
	}
	if rng == nil {
		rng = rand.Reader
	}

	alpha, err := rand.Int(rng, fr.Modulus())
	if err != nil {
		return nil, fmt.Errorf("puzzle: sample setup secret: %w", err)
	}
	inner, err := kzg.NewSRS(productDomainSize(maxDegree), alpha)
	if err != nil {
		return nil, fmt.Errorf("puzzle: setup: %w", err)
	}
	return &SRS{inner: inner, maxDegree: maxDegree}, nil
}

// Prover holds the trimmed proving state of one puzzle degree: the
// product evaluation domain and the G1 powers needed to commit and
// open, plus the verifying key.
type Prover struct {
	degree uint32
	domain *fft.Domain
	pk     kzg.ProvingKey
	vk     kzg.VerifyingKey
}

// Verifier holds only the verifying key.
type Verifier struct {
	vk kzg.VerifyingKey
}

// Trim fixes the SRS to one puzzle degree, returning the prover and
// verifier states.
func Trim(srs *SRS, degree uint32) (*Prover, *Verifier, error) {
	if degree == 0 {
		return nil, nil, fmt.Errorf("%w: degree must be positive", ErrDegree)
	}
	if degree > srs.maxDegree {
		return nil, nil, fmt.Errorf("%w: degree %d exceeds SRS maximum %d", ErrDegree, degree, srs.maxDegree)
	}

	size := productDomainSize(degree)
	prover := &Prover{
		degree: degree,
		domain: fft.NewDomain(size),
		pk:     kzg.ProvingKey{G1: srs.inner.Pk.G1[:size]},
		vk:     srs.inner.Vk,
	}
	return prover, &Verifier{vk: srs.inner.Vk}, nil
}

// Degree returns the trimmed puzzle degree.
func (p *Prover) Degree() uint32 { return p.degree }

// DomainSize returns the product evaluation domain cardinality.
func (p *Prover) DomainSize() uint64 { return p.domain.Cardinality }

// Verifier returns the verifier sharing this prover's verifying key.
func (p *Prover) Verifier() *Verifier { return &Verifier{vk: p.vk} }

// devSetupSecret seeds the process-wide development SRS that Load
// hands out, so independent processes agree on it. Production keys
// are provisioned externally, never through Load.
const devSetupSecret = 42

var (
	loadMu  sync.Mutex
	loadSRS *SRS
)

// Load trims the process-wide development SRS to the given degree,
// building it on first use and growing it when a larger degree is
// requested.
func Load(degree uint32) (*Prover, *Verifier, error) {
	if degree == 0 {
		return nil, nil, fmt.Errorf("%w: degree must be positive", ErrDegree)
	}

	loadMu.Lock()
	defer loadMu.Unlock()
	if loadSRS == nil || loadSRS.maxDegree < degree {
		inner, err := kzg.NewSRS(productDomainSize(degree), big.NewInt(devSetupSecret))
		if err != nil {
			return nil, nil, fmt.Errorf("puzzle: setup: %w", err)
		}
		loadSRS = &SRS{inner: inner, maxDegree: degree}
	}
	return Trim(loadSRS, degree)
}

// mulOverDomain multiplies two coefficient-form polynomials through
// the prover's evaluation domain, returning the product in coefficient
// form. Both inputs must have at most domain-cardinality coefficients.
func (p *Prover) mulOverDomain(a, b []fr.Element) []fr.Element {
	n := int(p.domain.Cardinality)
	ea := make([]fr.Element, n)
	eb := make([]fr.Element, n)
	copy(ea, a)
	copy(eb, b)

	p.domain.FFT(ea, fft.DIF)
	p.domain.FFT(eb, fft.DIF)
	for i := range ea {
		ea[i].Mul(&ea[i], &eb[i])
	}
	p.domain.FFTInverse(ea, fft.DIT)
	return ea
}
