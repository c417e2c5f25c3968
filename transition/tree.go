// tree.go implements the function tree, the two-level hash tree whose
// root is the transition ID. The input IDs hash into one node and the
// output IDs into another, each padded to the arity bound; the root
// binds both nodes together with the true counts.
package transition

import (
	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/request"
)

// Domain separators for the tree levels.
const (
	treeLeafDomain = "AVMFunctionLeaf0"
	treeNodeDomain = "AVMFunctionNode0"
	treeRootDomain = "AVMFunctionRoot0"
)

// treeNode hashes up to MaxInputs leaves into one internal node. Each
// leaf is hashed under the leaf domain first; absent leaves stay zero.
func treeNode(ev request.Evaluator, leaves []crypto.Field) crypto.Field {
	padded := make([]crypto.Field, MaxInputs)
	for i := range leaves {
		padded[i] = ev.HashPSD2(crypto.DomainField(treeLeafDomain), leaves[i])
	}
	preimage := make([]crypto.Field, 0, MaxInputs+1)
	preimage = append(preimage, crypto.DomainField(treeNodeDomain))
	preimage = append(preimage, padded...)
	return ev.HashPSD8(preimage...)
}

// transitionID computes the function tree root over the input IDs and
// output IDs.
func transitionID(ev request.Evaluator, inputs []Input, outputs []Output) (crypto.Field, error) {
	if len(inputs) > MaxInputs {
		return crypto.Field{}, ErrTooManyInputs
	}
	if len(outputs) > MaxOutputs {
		return crypto.Field{}, ErrTooManyOutputs
	}

	inputLeaves := make([]crypto.Field, len(inputs))
	for i, in := range inputs {
		inputLeaves[i] = in.ID()
	}
	outputLeaves := make([]crypto.Field, len(outputs))
	for i, o := range outputs {
		outputLeaves[i] = o.ID()
	}

	root := ev.HashPSD8(
		crypto.DomainField(treeRootDomain),
		crypto.FieldFromUint64(uint64(len(inputs))),
		crypto.FieldFromUint64(uint64(len(outputs))),
		treeNode(ev, inputLeaves),
		treeNode(ev, outputLeaves),
	)
	return root, nil
}
