package metrics

// Pre-defined metrics for the avm subsystems. All metrics live in
// DefaultRegistry so they are globally accessible without passing a
// registry around.

var (
	// ---- Puzzle metrics ----

	// PuzzleEpoch tracks the epoch number of the current epoch challenge.
	PuzzleEpoch = DefaultRegistry.Gauge("puzzle.epoch")
	// PuzzleAttempts counts prover nonce attempts.
	PuzzleAttempts = DefaultRegistry.Counter("puzzle.attempts")
	// PuzzleSolutions counts solutions that met their target.
	PuzzleSolutions = DefaultRegistry.Counter("puzzle.solutions")
	// PuzzleProveTime records prove duration in milliseconds.
	PuzzleProveTime = DefaultRegistry.Histogram("puzzle.prove_ms")
	// PuzzleVerifyTime records coinbase verification duration in milliseconds.
	PuzzleVerifyTime = DefaultRegistry.Histogram("puzzle.verify_ms")

	// ---- Store metrics ----

	// StoreTransitions tracks the number of stored transitions.
	StoreTransitions = DefaultRegistry.Gauge("store.transitions")
	// StoreInserts counts transitions written to the store.
	StoreInserts = DefaultRegistry.Counter("store.inserts")
	// StoreRemovals counts transitions deleted from the store.
	StoreRemovals = DefaultRegistry.Counter("store.removals")
	// StoreBatchAborts counts atomic batches rolled back on error.
	StoreBatchAborts = DefaultRegistry.Counter("store.batch_aborts")

	// ---- Request metrics ----

	// RequestsSigned counts function requests signed.
	RequestsSigned = DefaultRegistry.Counter("request.signed")
	// RequestsVerified counts requests that passed verification.
	RequestsVerified = DefaultRegistry.Counter("request.verified")
	// RequestsRejected counts requests that failed verification.
	RequestsRejected = DefaultRegistry.Counter("request.rejected")
	// RequestSignTime records request signing duration in milliseconds.
	RequestSignTime = DefaultRegistry.Histogram("request.sign_ms")

	// ---- Block metrics ----

	// BlockHeight tracks the latest validated block height.
	BlockHeight = DefaultRegistry.Gauge("block.height")
	// BlocksValidated counts metadata validations that succeeded.
	BlocksValidated = DefaultRegistry.Counter("block.validated")
	// BlocksRejected counts metadata validations that failed.
	BlocksRejected = DefaultRegistry.Counter("block.rejected")
)
