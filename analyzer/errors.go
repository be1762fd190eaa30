package analyzer

import "errors"

// Sentinel error kinds (§7), wrapped with fmt.Errorf("...: %w", ErrX) at
// the point of failure so callers can errors.Is against the kind while the
// message still carries the instruction/offset diagnostic.
var (
	ErrTypeInfer  = errors.New("type inference impossible")
	ErrSpecialize = errors.New("opcode specialization mismatch")
	ErrPhiConflict = errors.New("conflicting phi-assign pair")
)
