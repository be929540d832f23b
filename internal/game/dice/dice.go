// Package dice provides the randomness abstraction shared by enemy strategies
// and opponent selection.
package dice

// Source is the randomness provider for the game.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
