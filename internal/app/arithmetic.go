package app

import (
	"fmt"
	"math/bits"
)

func addU64Checked(a, b uint64, what string) (uint64, error) {
	if a > ^uint64(0)-b {
		return 0, fmt.Errorf("%s overflows: %d + %d", what, a, b)
	}
	return a + b, nil
}

// mulDivU64 computes floor(a*b/den) without intermediate overflow.
// den must be non-zero and larger than the high word of a*b; fee math
// (den=10000, b<=10000) always satisfies this.
func mulDivU64(a, b, den uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	quo, _ := bits.Div64(hi, lo, den)
	return quo
}
