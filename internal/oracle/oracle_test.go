package oracle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomValue_Deterministic(t *testing.T) {
	a := RandomValue([]byte("devnet"), 1)
	b := RandomValue([]byte("devnet"), 1)
	require.Equal(t, 0, a.Cmp(b))
}

func TestRandomValue_VariesBySeedAndRequest(t *testing.T) {
	base := RandomValue([]byte("devnet"), 1)
	require.NotEqual(t, 0, base.Cmp(RandomValue([]byte("devnet"), 2)))
	require.NotEqual(t, 0, base.Cmp(RandomValue([]byte("other"), 1)))
}

func TestRandomValue_Is256Bit(t *testing.T) {
	v := RandomValue([]byte("devnet"), 42)
	require.LessOrEqual(t, v.BitLen(), 256)
	require.GreaterOrEqual(t, v.Sign(), 0)
}
