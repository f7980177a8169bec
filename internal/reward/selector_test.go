package reward

import (
	"fmt"
	"math/rand"
	"testing"

	"enfoque/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pool(n int) []model.Activity {
	activities := make([]model.Activity, n)
	for i := range activities {
		activities[i] = model.Activity{
			ID:   fmt.Sprintf("a%d", i),
			Name: fmt.Sprintf("Activity %d", i),
		}
	}
	return activities
}

func TestEmptyPool(t *testing.T) {
	s := NewSelector(rand.New(rand.NewSource(1)))
	pick, ok := s.Next(nil)
	assert.Nil(t, pick)
	assert.False(t, ok)
}

func TestSinglePoolAlwaysReturnsTheActivity(t *testing.T) {
	s := NewSelector(rand.New(rand.NewSource(1)))
	p := pool(1)
	for i := 0; i < 5; i++ {
		pick, ok := s.Next(p)
		require.True(t, ok)
		assert.Equal(t, "a0", pick.ID)
	}
}

func TestNeverRepeatsWithTwoOrMore(t *testing.T) {
	for _, size := range []int{2, 3, 10} {
		s := NewSelector(rand.New(rand.NewSource(42)))
		p := pool(size)
		last := ""
		for i := 0; i < 200; i++ {
			pick, ok := s.Next(p)
			require.True(t, ok)
			assert.NotEqual(t, last, pick.ID, "pool size %d, roll %d", size, i)
			last = pick.ID
		}
	}
}

func TestEventuallyCoversThePool(t *testing.T) {
	s := NewSelector(rand.New(rand.NewSource(7)))
	p := pool(5)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		pick, _ := s.Next(p)
		seen[pick.ID] = true
	}
	assert.Len(t, seen, 5)
}
