package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextIDIncreases(t *testing.T) {
	Init(1)
	prev := NextID()
	for i := 0; i < 10000; i++ {
		id := NextID()
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestGenerateUniqueAcrossGoroutines(t *testing.T) {
	const workers, perWorker = 8, 500

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				no := GenerateTransactionNo()
				mu.Lock()
				seen[no] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestGeneratePrefixes(t *testing.T) {
	assert.True(t, strings.HasPrefix(GenerateTransactionNo(), PrefixTransaction))
	assert.True(t, strings.HasPrefix(GenerateInvestmentNo(), PrefixInvestment))
	assert.True(t, strings.HasPrefix(GenerateProjectNo(), PrefixProject))
	assert.True(t, strings.HasPrefix(GenerateNotificationID(), PrefixNotification))
}
