package sharding_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront-service/internal/sharding"
)

func TestGetShard_StableAndInRange(t *testing.T) {
	r := sharding.NewShardRouter(3)
	seen := map[int]bool{}
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("user-%d", i)
		shard := r.GetShard(key)
		assert.GreaterOrEqual(t, shard, 0)
		assert.Less(t, shard, 3)
		assert.Equal(t, shard, r.GetShard(key))
		seen[shard] = true
	}
	assert.Len(t, seen, 3)
}

func TestNewShardRouter_ClampsToOne(t *testing.T) {
	r := sharding.NewShardRouter(0)
	assert.Equal(t, 1, r.ShardCount)
	assert.Equal(t, 0, r.GetShard("asha"))
}
