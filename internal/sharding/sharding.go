package sharding

import "hash/fnv"

type ShardRouter struct {
	ShardCount int // Number of shards
}

func NewShardRouter(shardCount int) *ShardRouter {
	if shardCount < 1 {
		shardCount = 1
	}
	return &ShardRouter{ShardCount: shardCount}
}

// GetShard maps a username to a shard index. All receipts of one user land
// on the same shard so history reads touch a single database.
func (r *ShardRouter) GetShard(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(r.ShardCount))
}
