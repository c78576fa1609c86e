package auth

import (
	"hash/crc32"
	"sort"
	"strconv"
	"sync"
)

const defaultShard = "session-shard-0"

// ShardRing 把缓存 key 按一致性哈希映射到固定的分片标签，
// 分片增减时只有环上相邻的一小段 key 需要迁移。
type ShardRing struct {
	mu       sync.RWMutex
	replicas int
	points   []uint32          // 虚拟节点哈希，升序
	owner    map[uint32]string // 虚拟节点 -> 分片标签
	members  map[string]struct{}
}

// NewShardRing 构建分片环。labels 为空时退化为单分片，replicas 非正时取 50。
func NewShardRing(labels []string, replicas int) *ShardRing {
	if replicas <= 0 {
		replicas = 50
	}
	r := &ShardRing{
		replicas: replicas,
		owner:    make(map[uint32]string),
		members:  make(map[string]struct{}),
	}
	if len(labels) == 0 {
		labels = []string{defaultShard}
	}
	r.Join(labels...)
	return r
}

// Join 把分片加入环，重复加入不产生新的虚拟节点
func (r *ShardRing) Join(labels ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, label := range labels {
		if _, ok := r.members[label]; ok {
			continue
		}
		r.members[label] = struct{}{}
		for i := 0; i < r.replicas; i++ {
			p := crc32.ChecksumIEEE([]byte(label + "/" + strconv.Itoa(i)))
			r.points = append(r.points, p)
			r.owner[p] = label
		}
	}
	sort.Slice(r.points, func(i, j int) bool { return r.points[i] < r.points[j] })
}

// Locate 返回 key 顺时针落到的分片标签
func (r *ShardRing) Locate(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.points) == 0 {
		return defaultShard
	}
	h := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(r.points), func(i int) bool { return r.points[i] >= h })
	if idx == len(r.points) {
		idx = 0
	}
	return r.owner[r.points[idx]]
}
