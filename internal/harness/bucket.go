package harness

import (
	"h3-perf/internal/model"
	"time"
)

// Slot：分辨率 0..15，或 TotalSlot 表示策略总计
type Slot int

const TotalSlot Slot = -1

// Key：桶键 (策略, 槽位)
type Key struct {
	Strategy model.Strategy
	Slot     Slot
}

// Bucket：一次运行的累计耗时，由运行它的 Harness 独占写入
type Bucket struct {
	times map[Key]time.Duration
}

// NewBucket：两种策略的 16 个分辨率槽与总计槽全部置零
func NewBucket() *Bucket {
	b := &Bucket{times: make(map[Key]time.Duration, len(model.Strategies)*(model.Resolutions+1))}
	for _, s := range model.Strategies {
		b.times[Key{s, TotalSlot}] = 0
		for res := 0; res < model.Resolutions; res++ {
			b.times[Key{s, Slot(res)}] = 0
		}
	}
	return b
}

// add：唯一的写入路径，同时累加分辨率槽与总计槽
func (b *Bucket) add(s model.Strategy, resolution int, d time.Duration) {
	b.times[Key{s, Slot(resolution)}] += d
	b.times[Key{s, TotalSlot}] += d
}

// Get：读取槽位累计值
func (b *Bucket) Get(s model.Strategy, slot Slot) (time.Duration, bool) {
	d, ok := b.times[Key{s, slot}]
	return d, ok
}

// Len：槽位数量
func (b *Bucket) Len() int { return len(b.times) }
