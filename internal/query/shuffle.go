package query

import (
	"math/rand/v2"

	"h3-perf/internal/model"
)

// ShufflePasses：连续打乱的轮数，每轮在上一轮结果上重新排列
const ShufflePasses = 10

// Shuffler：可复现的语料打乱器，同一 seed 得到同一顺序
type Shuffler struct {
	rng *rand.Rand
}

func NewShuffler(seed uint64) *Shuffler {
	return &Shuffler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Shuffle：原地打乱并返回同一切片
// 约束：仅交换元素位置，输出为输入的排列
func (s *Shuffler) Shuffle(corpus []model.QueryDescriptor) []model.QueryDescriptor {
	for pass := 0; pass < ShufflePasses; pass++ {
		s.rng.Shuffle(len(corpus), func(i, j int) {
			corpus[i], corpus[j] = corpus[j], corpus[i]
		})
	}
	return corpus
}
