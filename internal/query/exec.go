package query

import "time"

// Execution：一次语句执行的结果行数与存储侧耗时
type Execution struct {
	Rows    int64
	Elapsed time.Duration
}
