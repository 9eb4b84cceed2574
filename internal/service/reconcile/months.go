package reconcile

import (
	"fmt"
	"time"
)

// ProjectMonths 从 now 的下一个月开始，返回连续 n 个月的 1 号（YYYY-MM-DD）
// 12 月的下一个月是次年 1 月
func ProjectMonths(now time.Time, n int) []string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, first.AddDate(0, i, 0).Format("2006-01-02"))
	}
	return out
}

func cellRef(section string, row, col int) string {
	return fmt.Sprintf("%s R%dC%d", section, row, col)
}
