package timeline

import (
	"fmt"
	"math"
)

// FormatTimecode 把秒数格式化成 m:ss 时间码（向下取整到秒）
func FormatTimecode(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
