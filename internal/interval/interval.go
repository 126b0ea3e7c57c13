// Package interval 存储查询与消息配置使用的周期间隔，计算下一次到期时间
package interval

import (
	"fmt"
	"time"
)

// Interval 周期设置，存储与序列化均使用名称
type Interval string

const (
	Daily       Interval = "Daily"
	Weekly      Interval = "Weekly"
	Monthly     Interval = "Monthly"
	Quarterly   Interval = "Quarterly"
	Never       Interval = "Never"
	Immediately Interval = "Immediately"
)

// All 全部合法取值，按声明顺序
var All = []Interval{Daily, Weekly, Monthly, Quarterly, Never, Immediately}

// 哨兵值，Truncate 原样返回
var (
	MinTime = time.Time{}
	MaxTime = time.Date(9999, time.December, 31, 23, 59, 59, 999999999, time.UTC)
)

// WeekStart 一周的第一天，固定为周一（ISO 8601），与区域设置无关
const WeekStart = time.Monday

func (i Interval) String() string { return string(i) }

func (i Interval) IsValid() bool {
	switch i {
	case Daily, Weekly, Monthly, Quarterly, Never, Immediately:
		return true
	}
	return false
}

func Parse(s string) (Interval, error) {
	i := Interval(s)
	if !i.IsValid() {
		return "", fmt.Errorf("unknown interval %q", s)
	}
	return i, nil
}

// Next 返回 base 之后的下一次时间。Immediately 返回 now；Never 与未知值返回 ok=false，
// 调用方不应再排期。
func Next(base time.Time, iv Interval, now time.Time) (next time.Time, ok bool) {
	switch iv {
	case Daily:
		next = base.AddDate(0, 0, 1)
	case Weekly:
		day := startOfDay(base)
		sinceStart := (int(day.Weekday()) - int(WeekStart) + 7) % 7
		next = day.AddDate(0, 0, 7-sinceStart)
	case Monthly:
		next = time.Date(base.Year(), base.Month()+1, 1, 0, 0, 0, 0, base.Location())
	case Quarterly:
		quarter := (int(base.Month()) - 1) / 3
		next = time.Date(base.Year(), time.Month(quarter*3+4), 1, 0, 0, 0, 0, base.Location())
	case Immediately:
		next = now
	default:
		return time.Time{}, false
	}
	return Truncate(next), true
}

// Truncate 截断到秒；MinTime 与 MaxTime 原样返回
func Truncate(t time.Time) time.Time {
	if t.Equal(MinTime) || t.Equal(MaxTime) {
		return t
	}
	return t.Truncate(time.Second)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
