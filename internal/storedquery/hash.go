// Package storedquery 判断存储查询是否到期、重新执行检索并比较结果变化。
package storedquery

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash 对结果 id 集合求摘要，与顺序无关。空集合得到空串的摘要。
func Hash(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\n")))
	return hex.EncodeToString(sum[:])
}
