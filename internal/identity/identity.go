// Package identity 把自然键（slug、姓名、用户名等）映射为稳定的数值代理 ID。
//
// 映射是纯函数：同一 (kind, naturalKey) 在任意进程、任意时间都得到同一 ID，
// 不依赖数据库自增，因此多次运行、多个抓取器写同一个库时 ID 不会漂移。
//
// 已知风险：adler32 不是抗碰撞哈希，两个不同的自然键可能产生同一 ID，
// 导致实体被错误合并。对于万级实体规模该概率可以接受，这里选择把风险
// 写明而不是引入自然键映射表（那会让所有已落库的 ID 作废）。
package identity

import (
	"hash/adler32"
	"strings"
)

// offset 把代理 ID 抬进保留区间，保证与库内任何自增主键在数值上可区分，
// 避免两类 ID 混进同一列时意外撞上
const offset = 10_000_000_000

// 实体种类常量，作为哈希输入的命名空间
const (
	KindMovie        = "movie"
	KindPerson       = "person"
	KindGenre        = "genre"
	KindCompany      = "prodco"
	KindPublication  = "publication"
	KindAwardOrg     = "award"
	KindReviewer     = "user"
	KindCriticReview = "critic_review"
	KindUserReview   = "user_review"
	KindAwardSummary = "movie_award"
)

// Normalize 规范化自然键：去首尾空白并转小写
func Normalize(naturalKey string) string {
	return strings.ToLower(strings.TrimSpace(naturalKey))
}

// StableID 生成稳定代理 ID
func StableID(kind, naturalKey string) uint64 {
	sum := adler32.Checksum([]byte(kind + ":" + Normalize(naturalKey)))
	return offset + uint64(sum)
}

// StableIDParts 用多段自然键生成稳定代理 ID（用于评论等复合键实体）
// 各段原样拼接，不做规范化：页内位置、URL 等成分大小写是有意义的
func StableIDParts(kind string, parts ...string) uint64 {
	sum := adler32.Checksum([]byte(kind + ":" + strings.Join(parts, ":")))
	return offset + uint64(sum)
}
