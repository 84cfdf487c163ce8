// Package parser 从有序文本 token 流中重建评论记录。
//
// 评论区页面没有可靠的逐条容器标记，字段无法按选择器定位，只能拿到一串
// 按 DOM 顺序排列、去过空白的文本片段。解析器对它做单向扫描：
// 日期 token 是记录分隔符，日期之后在限定窗口内找分数，分数之后取作者，
// 其余 token 累积为正文，直到遇到终止 token 或流结束。
// 不回溯，平局时取窗口内第一个合法候选。
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Review 重建出的单条评论
type Review struct {
	Date    string
	Score   int
	Author  string
	Excerpt string
}

// 日期形如 "Jan 5, 2024"，作为记录分隔符
var dateRe = regexp.MustCompile(`^[A-Z][a-z]{2} \d{1,2}, \d{4}$`)

// 纯数字 token，1~3 位
var numRe = regexp.MustCompile(`^\d{1,3}$`)

// 影评人评论里日期之后找分数的最大窗口
// 用户评论的分数紧跟在日期后面，窗口恒为 1
const scoreWindow = 6

// 页面动作类 token，既不是作者也不是正文
var boilerplate = map[string]bool{
	"read more": true,
	"report":    true,
}

// 区块边界 token，正文收集到此为止
var sectionBoundary = map[string]bool{
	"view all":       true,
	"critic reviews": true,
	"user reviews":   true,
}

// ParseCriticReviews 从 token 流重建影评人评论，分数区间 0-100
// 分数在日期后的窗口内查找
func ParseCriticReviews(tokens []string) []Review {
	return scan(tokens, 100, scoreWindow)
}

// ParseUserReviews 从 token 流重建用户评论，分数区间 0-10
// 用户评论页的分数紧跟日期，紧随 token 不是合法分数就放弃该候选
func ParseUserReviews(tokens []string) []Review {
	return scan(tokens, 10, 1)
}

// scan 单向扫描整个 token 流
// 全函数：任意输入（包括空）都返回列表，输入畸形只会产出更少的记录，从不报错
func scan(tokens []string, maxScore, window int) []Review {
	var out []Review
	i := 0

	for i < len(tokens) {
		// 阶段一：找日期
		if !dateRe.MatchString(tokens[i]) {
			i++
			continue
		}
		date := tokens[i]

		// 阶段二：日期之后的窗口内找分数
		score := -1
		scorePos := -1
		for j := i + 1; j < min(i+1+window, len(tokens)); j++ {
			if !numRe.MatchString(tokens[j]) {
				continue
			}
			v, _ := strconv.Atoi(tokens[j])
			if v >= 0 && v <= maxScore {
				score = v
				scorePos = j
				break
			}
		}
		if scorePos < 0 {
			// 日期后配不到分数，该候选无法恢复，从下一个 token 继续找
			i++
			continue
		}

		// 阶段三：分数之后第一个非数字、非日期、非动作 token 是作者
		author := ""
		textStart := scorePos + 1
		for j := scorePos + 1; j < min(scorePos+1+scoreWindow, len(tokens)); j++ {
			t := tokens[j]
			if numRe.MatchString(t) || dateRe.MatchString(t) {
				continue
			}
			low := strings.ToLower(t)
			if boilerplate[low] || sectionBoundary[low] {
				continue
			}
			author = t
			textStart = j + 1
			break
		}

		// 阶段四：累积正文直到终止 token（下一个日期、动作 token 或区块边界）
		// 流结束视作隐式终止，已收集到的正文照常产出
		var parts []string
		j := textStart
		next := -1 // 终止 token 是日期时，下一条记录从它开始
		for ; j < len(tokens); j++ {
			t := tokens[j]
			if dateRe.MatchString(t) {
				next = j
				break
			}
			low := strings.ToLower(t)
			if boilerplate[low] || sectionBoundary[low] {
				break
			}
			parts = append(parts, t)
		}

		out = append(out, Review{
			Date:    date,
			Score:   score,
			Author:  author,
			Excerpt: strings.TrimSpace(strings.Join(parts, " ")),
		})

		if next >= 0 {
			i = next
		} else {
			i = j + 1
		}
	}

	return out
}
