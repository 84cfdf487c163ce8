package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// 页面文本字段的正则提取工具
// 目标站点的详情页没有稳定的字段容器，多数标量字段只能从整页文本里按
// 模式提取；字段缺失一律返回 nil / 空串，表示显式未知，绝不报错

var (
	releaseDateRe = regexp.MustCompile(`\bRelease Date\s+([A-Z][a-z]{2}\s+\d{1,2},\s+\d{4})\b`)
	runtimeHMRe   = regexp.MustCompile(`(?i)\b(\d+)\s*h\s*(\d+)\s*m\b`)
	runtimeMRe    = regexp.MustCompile(`(?i)\b(\d+)\s*m\b`)
	durationRe    = regexp.MustCompile(`PT(\d+)M`)
	ratingRe      = regexp.MustCompile(`\bRating\s+(G|PG|PG-13|R|NC-17|NR|Not Rated|TV-MA|TV-14|TV-PG)\b`)
	metascoreRe   = regexp.MustCompile(`(?i)\bMetascore\b.*?\b(\d{1,3})\b`)
	userScoreRe   = regexp.MustCompile(`(?i)\bUser Score\b.*?\b(\d{1,2}(?:\.\d)?)\b`)
	criticCountRe = regexp.MustCompile(`(?i)\bBased on\s+([\d,]+)\s+Critic Reviews\b`)
	userCountRe   = regexp.MustCompile(`(?i)\bBased on\s+([\d,]+)\s+User Ratings\b`)
	criticDistRe  = regexp.MustCompile(`(?i)\bPositive\b\s+(\d+)\s+Reviews?\b.*?\bMixed\b\s+(\d+)\s+Reviews?\b.*?\bNegative\b\s+(\d+)\s+Reviews?\b`)
	userDistRe    = regexp.MustCompile(`(?i)\bPositive\b\s+(\d+)\s+Ratings?\b.*?\bMixed\b\s+(\d+)\s+Ratings?\b.*?\bNegative\b\s+(\d+)\s+Ratings?\b`)
	awardRe       = regexp.MustCompile(`(?i)([A-Za-z0-9 '&-]{3,60}):\s*(\d+)\s*wins?,\s*(\d+)\s*nominations?`)
	companyRe     = regexp.MustCompile(`\b([A-Z][A-Za-z0-9&.' -]{2,60}? (?:Entertainment|Pictures|Studios|Films))\b`)
	nonDigitRe    = regexp.MustCompile(`[^\d]`)
	yearRe        = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// ParseReleaseDate 提取发行日期，如 "Release Date Apr 4, 2025"
func ParseReleaseDate(text string) string {
	if m := releaseDateRe.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ParseRuntimeMinutes 提取片长分钟数，支持 "1 h 36 m" 和 "96 m" 两种写法
func ParseRuntimeMinutes(text string) *int {
	if m := runtimeHMRe.FindStringSubmatch(text); len(m) > 2 {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		v := h*60 + min
		return &v
	}
	if m := runtimeMRe.FindStringSubmatch(text); len(m) > 1 {
		v, _ := strconv.Atoi(m[1])
		// 避免把年份当片长
		if v >= 10 && v <= 400 {
			return &v
		}
	}
	return nil
}

// ParseDurationMinutes 解析 JSON-LD 的 ISO 8601 时长，如 "PT96M"
func ParseDurationMinutes(duration string) *int {
	if m := durationRe.FindStringSubmatch(duration); len(m) > 1 {
		v, _ := strconv.Atoi(m[1])
		return &v
	}
	return nil
}

// ParseContentRating 提取内容分级，如 "Rating PG-13"
func ParseContentRating(text string) string {
	if m := ratingRe.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ParseMetascore 提取影评人综合分，区间外的值视为未知
func ParseMetascore(text string) *int {
	if m := metascoreRe.FindStringSubmatch(text); len(m) > 1 {
		v, _ := strconv.Atoi(m[1])
		if v >= 0 && v <= 100 {
			return &v
		}
	}
	return nil
}

// ParseUserScore 提取用户综合分，如 "User Score ... 6.8"
func ParseUserScore(text string) *float64 {
	if m := userScoreRe.FindStringSubmatch(text); len(m) > 1 {
		v, _ := strconv.ParseFloat(m[1], 64)
		if v >= 0.0 && v <= 10.0 {
			return &v
		}
	}
	return nil
}

// ParseCriticReviewCount 提取 "Based on N Critic Reviews" 中的 N
func ParseCriticReviewCount(text string) *int {
	return parseCount(criticCountRe, text)
}

// ParseUserRatingCount 提取 "Based on N User Ratings" 中的 N
func ParseUserRatingCount(text string) *int {
	return parseCount(userCountRe, text)
}

func parseCount(re *regexp.Regexp, text string) *int {
	if m := re.FindStringSubmatch(text); len(m) > 1 {
		v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err == nil {
			return &v
		}
	}
	return nil
}

// ParseCriticDistribution 提取影评人好评/中评/差评计数
func ParseCriticDistribution(text string) (pos, mixed, neg *int) {
	return parseDistribution(criticDistRe, text)
}

// ParseUserDistribution 提取用户好评/中评/差评计数
func ParseUserDistribution(text string) (pos, mixed, neg *int) {
	return parseDistribution(userDistRe, text)
}

func parseDistribution(re *regexp.Regexp, text string) (pos, mixed, neg *int) {
	m := re.FindStringSubmatch(text)
	if len(m) < 4 {
		return nil, nil, nil
	}
	p, _ := strconv.Atoi(m[1])
	x, _ := strconv.Atoi(m[2])
	n, _ := strconv.Atoi(m[3])
	return &p, &x, &n
}

// AwardMention 页面文本里的奖项提及，如 "Oscars: 2 wins, 5 nominations"
type AwardMention struct {
	OrgName     string
	Wins        int
	Nominations int
}

// ParseAwards 提取奖项汇总提及
func ParseAwards(text string) []AwardMention {
	var out []AwardMention
	for _, m := range awardRe.FindAllStringSubmatch(text, -1) {
		org := strings.TrimSpace(m[1])
		if org == "" {
			continue
		}
		wins, _ := strconv.Atoi(m[2])
		noms, _ := strconv.Atoi(m[3])
		out = append(out, AwardMention{OrgName: org, Wins: wins, Nominations: noms})
	}
	return out
}

// ParseCompanies 提取疑似制片公司名（尽力而为，站点的公司展示并不稳定）
func ParseCompanies(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range companyRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		out = append(out, name)
	}
	// 最多取前 5 个，后面的多半是误匹配
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// ParseMoney 解析金额字符串，如 "$25,000,000"
func ParseMoney(text string) *int64 {
	cleaned := nonDigitRe.ReplaceAllString(text, "")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseYear 从文本里提取四位年份
func ParseYear(text string) *int {
	if m := yearRe.FindString(text); m != "" {
		v, _ := strconv.Atoi(m)
		return &v
	}
	return nil
}
