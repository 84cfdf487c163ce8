package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/Simerblur/online-data-mining/internal/model"
	"github.com/Simerblur/online-data-mining/internal/utils"
)

// MetacriticExtractor 把抓到的页面内容转成结构化记录
// 详情页字段优先走 JSON-LD（最稳定），缺失时退回整页文本的模式提取；
// 评论页不产出字段，只产出有序 token 流，交给 parser 包重建评论
type MetacriticExtractor struct {
	baseURL string
}

// NewMetacriticExtractor 创建抽取器
func NewMetacriticExtractor(baseURL string) *MetacriticExtractor {
	return &MetacriticExtractor{baseURL: strings.TrimRight(baseURL, "/")}
}

var (
	slugRe      = regexp.MustCompile(`/movie/([^/]+)/?(?:\?.*)?$`)
	moviePathRe = regexp.MustCompile(`^/movie/[^/]+/?$`)
	wsRe        = regexp.MustCompile(`\s+`)
)

// BrowseURL 浏览页 URL
func (e *MetacriticExtractor) BrowseURL(page int) string {
	return fmt.Sprintf("%s/browse/movie/?page=%d", e.baseURL, page)
}

// MovieURL 电影详情页 URL
func (e *MetacriticExtractor) MovieURL(slug string) string {
	return fmt.Sprintf("%s/movie/%s/", e.baseURL, slug)
}

// CriticReviewsURL 影评人评论页 URL
func (e *MetacriticExtractor) CriticReviewsURL(slug string, page int) string {
	u := fmt.Sprintf("%s/movie/%s/critic-reviews/", e.baseURL, slug)
	if page > 0 {
		u = fmt.Sprintf("%s?page=%d", u, page)
	}
	return u
}

// UserReviewsURL 用户评论页 URL
func (e *MetacriticExtractor) UserReviewsURL(slug string, page int) string {
	u := fmt.Sprintf("%s/movie/%s/user-reviews/", e.baseURL, slug)
	if page > 0 {
		u = fmt.Sprintf("%s?page=%d", u, page)
	}
	return u
}

// ExtractSlug 从 URL 或路径中提取电影 slug
func ExtractSlug(urlOrPath string) string {
	if m := slugRe.FindStringSubmatch(urlOrPath); len(m) > 1 {
		return m[1]
	}
	return ""
}

// ExtractBrowseSlugs 从浏览页提取电影 slug 列表（保持页面顺序，去重）
func (e *MetacriticExtractor) ExtractBrowseSlugs(page *Page) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("解析 HTML 失败: %w", err)
	}

	var slugs []string
	seen := make(map[string]bool)
	doc.Find(`a[href^="/movie/"]`).Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		// 只要直达详情页的链接，评论页等子页面跳过
		if !moviePathRe.MatchString(href) {
			return
		}
		slug := ExtractSlug(href)
		if slug == "" || seen[slug] {
			return
		}
		seen[slug] = true
		slugs = append(slugs, slug)
	})
	return slugs, nil
}

// ExtractMovie 从详情页提取电影记录和评分分布记录
func (e *MetacriticExtractor) ExtractMovie(page *Page, slug string) (*model.MovieRecord, *model.ScoreSummaryRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, nil, fmt.Errorf("解析 HTML 失败: %w", err)
	}

	ld := extractJSONLDMovie(doc)
	text := pageText(doc)

	rec := &model.MovieRecord{
		Slug:      slug,
		SourceURL: page.URL,
	}

	// 标题：JSON-LD 优先，退回 h1
	if name, ok := ld["name"].(string); ok && strings.TrimSpace(name) != "" {
		rec.Title = strings.TrimSpace(name)
	}
	if rec.Title == "" {
		rec.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	// 强制校验：没有标题视为抓取失败（可能触发反爬或页面结构变化）
	if rec.Title == "" {
		return nil, nil, fmt.Errorf("无法解析出电影标题 (slug: %s): %w", slug, ErrBadPage)
	}

	// 发行日期
	if dp, ok := ld["datePublished"].(string); ok && strings.TrimSpace(dp) != "" {
		rec.ReleaseDate = strings.TrimSpace(dp)
	} else {
		rec.ReleaseDate = utils.ParseReleaseDate(text)
	}
	rec.Year = utils.ParseYear(rec.ReleaseDate)
	if rec.Year == nil {
		rec.Year = utils.ParseYear(text)
	}

	// 片长
	if dur, ok := ld["duration"].(string); ok {
		rec.RuntimeMinutes = utils.ParseDurationMinutes(dur)
	}
	if rec.RuntimeMinutes == nil {
		rec.RuntimeMinutes = utils.ParseRuntimeMinutes(text)
	}

	// 内容分级
	if cr, ok := ld["contentRating"].(string); ok && strings.TrimSpace(cr) != "" {
		rec.ContentRating = strings.TrimSpace(cr)
	} else {
		rec.ContentRating = utils.ParseContentRating(text)
	}

	// 简介
	if desc, ok := ld["description"].(string); ok && strings.TrimSpace(desc) != "" {
		rec.Summary = strings.TrimSpace(desc)
	} else {
		rec.Summary = strings.TrimSpace(doc.Find(`div[class*="description"]`).First().Text())
	}

	// 分数与计数
	rec.Metascore = utils.ParseMetascore(text)
	rec.UserScore = utils.ParseUserScore(text)
	rec.CriticReviewCount = utils.ParseCriticReviewCount(text)
	rec.UserRatingCount = utils.ParseUserRatingCount(text)

	// 类型：JSON-LD 的 genre 可能是字符串或数组
	rec.Genres = ldStrings(ld["genre"])

	// 导演/编剧来自带标签的明细区
	rec.Directors = splitNames(detailValue(doc, "Directed By"))
	rec.Writers = splitNames(detailValue(doc, "Written By"))

	// 演员表
	rec.Cast = extractTopCast(doc)

	// 票房、制片公司与奖项（尽力而为）
	if v := detailValue(doc, "Box Office"); v != "" {
		rec.BoxOffice = utils.ParseMoney(v)
	}
	rec.Companies = utils.ParseCompanies(text)
	for _, a := range utils.ParseAwards(text) {
		rec.Awards = append(rec.Awards, model.AwardEntry{
			OrgName:     a.OrgName,
			Wins:        a.Wins,
			Nominations: a.Nominations,
		})
	}

	// 评分分布
	sum := &model.ScoreSummaryRecord{Slug: slug}
	sum.CriticPositive, sum.CriticMixed, sum.CriticNegative = utils.ParseCriticDistribution(text)
	sum.UserPositive, sum.UserMixed, sum.UserNegative = utils.ParseUserDistribution(text)

	return rec, sum, nil
}

// ExtractTokens 把页面正文拆成按 DOM 顺序排列的规范化文本 token 流
func (e *MetacriticExtractor) ExtractTokens(page *Page) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("解析 HTML 失败: %w", err)
	}

	var tokens []string
	doc.Find("body, body *").Each(func(i int, s *goquery.Selection) {
		// script/style 的文本不是页面内容
		switch goquery.NodeName(s) {
		case "script", "style", "noscript":
			return
		}
		s.Contents().Each(func(j int, c *goquery.Selection) {
			if goquery.NodeName(c) != "#text" {
				return
			}
			t := strings.TrimSpace(wsRe.ReplaceAllString(c.Text(), " "))
			if t != "" {
				tokens = append(tokens, t)
			}
		})
	})
	return tokens, nil
}

// extractJSONLDMovie 提取 JSON-LD 里的 Movie 对象（JSON-LD 通常最稳定）
func extractJSONLDMovie(doc *goquery.Document) map[string]interface{} {
	var found map[string]interface{}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}

		var data interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return true
		}

		candidates := []interface{}{data}
		if list, ok := data.([]interface{}); ok {
			candidates = list
		}
		for _, c := range candidates {
			obj, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			// @graph 包裹的情况
			if graph, ok := obj["@graph"].([]interface{}); ok {
				for _, g := range graph {
					if gm, ok := g.(map[string]interface{}); ok && isLDMovie(gm) {
						found = gm
						return false
					}
				}
			}
			if isLDMovie(obj) {
				found = obj
				return false
			}
		}
		return true
	})

	if found == nil {
		return map[string]interface{}{}
	}
	return found
}

func isLDMovie(obj map[string]interface{}) bool {
	t, _ := obj["@type"].(string)
	return t == "Movie" || t == "Film"
}

// ldStrings 把 JSON-LD 字段规范成字符串切片（字段可能是字符串或数组）
func ldStrings(v interface{}) []string {
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
	case []interface{}:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

// detailValue 找包含指定标签的明细节点并取其值文本
// 取包含标签的最短节点，避免把半个页面的文本都带进来
func detailValue(doc *goquery.Document, label string) string {
	best := ""
	doc.Find("li, div, span").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(wsRe.ReplaceAllString(s.Text(), " "))
		if !strings.Contains(text, label) {
			return
		}
		if best == "" || len(text) < len(best) {
			best = text
		}
	})
	if best == "" {
		return ""
	}
	best = strings.ReplaceAll(best, label, "")
	return strings.Trim(best, " :|-")
}

// splitNames 逗号分隔的人名列表
func splitNames(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(text, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// extractTopCast 从 /person/ 链接提取演员表
// 链接文本通常是 "演员名 角色名" 连在一起，按前两个词是姓名的启发式拆分
func extractTopCast(doc *goquery.Document) []model.CastEntry {
	var cast []model.CastEntry
	seen := make(map[string]bool)

	doc.Find(`a[href*="/person/"]`).Each(func(i int, s *goquery.Selection) {
		t := strings.TrimSpace(wsRe.ReplaceAllString(s.Text(), " "))
		if t == "" {
			return
		}
		key := strings.ToLower(t)
		if seen[key] {
			return
		}
		seen[key] = true

		low := strings.ToLower(t)
		if low == "view all" || low == "view all cast & crew" {
			return
		}

		parts := strings.Split(t, " ")
		name := t
		character := ""
		if len(parts) > 2 {
			name = strings.Join(parts[:2], " ")
			character = strings.TrimSpace(strings.Join(parts[2:], " "))
			if len(character) < 2 {
				character = ""
			}
		}

		cast = append(cast, model.CastEntry{
			Name:          name,
			CharacterName: character,
			BillingOrder:  len(cast) + 1,
		})
	})

	// 只保留前 15 位主演
	if len(cast) > 15 {
		cast = cast[:15]
	}
	return cast
}

// pageText 把整页可见文本拼成一个字符串，便于模式提取
func pageText(doc *goquery.Document) string {
	text := doc.Find("body").Text()
	return strings.TrimSpace(wsRe.ReplaceAllString(text, " "))
}
