// Package slug 把标题转换成 URL 安全的 slug。
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength 是 slug 允许的最大长度，与 tags.slug 列宽一致。
const MaxLength = 120

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	spaces       = regexp.MustCompile(`\s+`)
	hyphens      = regexp.MustCompile(`-+`)
	validSlug    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// stripMarks 去掉 NFD 分解后的组合附加符号，例如 "ç" -> "c"。
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Generate 根据标题生成 slug："Ação & Notícia!" -> "acao-noticia"。
// 结果可能为空字符串（标题全部由符号组成时）。
func Generate(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	if s == "" {
		return ""
	}
	s = stripMarks(s)
	s = invalidChars.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, "-")
	s = hyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// Valid reports whether s is a well-formed slug. Empty is not valid.
func Valid(s string) bool {
	return len(s) <= MaxLength && validSlug.MatchString(s)
}

// WithSuffix 在 base 后追加 suffix，必要时截短 base，保证结果不超过 MaxLength。
func WithSuffix(base, suffix string) string {
	if keep := MaxLength - len(suffix); len(base) > keep {
		base = strings.TrimRight(base[:keep], "-")
	}
	return base + suffix
}
