// Package matcher decides whether a directory search result refers to the same facility as
// an input row.
package matcher

import (
	"regexp"
	"strings"

	"RecordSync/internal/domain"
	"RecordSync/internal/normalize"
)

// prefectures is the fixed list of the 47 Japanese prefectures.
var prefectures = []string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県", "岐阜県",
	"静岡県", "愛知県", "三重県", "滋賀県", "京都府", "大阪府", "兵庫県",
	"奈良県", "和歌山県", "鳥取県", "島根県", "岡山県", "広島県", "山口県",
	"徳島県", "香川県", "愛媛県", "高知県", "福岡県", "佐賀県", "長崎県",
	"熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県",
}

var municipalityPattern = regexp.MustCompile(`^[^市区町村]+[市区町村]`)

// IsSimilarAddress reports whether two addresses name the same place: equal or contained
// after normalization, or sharing both prefecture and municipality.
func IsSimilarAddress(input, candidate string) bool {
	a := normalize.Address(input)
	b := normalize.Address(candidate)
	if contains(a, b) {
		return true
	}
	pref, ok := commonPrefecture(a, b)
	if !ok {
		return false
	}
	cityA := Municipality(strings.TrimPrefix(a, pref))
	cityB := Municipality(strings.TrimPrefix(b, pref))
	return cityA != "" && cityA == cityB
}

// IsSimilarName reports whether two facility names are equal or one contains the other
// after normalization.
func IsSimilarName(input, candidate string) bool {
	return contains(normalize.Name(input), normalize.Name(candidate))
}

// SelectMatches keeps the candidates whose name and address are both similar to the input,
// in their original order. The result is never nil.
func SelectMatches(input domain.InputRecord, candidates []domain.CandidateRecord) []domain.CandidateRecord {
	matches := make([]domain.CandidateRecord, 0, len(candidates))
	for _, c := range candidates {
		if IsSimilarName(input.Name, c.Name) && IsSimilarAddress(input.Address, c.Address) {
			matches = append(matches, c)
		}
	}
	return matches
}

// Prefecture returns the prefecture a normalized address starts with, or "".
func Prefecture(address string) string {
	for _, pref := range prefectures {
		if strings.HasPrefix(address, pref) {
			return pref
		}
	}
	return ""
}

// Municipality returns the leading city, ward, town or village token of an address with its
// prefecture already removed, or "".
func Municipality(rest string) string {
	return municipalityPattern.FindString(rest)
}

func commonPrefecture(a, b string) (string, bool) {
	pref := Prefecture(a)
	if pref == "" || !strings.HasPrefix(b, pref) {
		return "", false
	}
	return pref, true
}

func contains(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
