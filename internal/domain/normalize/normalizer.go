// Package normalize maps free-text skill strings onto taxonomy skills.
//
// Matching runs in two passes and the first hit wins: a case-insensitive
// exact match on the skill name, then a whole-word match against the skill's
// keywords. Anything else is left unmapped for manual review. Matching itself
// never fails.
package normalize

import (
	"sort"
	"strings"
	"unicode"

	"learnfinity/internal/domain/taxonomy"

	"github.com/google/uuid"
)

type Method string

const (
	MethodExact   Method = "exact"
	MethodKeyword Method = "keyword"
	MethodNone    Method = "none"
	MethodManual  Method = "manual"
)

const (
	ConfidenceExact   = 1.0
	ConfidenceKeyword = 0.7

	// Raw text shorter than this is not matched inside a keyword.
	minReverseMatchLen = 3
)

type Result struct {
	Raw            string
	SkillID        uuid.UUID
	SkillName      string
	Method         Method
	Confidence     float64
	MatchedKeyword string
}

func (r Result) Matched() bool {
	return r.SkillID != uuid.Nil
}

type keywordEntry struct {
	keyword string
	words   []string
	skill   taxonomy.Skill
}

type Normalizer struct {
	byName   map[string]taxonomy.Skill
	keywords []keywordEntry
}

func New(skills []taxonomy.Skill) *Normalizer {
	sorted := make([]taxonomy.Skill, len(skills))
	copy(sorted, skills)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := Key(sorted[i].Name), Key(sorted[j].Name)
		if a != b {
			return a < b
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	n := &Normalizer{byName: make(map[string]taxonomy.Skill, len(sorted))}
	for _, s := range sorted {
		if s.ID == uuid.Nil {
			continue
		}
		k := Key(s.Name)
		if k == "" {
			continue
		}
		if _, ok := n.byName[k]; !ok {
			n.byName[k] = s
		}
		for _, kw := range s.Keywords {
			kw = Key(kw)
			words := Words(kw)
			if len(words) == 0 {
				continue
			}
			n.keywords = append(n.keywords, keywordEntry{keyword: kw, words: words, skill: s})
		}
	}
	return n
}

func (n *Normalizer) Size() int {
	if n == nil {
		return 0
	}
	return len(n.byName)
}

func (n *Normalizer) Match(raw string) Result {
	res := Result{Raw: raw, Method: MethodNone}
	if n == nil {
		return res
	}
	q := Key(raw)
	if q == "" {
		return res
	}

	if s, ok := n.byName[q]; ok {
		res.SkillID = s.ID
		res.SkillName = s.Name
		res.Method = MethodExact
		res.Confidence = ConfidenceExact
		return res
	}

	words := Words(q)
	var best *keywordEntry
	for i := range n.keywords {
		e := &n.keywords[i]
		if !keywordHit(q, words, e) {
			continue
		}
		if best == nil || betterKeyword(e, best) {
			best = e
		}
	}
	if best == nil {
		return res
	}

	res.SkillID = best.skill.ID
	res.SkillName = best.skill.Name
	res.Method = MethodKeyword
	res.Confidence = ConfidenceKeyword
	res.MatchedKeyword = best.keyword
	return res
}

// keywordHit reports whether the keyword appears in the raw text as whole
// words, or the raw text appears as whole words inside the keyword.
func keywordHit(q string, words []string, e *keywordEntry) bool {
	if containsWords(words, e.words) {
		return true
	}
	return len(q) >= minReverseMatchLen && containsWords(e.words, words)
}

// Words splits s into lower-case words. Letters, digits, '+' and '#' form
// words so that names like "c++" and "c#" survive.
func Words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

// ContainsPhrase reports whether phrase occurs in text as a run of whole words.
func ContainsPhrase(text, phrase string) bool {
	return containsWords(Words(text), Words(phrase))
}

func containsWords(hay, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(hay) {
		return false
	}
next:
	for i := 0; i+len(needle) <= len(hay); i++ {
		for j, w := range needle {
			if hay[i+j] != w {
				continue next
			}
		}
		return true
	}
	return false
}

func betterKeyword(a, b *keywordEntry) bool {
	if len(a.keyword) != len(b.keyword) {
		return len(a.keyword) > len(b.keyword)
	}
	an, bn := Key(a.skill.Name), Key(b.skill.Name)
	if an != bn {
		return an < bn
	}
	return a.skill.ID.String() < b.skill.ID.String()
}

// Key is the comparison form of a skill string: lower case with runs of
// whitespace collapsed.
func Key(s string) string {
	return strings.ToLower(taxonomy.CollapseSpace(s))
}
