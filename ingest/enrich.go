package ingest

import (
	"strings"
	"unicode"

	"github.com/lectern-app/lectern/core"
)

// Difficulty tiers assigned by the enrichment heuristic.
const (
	DifficultyIntroductory = "introductory"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// EnrichConfig holds the thresholds of the post-extraction enrichment
// heuristics. They are deliberately configuration, not constants: the
// tiers are coarse and deployments tune them per corpus.
type EnrichConfig struct {
	// IntermediateAvgWordLen is the average word length (runes) at and
	// above which a document counts as intermediate. Default: 4.6
	IntermediateAvgWordLen float64

	// AdvancedAvgWordLen is the average word length at and above which
	// a document counts as advanced. Default: 5.4
	AdvancedAvgWordLen float64

	// MinSubjectMatches is how many keyword hits a subject needs before
	// it is tagged on the document. Default: 3
	MinSubjectMatches int

	// SummarySentences is how many leading sentences the summary
	// keeps. Default: 2
	SummarySentences int

	// SubjectKeywords maps a subject tag to the keywords that vote for
	// it. Nil means the built-in academic default set.
	SubjectKeywords map[string][]string
}

// DefaultEnrichConfig returns the enrichment defaults.
func DefaultEnrichConfig() EnrichConfig {
	return EnrichConfig{
		IntermediateAvgWordLen: 4.6,
		AdvancedAvgWordLen:     5.4,
		MinSubjectMatches:      3,
		SummarySentences:       2,
		SubjectKeywords:        defaultSubjectKeywords,
	}
}

// Normalize fills zero values with defaults.
func (c *EnrichConfig) Normalize() {
	def := DefaultEnrichConfig()
	if c.IntermediateAvgWordLen <= 0 {
		c.IntermediateAvgWordLen = def.IntermediateAvgWordLen
	}
	if c.AdvancedAvgWordLen <= 0 {
		c.AdvancedAvgWordLen = def.AdvancedAvgWordLen
	}
	if c.MinSubjectMatches <= 0 {
		c.MinSubjectMatches = def.MinSubjectMatches
	}
	if c.SummarySentences <= 0 {
		c.SummarySentences = def.SummarySentences
	}
	if c.SubjectKeywords == nil {
		c.SubjectKeywords = def.SubjectKeywords
	}
}

var defaultSubjectKeywords = map[string][]string{
	"mathematics": {"theorem", "proof", "equation", "integral", "matrix", "algebra", "geometry", "derivative"},
	"computing":   {"algorithm", "software", "compiler", "database", "network", "program", "kernel", "binary"},
	"biology":     {"cell", "protein", "genome", "enzyme", "organism", "species", "dna", "membrane"},
	"physics":     {"quantum", "particle", "energy", "momentum", "relativity", "electron", "thermodynamics", "wave"},
	"chemistry":   {"molecule", "reaction", "compound", "acid", "catalyst", "ion", "polymer", "solvent"},
	"economics":   {"market", "inflation", "demand", "supply", "investment", "capital", "monetary", "fiscal"},
	"history":     {"century", "empire", "revolution", "dynasty", "treaty", "colonial", "medieval", "war"},
	"law":         {"statute", "contract", "liability", "plaintiff", "jurisdiction", "tort", "clause", "precedent"},
}

// enrich derives the document's difficulty tier, subject tags, and a
// short summary from the extracted text.
func enrich(doc *core.Document, text string, cfg EnrichConfig) {
	doc.Difficulty = difficultyTier(text, cfg)
	doc.Subjects = subjectTags(text, cfg)
	doc.Summary = leadingSummary(text, cfg.SummarySentences)
}

// difficultyTier buckets the text by average word length.
func difficultyTier(text string, cfg EnrichConfig) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return DifficultyIntroductory
	}

	var letters int
	for _, word := range words {
		letters += len([]rune(strings.TrimFunc(word, unicode.IsPunct)))
	}
	avg := float64(letters) / float64(len(words))

	switch {
	case avg >= cfg.AdvancedAvgWordLen:
		return DifficultyAdvanced
	case avg >= cfg.IntermediateAvgWordLen:
		return DifficultyIntermediate
	default:
		return DifficultyIntroductory
	}
}

// subjectTags counts keyword hits per subject and keeps the subjects
// that clear the match threshold. Tags come out in deterministic order.
func subjectTags(text string, cfg EnrichConfig) []string {
	lower := strings.ToLower(text)

	type scored struct {
		subject string
		hits    int
	}
	var matched []scored
	for subject, keywords := range cfg.SubjectKeywords {
		hits := 0
		for _, keyword := range keywords {
			hits += strings.Count(lower, keyword)
		}
		if hits >= cfg.MinSubjectMatches {
			matched = append(matched, scored{subject, hits})
		}
	}

	// Strongest subject first; ties alphabetical for determinism
	for i := 1; i < len(matched); i++ {
		for j := i; j > 0; j-- {
			a, b := matched[j-1], matched[j]
			if b.hits > a.hits || (b.hits == a.hits && b.subject < a.subject) {
				matched[j-1], matched[j] = b, a
			} else {
				break
			}
		}
	}

	tags := make([]string, 0, len(matched))
	for _, m := range matched {
		tags = append(tags, m.subject)
	}
	return tags
}

// leadingSummary keeps the first n sentences of the text.
func leadingSummary(text string, n int) string {
	runes := []rune(strings.TrimSpace(text))
	count := 0
	for i, r := range runes {
		if r == '.' || r == '!' || r == '?' {
			count++
			if count == n {
				return strings.TrimSpace(string(runes[:i+1]))
			}
		}
	}
	return strings.TrimSpace(string(runes))
}
