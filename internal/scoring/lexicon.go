package scoring

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon is the word lists the evaluators classify against. A Lexicon is
// immutable once built and safe for concurrent use.
type Lexicon struct {
	actionVerbs    map[string]struct{}
	weakVerbs      map[string]struct{}
	stopWords      map[string]struct{}
	magnitudeWords map[string]struct{}
}

// LexiconFile is the on-disk shape of a lexicon extension. YAML or JSON.
type LexiconFile struct {
	ActionVerbs    []string `yaml:"actionVerbs" json:"actionVerbs"`
	WeakVerbs      []string `yaml:"weakVerbs" json:"weakVerbs"`
	StopWords      []string `yaml:"stopWords" json:"stopWords"`
	MagnitudeWords []string `yaml:"magnitudeWords" json:"magnitudeWords"`
}

// LexiconSource hands out the lexicon to use for one scoring call.
type LexiconSource interface {
	Lexicon() *Lexicon
}

var defaultActionVerbs = []string{
	"accelerated", "achieved", "acquired", "adapted", "administered", "advanced", "analyzed",
	"architected", "authored", "automated", "boosted", "built", "captured", "championed",
	"coached", "collaborated", "consolidated", "converted", "coordinated", "created", "cut",
	"debugged", "decreased", "defined", "delivered", "deployed", "designed", "developed",
	"devised", "diagnosed", "directed", "drove", "eliminated", "enabled", "engineered",
	"enhanced", "established", "exceeded", "executed", "expanded", "facilitated", "founded",
	"generated", "grew", "guided", "headed", "identified", "implemented", "improved",
	"increased", "influenced", "initiated", "innovated", "instituted", "integrated",
	"introduced", "launched", "led", "leveraged", "maximized", "mentored", "migrated",
	"minimized", "modernized", "negotiated", "orchestrated", "organized", "overhauled",
	"owned", "pioneered", "planned", "produced", "programmed", "published", "raised",
	"rebuilt", "redesigned", "reduced", "refactored", "resolved", "restructured", "revamped",
	"saved", "scaled", "secured", "shipped", "simplified", "spearheaded", "standardized",
	"streamlined", "strengthened", "supervised", "trained", "transformed", "tripled",
	"doubled", "unified", "upgraded", "won", "wrote",
	// present tense for current roles
	"architect", "automate", "build", "deliver", "design", "develop", "drive", "implement",
	"improve", "lead", "mentor", "optimize", "own", "reduce", "scale", "ship",
	"optimized", "oversaw",
}

var defaultWeakVerbs = []string{
	"assisted", "contributed", "did", "handled", "helped", "involved", "made", "managed",
	"participated", "responsible", "supported", "tasked", "tried", "used", "utilized",
	"was", "were", "worked",
}

var defaultStopWords = []string{
	"a", "about", "above", "after", "again", "all", "also", "am", "an", "and", "any", "are",
	"as", "at", "be", "because", "been", "before", "being", "below", "between", "both", "but",
	"by", "can", "could", "did", "do", "does", "doing", "down", "during", "each", "etc", "few",
	"for", "from", "further", "had", "has", "have", "having", "he", "her", "here", "hers",
	"him", "his", "how", "i", "if", "in", "into", "is", "it", "its", "itself", "just", "like",
	"may", "me", "might", "more", "most", "must", "my", "no", "nor", "not", "of", "off", "on",
	"once", "only", "or", "other", "our", "ours", "out", "over", "own", "per", "same", "she",
	"should", "so", "some", "such", "than", "that", "the", "their", "theirs", "them", "then",
	"there", "these", "they", "this", "those", "through", "to", "too", "under", "until", "up",
	"us", "very", "via", "was", "we", "well", "were", "what", "when", "where", "which", "while",
	"who", "whom", "why", "will", "with", "within", "would", "you", "your", "yours",
	// job posting filler
	"ability", "able", "applicant", "applicants", "apply", "benefits", "candidate", "candidates",
	"company", "equal", "excellent", "experience", "familiarity", "good", "great", "ideal",
	"including", "join", "job", "knowledge", "looking", "new", "opportunity", "plus",
	"position", "preferred", "required", "requirements", "responsibilities", "role", "seeking",
	"skills", "strong", "team", "understanding", "work", "working", "year", "years",
}

var defaultMagnitudeWords = []string{
	"billion", "billions", "dozen", "dozens", "doubled", "halved", "hundred", "hundreds",
	"million", "millions", "thousand", "thousands", "tripled",
}

// DefaultLexicon returns the built-in word lists.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		actionVerbs:    toSet(defaultActionVerbs),
		weakVerbs:      toSet(defaultWeakVerbs),
		stopWords:      toSet(defaultStopWords),
		magnitudeWords: toSet(defaultMagnitudeWords),
	}
}

// Lexicon lets a fixed *Lexicon serve as its own LexiconSource.
func (l *Lexicon) Lexicon() *Lexicon {
	return l
}

// Extend returns a new lexicon with the file's words added. A word listed as
// an action verb is removed from the weak verbs and vice versa, last list wins.
func (l *Lexicon) Extend(f LexiconFile) *Lexicon {
	out := &Lexicon{
		actionVerbs:    maps.Clone(l.actionVerbs),
		weakVerbs:      maps.Clone(l.weakVerbs),
		stopWords:      maps.Clone(l.stopWords),
		magnitudeWords: maps.Clone(l.magnitudeWords),
	}
	for _, w := range f.ActionVerbs {
		if w = normalizeWord(w); w != "" {
			out.actionVerbs[w] = struct{}{}
			delete(out.weakVerbs, w)
		}
	}
	for _, w := range f.WeakVerbs {
		if w = normalizeWord(w); w != "" {
			out.weakVerbs[w] = struct{}{}
			delete(out.actionVerbs, w)
		}
	}
	addAll(out.stopWords, f.StopWords)
	addAll(out.magnitudeWords, f.MagnitudeWords)
	return out
}

// LoadLexicon reads a lexicon extension file and applies it to the defaults.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file %s: %w", path, err)
	}
	var f LexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file %s: %w", path, err)
	}
	return DefaultLexicon().Extend(f), nil
}

// IsActionVerb reports whether word opens a bullet with a strong verb.
// Case and surrounding punctuation are ignored.
func (l *Lexicon) IsActionVerb(word string) bool {
	_, ok := l.actionVerbs[normalizeWord(word)]
	return ok
}

// IsWeakVerb reports whether word is a passive opener such as "Helped".
func (l *Lexicon) IsWeakVerb(word string) bool {
	_, ok := l.weakVerbs[normalizeWord(word)]
	return ok
}

// IsStopWord reports whether word is too common to be a keyword.
func (l *Lexicon) IsStopWord(word string) bool {
	_, ok := l.stopWords[normalizeWord(word)]
	return ok
}

// IsMagnitudeWord reports whether word quantifies a result, e.g. "million".
func (l *Lexicon) IsMagnitudeWord(word string) bool {
	_, ok := l.magnitudeWords[normalizeWord(word)]
	return ok
}

// Size reports the entry count per list, for logging.
func (l *Lexicon) Size() map[string]int {
	return map[string]int{
		"action_verbs":    len(l.actionVerbs),
		"weak_verbs":      len(l.weakVerbs),
		"stop_words":      len(l.stopWords),
		"magnitude_words": len(l.magnitudeWords),
	}
}

func normalizeWord(w string) string {
	return strings.ToLower(strings.Trim(w, " \t\r\n.,;:!?\"'()[]{}"))
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	addAll(set, words)
	return set
}

func addAll(set map[string]struct{}, words []string) {
	for _, w := range words {
		if w = normalizeWord(w); w != "" {
			set[w] = struct{}{}
		}
	}
}
