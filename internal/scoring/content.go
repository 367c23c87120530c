package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"atsscorer/internal/types"
)

const (
	actionVerbWeight = 40
	metricWeight     = 60

	// ContentFloor is the content score of a document with no bullets.
	ContentFloor = 20
	// ImpactFloor is the impact score of a document with no quantified bullets.
	ImpactFloor  = 20

	multiMetricBonus  = 10
	maxStrongExamples = 3
)

var (
	numberPattern   = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
	currencyPattern = regexp.MustCompile(`[$€£¥₹]`)
	bulletPrefix    = "-*•·–—▪‣ \t"
)

// ContentResult is the content quality evaluator's output. Impact is
// derived from the same bullet scan.
type ContentResult struct {
	Score        int
	Impact       int
	Bullets      []types.BulletAssessment
	Weak         []string
	Strong       []string
	WeakOpeners  []string
	WithVerb     int
	WithMetric   int
	MultiMetric  int
	Issues       []string
	ImpactIssues []string
}

// AssessBullet classifies one achievement line.
func AssessBullet(lex *Lexicon, text string) types.BulletAssessment {
	text = strings.TrimSpace(text)
	body := strings.TrimLeft(text, bulletPrefix)

	a := types.BulletAssessment{Text: text}
	if fields := strings.Fields(body); len(fields) > 0 {
		a.HasActionVerb = lex.IsActionVerb(fields[0])
	}

	a.MetricCount = countMetrics(lex, body)
	a.HasMetric = a.MetricCount > 0

	if a.HasActionVerb {
		a.Score += actionVerbWeight
	}
	if a.HasMetric {
		a.Score += metricWeight
	}
	a.Weak = !a.HasActionVerb && !a.HasMetric
	return a
}

func countMetrics(lex *Lexicon, text string) int {
	count := len(numberPattern.FindAllStringIndex(text, -1))
	if count == 0 && (strings.Contains(text, "%") || currencyPattern.MatchString(text)) {
		count = 1
	}
	for _, w := range strings.Fields(text) {
		if lex.IsMagnitudeWord(w) {
			count++
		}
	}
	return count
}

func evaluateContent(lex *Lexicon, doc types.ResumeDocument) ContentResult {
	res := ContentResult{
		Bullets:      []types.BulletAssessment{},
		Weak:         []string{},
		Strong:       []string{},
		Issues:       []string{},
		ImpactIssues: []string{},
	}

	total := 0
	for _, w := range doc.WorkHistory {
		entryBullets := 0
		for _, text := range w.Achievements {
			if strings.TrimSpace(text) == "" {
				continue
			}
			a := AssessBullet(lex, text)
			res.Bullets = append(res.Bullets, a)
			entryBullets++
			total += a.Score

			if a.HasActionVerb {
				res.WithVerb++
			}
			if a.HasMetric {
				res.WithMetric++
			}
			if a.MetricCount > 1 {
				res.MultiMetric++
			}
			if a.Weak {
				res.Weak = append(res.Weak, a.Text)
			}
			if !a.HasActionVerb {
				res.WeakOpeners = appendWeakOpener(lex, res.WeakOpeners, a.Text)
			}
			if a.HasActionVerb && a.HasMetric && len(res.Strong) < maxStrongExamples {
				res.Strong = append(res.Strong, a.Text)
			}
		}
		if entryBullets == 0 && (w.Title != "" || w.Company != "") {
			res.Issues = append(res.Issues, fmt.Sprintf("Add achievements for %s", describeEntry(w)))
		}
	}

	n := len(res.Bullets)
	if n == 0 {
		res.Score = ContentFloor
		res.Impact = ImpactFloor
		res.Issues = append([]string{"Add measurable achievements to your experience section"}, res.Issues...)
		return res
	}

	res.Score = int(math.Round(float64(total) / float64(n)))

	metricDensity := float64(res.WithMetric) / float64(n)
	multiDensity := float64(res.MultiMetric) / float64(n)
	res.Impact = min(100, int(math.Round(ImpactFloor+(100-ImpactFloor)*metricDensity+multiMetricBonus*multiDensity)))

	if missing := n - res.WithVerb; missing > 0 {
		res.Issues = append(res.Issues, fmt.Sprintf("Start %d %s with a strong action verb", missing, plural(missing, "bullet", "bullets")))
	}
	if len(res.Weak) > 0 {
		res.Issues = append(res.Issues, fmt.Sprintf("Rewrite %d weak %s with neither an action verb nor a metric", len(res.Weak), plural(len(res.Weak), "bullet", "bullets")))
	}
	if missing := n - res.WithMetric; missing > 0 {
		res.ImpactIssues = append(res.ImpactIssues, fmt.Sprintf("Quantify %d %s with numbers, percentages, or amounts", missing, plural(missing, "bullet", "bullets")))
	}
	return res
}

// appendWeakOpener records the first word of text when the lexicon lists
// it as a weak verb. Each opener is kept once, in first-seen order.
func appendWeakOpener(lex *Lexicon, openers []string, text string) []string {
	fields := strings.Fields(strings.TrimLeft(text, bulletPrefix))
	if len(fields) == 0 || !lex.IsWeakVerb(fields[0]) {
		return openers
	}
	opener := strings.Trim(fields[0], ".,;:")
	for _, o := range openers {
		if strings.EqualFold(o, opener) {
			return openers
		}
	}
	return append(openers, opener)
}

func describeEntry(w types.WorkEntry) string {
	switch {
	case w.Title != "" && w.Company != "":
		return w.Title + " at " + w.Company
	case w.Title != "":
		return w.Title
	default:
		return w.Company
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
