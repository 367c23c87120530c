package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"atsscorer/internal/types"
)

func TestAssessBullet(t *testing.T) {
	lex := DefaultLexicon()

	tests := []struct {
		name       string
		text       string
		wantVerb   bool
		wantMetric bool
		wantScore  int
		wantWeak   bool
	}{
		{"verb and metric", "Led a team of 5 engineers, reducing deployment time by 40%", true, true, 100, false},
		{"weak verb, no metric", "Managed a team", false, false, 0, true},
		{"metric only", "Responsible for 3 services", false, true, 60, false},
		{"verb only", "Designed the onboarding flow", true, false, 40, false},
		{"currency counts as metric", "Saved $ on hosting", true, true, 100, false},
		{"magnitude word counts as metric", "Grew revenue by millions", true, true, 100, false},
		{"bullet marker stripped", "• Built internal tooling", true, false, 40, false},
		{"verb with trailing punctuation", "Shipped, then iterated", true, false, 40, false},
		{"empty", "   ", false, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessBullet(lex, tt.text)
			assert.Equal(t, tt.wantVerb, got.HasActionVerb, "HasActionVerb")
			assert.Equal(t, tt.wantMetric, got.HasMetric, "HasMetric")
			assert.Equal(t, tt.wantScore, got.Score, "Score")
			assert.Equal(t, tt.wantWeak, got.Weak, "Weak")
		})
	}
}

func TestAssessBulletKeepsText(t *testing.T) {
	got := AssessBullet(DefaultLexicon(), "  Managed a team ")
	assert.Equal(t, "Managed a team", got.Text)
}

func TestEvaluateContent(t *testing.T) {
	lex := DefaultLexicon()

	t.Run("no bullets uses floors", func(t *testing.T) {
		res := evaluateContent(lex, types.ResumeDocument{})
		assert.Equal(t, ContentFloor, res.Score)
		assert.Equal(t, ImpactFloor, res.Impact)
		assert.Equal(t, []string{"Add measurable achievements to your experience section"}, res.Issues)
		assert.Empty(t, res.ImpactIssues)
	})

	t.Run("entries without bullets are flagged", func(t *testing.T) {
		doc := types.ResumeDocument{WorkHistory: []types.WorkEntry{
			{Title: "Engineer", Company: "Acme"},
			{Title: "Intern", Achievements: []string{"Built a CLI used by 40 engineers"}},
		}}
		res := evaluateContent(lex, doc)
		assert.Equal(t, 100, res.Score)
		assert.Equal(t, []string{"Add achievements for Engineer at Acme"}, res.Issues)
	})

	t.Run("mean of bullet scores and metric density", func(t *testing.T) {
		doc := types.ResumeDocument{WorkHistory: []types.WorkEntry{{
			Title: "Engineer",
			Achievements: []string{
				"Led a team of 5 engineers, reducing deployment time by 40%",
				"Managed a team",
				"Designed the onboarding flow",
				"",
			},
		}}}
		res := evaluateContent(lex, doc)

		assert.Len(t, res.Bullets, 3)
		// (100 + 0 + 40) / 3
		assert.Equal(t, 47, res.Score)
		// 20 + 80/3 + 10/3
		assert.Equal(t, 50, res.Impact)
		assert.Equal(t, []string{"Managed a team"}, res.Weak)
		assert.Equal(t, []string{"Managed"}, res.WeakOpeners)
		assert.Equal(t, []string{
			"Start 1 bullet with a strong action verb",
			"Rewrite 1 weak bullet with neither an action verb nor a metric",
		}, res.Issues)
		assert.Equal(t, []string{"Quantify 2 bullets with numbers, percentages, or amounts"}, res.ImpactIssues)
	})

	t.Run("strong examples are capped", func(t *testing.T) {
		var bullets []string
		for i := 0; i < 5; i++ {
			bullets = append(bullets, "Shipped 3 releases")
		}
		res := evaluateContent(lex, types.ResumeDocument{WorkHistory: []types.WorkEntry{{Achievements: bullets}}})
		assert.Len(t, res.Strong, maxStrongExamples)
	})
}
