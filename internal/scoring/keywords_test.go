package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"atsscorer/internal/types"
)

func TestExtractKeywords(t *testing.T) {
	lex := DefaultLexicon()

	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{
			name: "single words keep first casing",
			text: "Python SQL AWS",
			want: []string{"Python", "SQL", "AWS"},
		},
		{
			name: "stop words and filler dropped",
			text: "We are looking for strong experience with Terraform",
			want: []string{"Terraform"},
		},
		{
			name: "duplicates collapse case-insensitively and rank by frequency",
			text: "aws AWS Go aws",
			want: []string{"aws", "Go"},
		},
		{
			name: "recurring phrases become candidates",
			text: "Machine learning pipelines.\nMachine learning research.",
			want: []string{"Machine", "Machine learning", "learning", "pipelines", "research"},
		},
		{
			name: "phrases do not cross punctuation",
			text: "Go, Rust. Go, Rust.",
			want: []string{"Go", "Rust"},
		},
		{
			name: "technical tokens survive",
			text: "C++ and C# with Node.js, CI/CD on k8s",
			want: []string{"C++", "C#", "Node.js", "CI/CD", "k8s"},
		},
		{
			name: "numbers ignored, capital single letters kept",
			text: "5 years of R and C",
			want: []string{"R", "C"},
		},
		{
			name:  "limit applies after ranking",
			text:  "Go, Go, Go, Rust, Rust, Kafka",
			limit: 2,
			want:  []string{"Go", "Rust"},
		},
		{
			name: "empty",
			text: "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywords(lex, tt.text, tt.limit))
		})
	}
}

func TestExtractKeywordsCap(t *testing.T) {
	text := ""
	for i := 0; i < 60; i++ {
		text += "tool" + string(rune('a'+i%26)) + string(rune('a'+i/26)) + " "
	}
	got := ExtractKeywords(DefaultLexicon(), text, MaxDerivedKeywords)
	assert.Len(t, got, MaxDerivedKeywords)
}

func TestContainsKeyword(t *testing.T) {
	tests := []struct {
		corpus string
		kw     string
		want   bool
	}{
		{"python and sql", "sql", true},
		{"mysql", "sql", false},
		{"sql.", "sql", true},
		{"c++ developer", "c", false},
		{"c++ developer", "c++", true},
		{"node.js services", "node.js", true},
		{"machine learning", "machine learning", true},
		{"machine\nlearning", "machine learning", false},
		{"go-to person, golang", "go", true},
		{"golang", "go", false},
		{"", "go", false},
		{"go", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.corpus+"/"+tt.kw, func(t *testing.T) {
			assert.Equal(t, tt.want, containsKeyword(tt.corpus, tt.kw))
		})
	}
}

func TestEvaluateKeywords(t *testing.T) {
	lex := DefaultLexicon()

	t.Run("no target is neutral", func(t *testing.T) {
		res := evaluateKeywords(lex, "anything", "   ", nil)
		assert.Equal(t, NeutralKeywordScore, res.Score)
		assert.True(t, res.NoTarget)
		assert.Empty(t, res.Matched)
		assert.NotNil(t, res.Missing)
	})

	t.Run("job description of only stop words is neutral", func(t *testing.T) {
		res := evaluateKeywords(lex, "anything", "we are looking for the ideal candidate", nil)
		assert.True(t, res.NoTarget)
	})

	t.Run("explicit keywords win over the job description", func(t *testing.T) {
		res := evaluateKeywords(lex, "kafka", "Python SQL AWS", []string{"Kafka", "kafka", "Redis"})
		assert.Equal(t, []string{"Kafka"}, res.Matched)
		assert.Equal(t, []string{"Redis"}, res.Missing)
		assert.Equal(t, 50, res.Score)
	})

	t.Run("missing keyword issue lists at most five", func(t *testing.T) {
		res := evaluateKeywords(lex, "", "", []string{"a1", "b2", "c3", "d4", "e5", "f6"})
		assert.Equal(t, 0, res.Score)
		assert.Equal(t, []string{"Add missing keywords: a1, b2, c3, d4, e5"}, res.Issues)
	})
}

func TestResumeCorpusSeparatesFields(t *testing.T) {
	doc := types.ResumeDocument{
		Summary: "Built  APIs",
		Skills:  []string{"Machine", "Learning"},
		Projects: []types.TextFields{
			{"name": "Search", "description": "Elasticsearch cluster"},
		},
	}
	corpus := resumeCorpus(doc)
	assert.Equal(t, "built apis\nmachine\nlearning\nelasticsearch cluster\nsearch", corpus)
	assert.False(t, containsKeyword(corpus, "machine learning"))
}
