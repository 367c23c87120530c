package scoring

import (
	"fmt"
	"strings"

	"atsscorer/internal/types"
)

// One remediation per issue category.
const (
	suggestionFormatting = "Complete the core sections: contact details, work experience, education, a summary and 15-40 relevant skills."
	suggestionContent    = "Open every achievement with a strong action verb such as Led, Built or Optimized."
	suggestionKeywords   = "Mirror the job description's exact terminology in your summary, skills and achievements."
	suggestionNoTarget   = "Paste the target job description or list target keywords so keyword coverage can be measured."
	suggestionImpact     = "Quantify results with numbers, percentages, currency amounts or scale (thousand, million)."
)

var exampleBullets = []string{
	"Led a team of 5 engineers, reducing deployment time by 40%",
	"Built a billing service that processed $2M in monthly transactions",
	"Optimized SQL queries, cutting report generation from 3 minutes to 20 seconds",
}

func keywordInsight(r KeywordResult) types.MetricInsight {
	b := newInsight("Keyword Match")
	switch {
	case r.NoTarget:
		b.explanation = fmt.Sprintf("No job description or target keywords were provided, so a neutral score of %d is used.", NeutralKeywordScore)
		b.recommend("Paste the job posting you are applying to.")
		b.recommend("Or list the keywords the employer emphasizes.")
	default:
		total := len(r.Matched) + len(r.Missing)
		b.explanation = fmt.Sprintf("Your résumé contains %d of %d target keywords.", len(r.Matched), total)
		b.missing = append(b.missing, r.Missing...)
		if len(r.Missing) > 0 {
			b.recommend("Add the missing keywords where they truthfully describe your experience.")
			b.recommend("Use the job posting's exact wording; ATS filters rarely match synonyms.")
		}
		for _, kw := range r.Matched {
			if len(b.examples) == maxStrongExamples {
				break
			}
			b.examples = append(b.examples, kw)
		}
	}
	return b.build()
}

func formattingInsight(r SectionResult) types.MetricInsight {
	b := newInsight("Sections & Formatting")
	b.explanation = fmt.Sprintf("Section completeness scored %d out of 100.", r.Score)
	b.missing = append(b.missing, r.Missing...)
	if len(r.Missing) > 0 {
		b.recommend("Fill in the missing sections: " + strings.Join(r.Missing, ", ") + ".")
	}
	b.recommend(fmt.Sprintf("Keep the skills list between %d and %d entries.", SkillsSweetSpotMin, SkillsSweetSpotMax))
	return b.build()
}

func contentInsight(r ContentResult) types.MetricInsight {
	b := newInsight("Content Quality")
	n := len(r.Bullets)
	if n == 0 {
		b.explanation = "No achievement bullets were found in your work history."
		b.missing = append(b.missing, "achievement bullets")
		b.recommend("Add 3-5 achievements per role.")
		b.examples = append(b.examples, exampleBullets...)
		return b.build()
	}

	b.explanation = fmt.Sprintf("%d of %d bullets start with a strong action verb; %d contain a metric.", r.WithVerb, n, r.WithMetric)
	b.missing = append(b.missing, r.Weak...)
	if r.WithVerb < n {
		if len(r.WeakOpeners) > 0 {
			b.recommend(fmt.Sprintf("Replace weak openers (%s) with verbs such as Led, Delivered or Automated.", strings.Join(r.WeakOpeners, ", ")))
		} else {
			b.recommend("Replace openers like \"Responsible for\" or \"Helped\" with verbs such as Led, Delivered or Automated.")
		}
	}
	if len(r.Strong) > 0 {
		b.examples = append(b.examples, r.Strong...)
	} else {
		b.examples = append(b.examples, exampleBullets...)
	}
	return b.build()
}

func impactInsight(r ContentResult) types.MetricInsight {
	b := newInsight("Impact")
	n := len(r.Bullets)
	if n == 0 {
		b.explanation = "Impact is measured from quantified achievements, and none were found."
		b.recommend("Describe results with numbers: team size, revenue, time saved, users served.")
		b.examples = append(b.examples, exampleBullets...)
		return b.build()
	}

	b.explanation = fmt.Sprintf("%d of %d bullets quantify their results.", r.WithMetric, n)
	for _, a := range r.Bullets {
		if !a.HasMetric {
			b.missing = append(b.missing, a.Text)
		}
	}
	if r.WithMetric < n {
		b.recommend("Add a number, percentage or amount to each unquantified bullet.")
	}
	if r.MultiMetric < n {
		b.recommend("Pair scope with outcome, e.g. team size and the improvement it delivered.")
	}
	b.examples = append(b.examples, exampleBullets[0])
	return b.build()
}

type insightBuilder struct {
	label       string
	explanation string
	missing     []string
	recs        []string
	examples    []string
}

func newInsight(label string) *insightBuilder {
	return &insightBuilder{label: label}
}

func (b *insightBuilder) recommend(rec string) {
	b.recs = append(b.recs, rec)
}

func (b *insightBuilder) build() types.MetricInsight {
	return types.MetricInsight{
		Label:           b.label,
		Explanation:     b.explanation,
		WhatsMissing:    nonNil(b.missing),
		Recommendations: nonNil(b.recs),
		Examples:        nonNil(b.examples),
	}
}
