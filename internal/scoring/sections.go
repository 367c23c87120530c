package scoring

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"atsscorer/internal/types"
)

// Section point values. They sum to 100.
const (
	pointsFullName    = 10
	pointsEmail       = 10
	pointsPhone       = 5
	pointsFirstJob    = 20
	pointsPerExtraJob = 5
	maxWorkPoints     = 30
	pointsEducation   = 15
	maxSkillPoints    = 20
	pointsSummary     = 10

	// FormattingFloor keeps an empty document above zero.
	FormattingFloor = 10

	SkillsSweetSpotMin = 15
	SkillsSweetSpotMax = 40
	maxSummaryRunes    = 500
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SectionResult is the section completeness evaluator's output
type SectionResult struct {
	Score   int
	Issues  []string
	Missing []string
}

// skillPoints rewards the 15-40 band. Short lists earn partially, long lists
// lose a point per five extra skills.
func skillPoints(n int) int {
	switch {
	case n <= 0:
		return 0
	case n < SkillsSweetSpotMin:
		return 5 + (maxSkillPoints-8)*(n-1)/(SkillsSweetSpotMin-2)
	case n <= SkillsSweetSpotMax:
		return maxSkillPoints
	default:
		return maxSkillPoints - min(8, (n-SkillsSweetSpotMax+4)/5)
	}
}

func workPoints(n int) int {
	if n <= 0 {
		return 0
	}
	return min(maxWorkPoints, pointsFirstJob+pointsPerExtraJob*(n-1))
}

func evaluateSections(doc types.ResumeDocument) SectionResult {
	res := SectionResult{Issues: []string{}, Missing: []string{}}
	score := 0
	missing := func(label, issue string) {
		res.Missing = append(res.Missing, label)
		res.Issues = append(res.Issues, issue)
	}

	info := doc.PersonalInfo
	if strings.TrimSpace(info.FullName) != "" {
		score += pointsFullName
	} else {
		missing("full name", "Add your full name")
	}

	switch email := strings.TrimSpace(info.Email); {
	case email == "":
		missing("email", "Add an email address")
	case !emailPattern.MatchString(email):
		missing("valid email", "Use a valid email address")
	default:
		score += pointsEmail
	}

	if strings.TrimSpace(info.Phone) != "" {
		score += pointsPhone
	} else {
		missing("phone", "Add a phone number")
	}

	if len(doc.WorkHistory) > 0 {
		score += workPoints(len(doc.WorkHistory))
	} else {
		missing("work experience", "Add work experience")
	}

	if len(doc.Education) > 0 {
		score += pointsEducation
	} else {
		missing("education", "Add education")
	}

	skills := len(types.UniqueFold(doc.Skills))
	score += skillPoints(skills)
	switch {
	case skills == 0:
		missing("skills", "Add skills")
	case skills < SkillsSweetSpotMin:
		res.Missing = append(res.Missing, fmt.Sprintf("%d more skills", SkillsSweetSpotMin-skills))
		res.Issues = append(res.Issues, fmt.Sprintf("Add more skills (aim for %d-%d relevant skills)", SkillsSweetSpotMin, SkillsSweetSpotMax))
	case skills > SkillsSweetSpotMax:
		res.Issues = append(res.Issues, fmt.Sprintf("Trim your skills list to the %d most relevant", SkillsSweetSpotMax))
	}

	summary := strings.TrimSpace(doc.Summary)
	switch {
	case summary == "":
		missing("summary", "Add a professional summary")
	case utf8.RuneCountInString(summary) > maxSummaryRunes:
		score += pointsSummary
		res.Issues = append(res.Issues, fmt.Sprintf("Shorten your summary to %d characters", maxSummaryRunes))
	default:
		score += pointsSummary
	}

	for _, w := range doc.WorkHistory {
		if (w.IsCurrent && w.EndDate != "") || !types.DateRangeValid(w.StartDate, w.EndDate) {
			res.Issues = append(res.Issues, fmt.Sprintf("Fix the date range for %s", describeEntry(w)))
		}
	}

	res.Score = max(FormattingFloor, min(100, score))
	return res
}
