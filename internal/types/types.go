package types

import "time"

// PersonalInfo holds the candidate's contact block
type PersonalInfo struct {
	FullName    string `json:"fullName" yaml:"fullName"`
	Email       string `json:"email" yaml:"email" validate:"omitempty,email"`
	Phone       string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	LinkedInURL string `json:"linkedInUrl,omitempty" yaml:"linkedInUrl,omitempty" validate:"omitempty,url"`
	WebsiteURL  string `json:"websiteUrl,omitempty" yaml:"websiteUrl,omitempty" validate:"omitempty,url"`
}

// WorkEntry is one position in the work history
type WorkEntry struct {
	Title        string   `json:"title" yaml:"title"`
	Company      string   `json:"company" yaml:"company"`
	Location     string   `json:"location,omitempty" yaml:"location,omitempty"`
	StartDate    string   `json:"startDate" yaml:"startDate" validate:"omitempty,yearmonth"`
	EndDate      string   `json:"endDate,omitempty" yaml:"endDate,omitempty" validate:"omitempty,yearmonth"`
	IsCurrent    bool     `json:"isCurrent,omitempty" yaml:"isCurrent,omitempty"`
	Achievements []string `json:"achievements" yaml:"achievements"`
}

// EducationEntry is one degree or program
type EducationEntry struct {
	Institution  string `json:"institution" yaml:"institution"`
	Degree       string `json:"degree" yaml:"degree"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty" yaml:"fieldOfStudy,omitempty"`
	StartDate    string `json:"startDate" yaml:"startDate" validate:"omitempty,yearmonth"`
	EndDate      string `json:"endDate,omitempty" yaml:"endDate,omitempty" validate:"omitempty,yearmonth"`
}

// TextFields is a loosely structured bag of text, used for projects,
// certifications and custom sections.
type TextFields map[string]string

// ResumeDocument is the canonical structured résumé
type ResumeDocument struct {
	PersonalInfo         PersonalInfo     `json:"personalInfo" yaml:"personalInfo"`
	Summary              string           `json:"summary" yaml:"summary" validate:"max=500"`
	WorkHistory          []WorkEntry      `json:"workHistory" yaml:"workHistory" validate:"dive"`
	Education            []EducationEntry `json:"education" yaml:"education" validate:"dive"`
	Skills               []string         `json:"skills" yaml:"skills"`
	Projects             []TextFields     `json:"projects,omitempty" yaml:"projects,omitempty"`
	Certifications       []TextFields     `json:"certifications,omitempty" yaml:"certifications,omitempty"`
	CustomSections       []TextFields     `json:"customSections,omitempty" yaml:"customSections,omitempty"`
	TargetKeywords       []string         `json:"targetKeywords,omitempty" yaml:"targetKeywords,omitempty"`
	TargetJobDescription string           `json:"targetJobDescription,omitempty" yaml:"targetJobDescription,omitempty"`
}

// Breakdown holds the four sub-scores, each 0-100
type Breakdown struct {
	Keywords   int `json:"keywords"`
	Formatting int `json:"formatting"`
	Content    int `json:"content"`
	Impact     int `json:"impact"`
}

// MetricInsight explains one breakdown entry to the user
type MetricInsight struct {
	Label           string   `json:"label"`
	Explanation     string   `json:"explanation"`
	WhatsMissing    []string `json:"whatsMissing"`
	Recommendations []string `json:"recommendations"`
	Examples        []string `json:"examples"`
}

// ScoreDetails carries the evaluator evidence behind the breakdown
type ScoreDetails struct {
	MatchedKeywords      []string `json:"matchedKeywords"`
	MissingKeywords      []string `json:"missingKeywords"`
	NoKeywordTarget      bool     `json:"noKeywordTarget"`
	WeakBullets          []string `json:"weakBullets"`
	StrongBulletExamples []string `json:"strongBulletExamples"`
	BulletCount          int      `json:"bulletCount"`
}

// ScoreReport is the result of scoring one document. It is never persisted.
type ScoreReport struct {
	OverallScore   int                      `json:"overallScore"`
	Breakdown      Breakdown                `json:"breakdown"`
	Issues         []string                 `json:"issues"`
	Suggestions    []string                 `json:"suggestions"`
	MetricInsights map[string]MetricInsight `json:"metricInsights"`
	Details        ScoreDetails             `json:"details"`
}

// BulletAssessment is the classification of a single achievement bullet
type BulletAssessment struct {
	Text          string `json:"text"`
	HasActionVerb bool   `json:"hasActionVerb"`
	HasMetric     bool   `json:"hasMetric"`
	MetricCount   int    `json:"metricCount"`
	Score         int    `json:"score"`
	Weak          bool   `json:"weak"`
}

// ScoreRequest is the input for scoring a document. Validate checks the
// envelope only; content problems in Resume are reported by the scorer.
type ScoreRequest struct {
	Resume         ResumeDocument `json:"resume" validate:"-"`
	JobDescription string         `json:"jobDescription,omitempty"`
	TargetKeywords []string       `json:"targetKeywords,omitempty"`
	UseAI          bool           `json:"useAI,omitempty"`
}

// BatchScoreRequest scores several documents against their own targets
type BatchScoreRequest struct {
	Items []ScoreRequest `json:"items" validate:"min=1,max=50,dive"`
}

// BatchScoreResponse holds reports in request order
type BatchScoreResponse struct {
	Results []ScoreReport `json:"results"`
}

// KeywordExtractRequest is the input for keyword extraction
type KeywordExtractRequest struct {
	JobDescription string `json:"jobDescription" validate:"required"`
	UseAI          bool   `json:"useAI,omitempty"`
}

// Keyword sources reported by extraction
const (
	KeywordSourceHeuristic = "heuristic"
	KeywordSourceAI        = "ai"
)

// KeywordExtractResponse is the output of keyword extraction
type KeywordExtractResponse struct {
	Keywords []string `json:"keywords"`
	Source   string   `json:"source"`
}

// ImproveBulletRequest asks the AI collaborator to rewrite one bullet
type ImproveBulletRequest struct {
	Bullet         string `json:"bullet" validate:"required"`
	JobDescription string `json:"jobDescription,omitempty"`
}

// ImproveBulletResponse pairs the rewrite with both assessments
type ImproveBulletResponse struct {
	Original  BulletAssessment `json:"original"`
	Improved  BulletAssessment `json:"improved"`
	Rationale string           `json:"rationale,omitempty"`
}

// StoredResume is a persisted document with its ownership metadata
type StoredResume struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"ownerId"`
	Document  ResumeDocument `json:"document"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ResumeSummary is the list view of a stored document
type ResumeSummary struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BatchEntry is one document of a directory batch run
type BatchEntry struct {
	Source   string       `json:"source"`
	FullName string       `json:"fullName,omitempty"`
	Report   *ScoreReport `json:"report,omitempty"`
	Error    string       `json:"error,omitempty"`
}
