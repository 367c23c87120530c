package ai

import (
	"fmt"
	"strings"

	"atsscorer/internal/config"
)

// Prompts holds the system instruction and the user template of one operation.
// The user template is a fmt format string.
type Prompts struct {
	System string
	User   string
}

// DefaultExtractPrompts asks for the keywords an ATS would screen for.
var DefaultExtractPrompts = Prompts{
	System: `You are an applicant tracking system analyst. You read job postings and list the
terms a résumé screen would match on: hard skills, tools, platforms, certifications,
methodologies and domain phrases.

Rules:
- Copy each term exactly as the posting spells it.
- Prefer specific terms ("PostgreSQL") over generic ones ("databases").
- Skip soft skills, benefits, locations, company names and filler words.
- Never invent terms that do not appear in the posting.`,

	User: `List at most %d keywords from this job posting, most important first.
Respond with JSON of the form {"keywords": ["..."]}.

JOB POSTING:
%s`,
}

// DefaultImprovePrompts rewrites one achievement bullet.
var DefaultImprovePrompts = Prompts{
	System: `You are a résumé editor. You rewrite a single achievement bullet so an applicant
tracking system and a recruiter both rate it highly.

Rules:
- Start with a strong past-tense action verb.
- Keep every fact from the original. Never invent employers, tools or numbers.
- When the original has no number, use a bracketed placeholder such as [X%] for the
  candidate to fill in.
- One sentence, no trailing period, at most 30 words.`,

	User: `Rewrite this bullet.
Respond with JSON of the form {"improved": "...", "rationale": "..."}.

BULLET:
%s
%s`,
}

// resolvePrompts layers configured prompts over the defaults.
// File content was already folded into cfg by the config loader.
func resolvePrompts(cfg config.PromptConfig, defaults Prompts) Prompts {
	p := defaults
	if strings.TrimSpace(cfg.System) != "" {
		p.System = cfg.System
	}
	if strings.TrimSpace(cfg.User) != "" {
		p.User = cfg.User
	}
	return p
}

func buildExtractPrompt(p Prompts, limit int, jobDescription string) string {
	return fmt.Sprintf(p.User, limit, jobDescription)
}

func buildImprovePrompt(p Prompts, bullet, jobDescription string) string {
	target := ""
	if jobDescription != "" {
		target = "\nTARGET JOB POSTING (use its vocabulary where truthful):\n" + jobDescription
	}
	return fmt.Sprintf(p.User, bullet, target)
}
