package types

import "strings"

// Scorable reports whether the document has the fields required for scoring
// to be meaningful. Unscorable documents are still scored, just low.
func (d *ResumeDocument) Scorable() bool {
	return strings.TrimSpace(d.PersonalInfo.FullName) != "" &&
		strings.TrimSpace(d.PersonalInfo.Email) != ""
}

// Normalize trims text fields, drops empty bullets and collapses skills and
// target keywords case-insensitively, keeping the first spelling.
func (d *ResumeDocument) Normalize() {
	p := &d.PersonalInfo
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Location = strings.TrimSpace(p.Location)
	p.Title = strings.TrimSpace(p.Title)
	d.Summary = strings.TrimSpace(d.Summary)

	for i := range d.WorkHistory {
		w := &d.WorkHistory[i]
		w.Title = strings.TrimSpace(w.Title)
		w.Company = strings.TrimSpace(w.Company)
		kept := make([]string, 0, len(w.Achievements))
		for _, a := range w.Achievements {
			if a = strings.TrimSpace(a); a != "" {
				kept = append(kept, a)
			}
		}
		w.Achievements = kept
	}

	d.Skills = UniqueFold(d.Skills)
	d.TargetKeywords = UniqueFold(d.TargetKeywords)
}

// UniqueFold returns the trimmed, non-empty values of in with case-insensitive
// duplicates removed. Order and first spelling are preserved.
func UniqueFold(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
