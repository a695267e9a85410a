package knowledge

import (
	"strings"

	"github.com/samber/lo"
)

// Normalize trims and filters raw records into the strict shape the compiler
// expects: hidden records and records missing their identifying field are
// dropped, numeric fields are clamped, and blank list items are removed.
func Normalize(in Records) Records {
	var out Records

	for _, p := range in.Profile {
		p.Label = strings.TrimSpace(p.Label)
		p.Value = strings.TrimSpace(p.Value)
		if p.Label == "" || p.Value == "" || hidden(p.Visible) {
			continue
		}
		out.Profile = append(out.Profile, p)
	}

	for _, s := range in.Skills {
		s.Name = strings.TrimSpace(s.Name)
		s.Category = strings.TrimSpace(s.Category)
		if s.Name == "" || hidden(s.Visible) {
			continue
		}
		if s.Proficiency != nil {
			s.Proficiency = IntPtr(min(max(*s.Proficiency, 0), 100))
		}
		if s.YearsOfExperience != nil && *s.YearsOfExperience < 0 {
			s.YearsOfExperience = nil
		}
		out.Skills = append(out.Skills, s)
	}

	for _, e := range in.Experience {
		e.Position = strings.TrimSpace(e.Position)
		e.Title = strings.TrimSpace(e.Title)
		if e.Position == "" {
			e.Position = e.Title
		}
		e.Title = ""
		e.Company = strings.TrimSpace(e.Company)
		e.Location = strings.TrimSpace(e.Location)
		e.Description = strings.TrimSpace(e.Description)
		if e.Company == "" || hidden(e.Visible) {
			continue
		}
		e.Technologies = cleanList(e.Technologies)
		e.Achievements = cleanList(e.Achievements)
		out.Experience = append(out.Experience, e)
	}

	for _, e := range in.Education {
		e.Degree = strings.TrimSpace(e.Degree)
		e.Field = strings.TrimSpace(e.Field)
		e.Institution = strings.TrimSpace(e.Institution)
		e.Location = strings.TrimSpace(e.Location)
		e.Description = strings.TrimSpace(e.Description)
		if e.Institution == "" || hidden(e.Visible) {
			continue
		}
		e.Achievements = cleanList(e.Achievements)
		out.Education = append(out.Education, e)
	}

	for _, c := range in.Certificates {
		c.Title = strings.TrimSpace(c.Title)
		c.Issuer = strings.TrimSpace(c.Issuer)
		c.Description = strings.TrimSpace(c.Description)
		c.VerificationURL = strings.TrimSpace(c.VerificationURL)
		if c.Title == "" || hidden(c.Visible) {
			continue
		}
		c.Skills = cleanList(c.Skills)
		out.Certificates = append(out.Certificates, c)
	}

	for _, p := range in.Projects {
		p.Title = strings.TrimSpace(p.Title)
		p.Description = strings.TrimSpace(p.Description)
		p.LiveURL = strings.TrimSpace(p.LiveURL)
		p.GithubURL = strings.TrimSpace(p.GithubURL)
		if p.Title == "" || hidden(p.Visible) {
			continue
		}
		p.Technologies = cleanList(p.Technologies)
		out.Projects = append(out.Projects, p)
	}

	return out
}

func hidden(visible *bool) bool {
	return visible != nil && !*visible
}

func cleanList(items []string) []string {
	out := lo.Compact(lo.Map(items, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
	if len(out) == 0 {
		return nil
	}
	return out
}
