package knowledge

import (
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout   = "Jan 2006"
	presentToken = "Present"
	noneListed   = "- none listed"
)

// Compiler renders normalized records into the knowledge context text.
type Compiler struct {
	owner string
}

func NewCompiler(owner string) *Compiler {
	return &Compiler{owner: strings.TrimSpace(owner)}
}

// Compile is pure: the same records always produce the same bytes. Sections
// are emitted in a fixed order and records keep their input order.
func (c *Compiler) Compile(r Records) string {
	var b strings.Builder

	if c.owner != "" {
		b.WriteString("Database information about " + c.owner + ":\n")
	} else {
		b.WriteString("Database information:\n")
	}

	section(&b, "Profile", len(r.Profile), func() {
		for _, p := range r.Profile {
			b.WriteString("- " + p.Label + ": " + p.Value + "\n")
		}
	})

	section(&b, "Skills", len(r.Skills), func() {
		for _, s := range r.Skills {
			b.WriteString(skillLine(s) + "\n")
		}
	})

	section(&b, "Work Experience", len(r.Experience), func() {
		for i, e := range r.Experience {
			if i > 0 {
				b.WriteString("\n")
			}
			writeExperience(&b, e)
		}
	})

	section(&b, "Education", len(r.Education), func() {
		for i, e := range r.Education {
			if i > 0 {
				b.WriteString("\n")
			}
			writeEducation(&b, e)
		}
	})

	section(&b, "Certifications", len(r.Certificates), func() {
		for i, cert := range r.Certificates {
			if i > 0 {
				b.WriteString("\n")
			}
			writeCertificate(&b, cert)
		}
	})

	section(&b, "Projects", len(r.Projects), func() {
		for i, p := range r.Projects {
			if i > 0 {
				b.WriteString("\n")
			}
			writeProject(&b, p)
		}
	})

	return b.String()
}

func section(b *strings.Builder, label string, n int, body func()) {
	b.WriteString("\n" + label + ":\n")
	if n == 0 {
		b.WriteString(noneListed + "\n")
		return
	}
	body()
}

func skillLine(s Skill) string {
	var parts []string
	if s.Proficiency != nil {
		parts = append(parts, strconv.Itoa(*s.Proficiency)+"%")
	}
	if s.YearsOfExperience != nil {
		parts = append(parts, formatYears(*s.YearsOfExperience))
	}

	line := "- " + s.Name
	if len(parts) > 0 {
		line += " (" + strings.Join(parts, ", ") + ")"
	}
	if s.Category != "" {
		line += " [" + s.Category + "]"
	}
	return line
}

func formatYears(y float64) string {
	n := strconv.FormatFloat(y, 'f', -1, 64)
	if y == 1 {
		return n + " year"
	}
	return n + " years"
}

func writeExperience(b *strings.Builder, e Experience) {
	head := e.Company
	if e.Position != "" {
		head = e.Position + " at " + e.Company
	}
	b.WriteString("• " + head + "\n")
	detail(b, dateRange(e.StartDate, e.EndDate))
	detail(b, e.Location)
	detail(b, e.Description)
	if len(e.Technologies) > 0 {
		detail(b, "Tech stack: "+strings.Join(e.Technologies, ", "))
	}
	if len(e.Achievements) > 0 {
		detail(b, "Achievements: "+strings.Join(e.Achievements, "; "))
	}
}

func writeEducation(b *strings.Builder, e Education) {
	var head string
	switch {
	case e.Degree != "" && e.Field != "":
		head = e.Degree + " in " + e.Field
	case e.Degree != "":
		head = e.Degree
	case e.Field != "":
		head = e.Field
	}
	if head == "" {
		b.WriteString("• " + e.Institution + "\n")
	} else {
		b.WriteString("• " + head + "\n")
		detail(b, e.Institution)
	}
	detail(b, dateRange(e.StartDate, e.EndDate))
	detail(b, e.Location)
	detail(b, e.Description)
	if len(e.Achievements) > 0 {
		detail(b, "Achievements: "+strings.Join(e.Achievements, "; "))
	}
}

func writeCertificate(b *strings.Builder, c Certificate) {
	b.WriteString("• " + c.Title + "\n")
	if c.Issuer != "" {
		detail(b, "From: "+c.Issuer)
	}
	if c.Date != nil {
		detail(b, "Date: "+formatDate(*c.Date))
	}
	detail(b, c.Description)
	if len(c.Skills) > 0 {
		detail(b, "Skills: "+strings.Join(c.Skills, ", "))
	}
	if c.VerificationURL != "" {
		detail(b, "Verify: "+c.VerificationURL)
	}
}

func writeProject(b *strings.Builder, p Project) {
	b.WriteString("• " + p.Title + "\n")
	detail(b, p.Description)
	if len(p.Technologies) > 0 {
		detail(b, "Tech stack: "+strings.Join(p.Technologies, ", "))
	}
	if p.LiveURL != "" {
		detail(b, "Demo: "+p.LiveURL)
	}
	if p.GithubURL != "" {
		detail(b, "Code: "+p.GithubURL)
	}
}

// detail writes an indented line, skipping empty values entirely.
func detail(b *strings.Builder, v string) {
	if v == "" {
		return
	}
	b.WriteString("  " + v + "\n")
}

// dateRange renders "Jan 2022 - Present" style ranges. An absent end date is
// an ongoing entry; an absent start date leaves only the end bound.
func dateRange(start, end *time.Time) string {
	switch {
	case start == nil && end == nil:
		return ""
	case start == nil:
		return "Until " + formatDate(*end)
	case end == nil:
		return formatDate(*start) + " - " + presentToken
	default:
		return formatDate(*start) + " - " + formatDate(*end)
	}
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
