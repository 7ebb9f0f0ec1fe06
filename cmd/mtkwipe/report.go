package main

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/hexsmith/mtkwipe/cmd/mtkwipe/internal/styles"
	"github.com/hexsmith/mtkwipe/pkg/doctor"
)

// renderChecks formats doctor results as an aligned PASS/WARN/FAIL table.
// Multi-line details (e.g. the udev drift diff) are indented under their
// check.
func renderChecks(checks []doctor.Check) string {
	nameWidth := 0
	for _, c := range checks {
		if w := runewidth.StringWidth(c.Name); w > nameWidth {
			nameWidth = w
		}
	}

	var sb strings.Builder
	for _, c := range checks {
		sb.WriteString("  ")
		sb.WriteString(statusBadge(c.Status))
		sb.WriteString("  ")
		sb.WriteString(runewidth.FillRight(c.Name, nameWidth))

		detail := strings.TrimSpace(c.Detail)
		switch {
		case detail == "":
		case strings.Contains(detail, "\n"):
			sb.WriteString("\n")
			for _, line := range strings.Split(detail, "\n") {
				sb.WriteString("        ")
				sb.WriteString(styles.DimStyle.Render(line))
				sb.WriteString("\n")
			}
			continue
		default:
			sb.WriteString("  ")
			sb.WriteString(styles.DimStyle.Render(detail))
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

func statusBadge(s doctor.Status) string {
	switch s {
	case doctor.Pass:
		return styles.SuccessStyle.Render("PASS")
	case doctor.Warn:
		return styles.WarnStyle.Render("WARN")
	default:
		return styles.ErrorStyle.Render("FAIL")
	}
}
