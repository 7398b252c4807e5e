package post

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/artwall/core/internal/models"
)

// NoContentPlaceholder is shown when cleaning leaves nothing displayable.
const NoContentPlaceholder = "[No content available.]"

// Normalize backfills display fields on a raw stored record: legacy score
// aliases are copied into the current field names and the subcategory is
// derived when absent. Pure and idempotent.
func Normalize(p *models.Post) {
	if p.EvaluationNum == 0 && p.Evaluation != 0 {
		p.EvaluationNum = p.Evaluation
	}
	if p.RatingNum == 0 && p.Rating != 0 {
		p.RatingNum = p.Rating
	}
	if p.Subcategory == "" {
		p.Subcategory = Subcategory(*p)
	}
}

// Subcategory resolves the display subcategory: the stored subtype verbatim
// when present, else "Poetry" for writing. Most writing records in the live
// database predate the subtype field and are in fact poems; this is a crude
// stand-in, not a classification.
func Subcategory(p models.Post) string {
	if p.Subtype != "" {
		return p.Subtype
	}
	if p.Medium == models.MediumWriting {
		return "Poetry"
	}
	return ""
}

// DateString composes the display date from whichever of year/month/day are
// present: "YYYY-MM-DD", "YYYY-MM", "YYYY", or "".
func DateString(p models.Post) string {
	switch {
	case p.Year != 0 && p.Month != 0 && p.Day != 0:
		return fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, p.Day)
	case p.Year != 0 && p.Month != 0:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	case p.Year != 0:
		return fmt.Sprintf("%04d", p.Year)
	}
	return ""
}

var (
	brTagRe  = regexp.MustCompile(`(?i)<br\s*/?>`)
	anyTagRe = regexp.MustCompile(`<[^>]+>`)
)

// CleanContent prepares already-sanitized markup for modal display: line
// breaks become newlines, remaining tags are stripped, then the first line
// (a duplicate of the title) is always dropped and the last two lines
// (date/location metadata) are dropped when more than two remain. This is a
// line-position heuristic, not a parse of the trailing metadata.
func CleanContent(content string) string {
	if content == "" {
		return NoContentPlaceholder
	}

	content = brTagRe.ReplaceAllString(content, "\n")
	content = anyTagRe.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	lines = trimBlankEdges(lines)
	if len(lines) == 0 {
		return ""
	}

	lines = lines[1:]
	if len(lines) > 2 {
		lines = lines[:len(lines)-2]
	}
	lines = trimBlankEdges(lines)

	cleaned := strings.Join(lines, "\n")
	if strings.TrimSpace(cleaned) == "" {
		return NoContentPlaceholder
	}
	return cleaned
}

func trimBlankEdges(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
