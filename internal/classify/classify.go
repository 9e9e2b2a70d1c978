// Package classify derives a normalized name, project code, stabilization code
// and category from the free-text names used by the project-tracking exports.
//
// All functions are pure and safe for concurrent use.
package classify

import (
	"regexp"
	"strings"
	"unicode"

	"tablero/internal"
)

// space mirrors isSpace below so trimming and hyphen collapsing agree.
const space = `[\s\v\x1c-\x1f\x{85}\p{Z}]`

var (
	reHyphen            = regexp.MustCompile(space + `*-` + space + `*`)
	reStabilizationCode = regexp.MustCompile(`^E\p{Nd}+`)
	reProjectCode       = regexp.MustCompile(`[PMANI]\p{Nd}+/\p{Nd}+`)
)

var categoryByInitial = map[byte]internal.Category{
	'E': internal.CategoryStabilization,
	'I': internal.CategoryIncident,
	'P': internal.CategoryProject,
	'M': internal.CategoryMaintenance,
	'A': internal.CategoryAudit,
	'N': internal.CategoryRegulatory,
}

// Normalize strips leading whitespace and collapses every hyphen together with
// its surrounding whitespace into a bare "-". Non-text values are returned as is.
func Normalize(v internal.Value) internal.Value {
	if !v.IsText() {
		return v
	}
	return internal.Text(reHyphen.ReplaceAllString(trimLeft(v.Raw), "-"))
}

// ExtractCodes returns the project and stabilization codes found in a name.
//
// The stabilization code is only recognized at the very start of the name. The
// project code is searched in whatever follows it, so both are resolved in one pass.
func ExtractCodes(v internal.Value) (project, stabilization *string) {
	if !v.IsText() {
		return nil, nil
	}

	name := trimLeft(v.Raw)
	remainder := name
	if loc := reStabilizationCode.FindStringIndex(name); loc != nil {
		code := name[:loc[1]]
		stabilization = &code
		remainder = trimLeft(strings.TrimLeft(name[loc[1]:], "- "))
	}

	if m := reProjectCode.FindString(remainder); m != "" {
		project = &m
	}
	return project, stabilization
}

// Classify maps the first non-space character of a name to its category.
func Classify(v internal.Value) internal.Category {
	if !v.IsText() {
		return internal.CategoryOther
	}
	name := trimLeft(v.Raw)
	if name == "" {
		return internal.CategoryOther
	}
	if c, ok := categoryByInitial[name[0]]; ok {
		return c
	}
	return internal.CategoryOther
}

// Name runs the full classification for one row's name cell.
func Name(v internal.Value) internal.ClassifiedName {
	normalized := Normalize(v)
	project, stabilization := ExtractCodes(normalized)
	return internal.ClassifiedName{
		Name:              normalized,
		ProjectCode:       project,
		StabilizationCode: stabilization,
		Category:          Classify(normalized),
	}
}

func trimLeft(s string) string {
	return strings.TrimLeftFunc(s, isSpace)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
