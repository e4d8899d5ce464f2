package classify

// Template is the structural rendering contract bound to an intent:
// section shape, numbering style, table usage and target answer length.
type Template struct {
	Structure     []string
	SectionsMin   int
	SectionsMax   int
	Numbering     string // "roman" | "arabic" | "phases" | "ranking"
	IncludeTables bool
	TableColumns  []string
	MinWords      int
	MaxWords      int
}

var templates = map[Intent]Template{
	IntentSummary: {
		Structure:   []string{"title", "sections", "bullets", "conclusion"},
		SectionsMin: 3, SectionsMax: 6,
		Numbering: "roman",
		MinWords:  500, MaxWords: 1000,
	},
	IntentObjective: {
		Structure:   []string{"overview", "table", "metrics"},
		SectionsMin: 2, SectionsMax: 4,
		Numbering:     "roman",
		IncludeTables: true,
		MinWords:      400, MaxWords: 800,
	},
	IntentHowTo: {
		Structure:   []string{"numbered_sections", "sub_bullets", "steps"},
		SectionsMin: 5, SectionsMax: 8,
		Numbering: "roman",
		MinWords:  800, MaxWords: 1500,
	},
	IntentPlan: {
		Structure:   []string{"table", "timeline", "phases"},
		SectionsMin: 2, SectionsMax: 4,
		Numbering:     "phases",
		IncludeTables: true,
		TableColumns:  []string{"Task", "Activity", "Timeline", "Basis"},
		MinWords:      600, MaxWords: 1000,
	},
	IntentObstacles: {
		Structure:   []string{"sections", "bullets", "examples"},
		SectionsMin: 3, SectionsMax: 5,
		Numbering: "roman",
		MinWords:  500, MaxWords: 900,
	},
	IntentResults: {
		Structure:   []string{"overview", "metrics", "bullets"},
		SectionsMin: 2, SectionsMax: 4,
		Numbering:     "roman",
		IncludeTables: true,
		MinWords:      400, MaxWords: 800,
	},
	IntentComparison: {
		Structure:   []string{"table", "analysis", "ranking"},
		SectionsMin: 2, SectionsMax: 3,
		Numbering:     "ranking",
		IncludeTables: true,
		TableColumns:  []string{"Unit", "Indicator", "Result", "Notes"},
		MinWords:      500, MaxWords: 900,
	},
	IntentSuggestions: {
		Structure:   []string{"sections", "action_items", "priority"},
		SectionsMin: 3, SectionsMax: 5,
		Numbering: "roman",
		MinWords:  600, MaxWords: 1000,
	},
	IntentImpact: {
		Structure:   []string{"overview", "metrics", "analysis"},
		SectionsMin: 3, SectionsMax: 5,
		Numbering:     "roman",
		IncludeTables: true,
		MinWords:      600, MaxWords: 1000,
	},
	IntentAlternatives: {
		Structure:   []string{"options", "comparison", "recommendation"},
		SectionsMin: 2, SectionsMax: 4,
		Numbering:     "arabic",
		IncludeTables: true,
		MinWords:      700, MaxWords: 1200,
	},
}

// TemplateFor returns the template bound to an intent. Unknown values get
// the summary template so the result is always structurally valid.
func TemplateFor(in Intent) Template {
	if t, ok := templates[in]; ok {
		return t
	}
	return templates[IntentSummary]
}
