package analysis

// Headings are the section headings the model is instructed to produce, in
// order. The parser tags sections by matching against these names, so the
// analysis prompt and the parser must agree on them literally.
var Headings = []string{
	"Session Summary",
	"Thinking Shown",
	"Key Insights",
	"Follow-up Ideas",
	"Reflective Summary",
	"Learner Reflections",
}

// Section tags used for presentation grouping.
const (
	TagSummary            = "summary"
	TagThinking           = "thinking"
	TagInsights           = "insights"
	TagFollowUp           = "follow-up"
	TagReflective         = "reflective"
	TagLearnerReflections = "learner-reflections"
)

// Labels inside the learner reflections section that get strong emphasis.
const (
	LabelContentLearning = "Content Learning:"
	LabelProcessLearning = "Process Learning:"
)

// tagTable is checked in order; the first case-insensitive substring match wins.
var tagTable = []struct {
	needle string
	tag    string
}{
	{"session summary", TagSummary},
	{"thinking", TagThinking},
	{"insight", TagInsights},
	{"follow-up", TagFollowUp},
	{"follow up", TagFollowUp},
	{"reflective summary", TagReflective},
	{"learner reflection", TagLearnerReflections},
}

// UnavailableText is stored as the analysis when the gateway fails.
const UnavailableText = "Analysis unavailable: the session analysis could not be generated. " +
	"Your transcript and reflections are still included in the export."
