package domain

// LanguageMap keys display strings by language code.
type LanguageMap map[string]string

// Statement is a single xAPI statement. Map-valued fields marshal with sorted
// keys, so identical statements always encode to identical bytes.
type Statement struct {
	ID        string   `json:"id,omitempty"`
	Actor     Actor    `json:"actor"`
	Verb      Verb     `json:"verb"`
	Object    Activity `json:"object"`
	Timestamp string   `json:"timestamp"`
	Result    *Result  `json:"result,omitempty"`
	Context   Context  `json:"context"`
}

type Actor struct {
	Name    string   `json:"name"`
	Mbox    string   `json:"mbox,omitempty"`
	Account *Account `json:"account,omitempty"`
}

type Account struct {
	HomePage string `json:"homePage"`
	Name     string `json:"name"`
}

type Verb struct {
	ID      string      `json:"id"`
	Display LanguageMap `json:"display"`
}

// Activity is the object shape shared by statement objects and context activities.
type Activity struct {
	ID         string     `json:"id"`
	Definition Definition `json:"definition"`
}

type Definition struct {
	Type            string         `json:"type"`
	Name            LanguageMap    `json:"name"`
	Description     LanguageMap    `json:"description,omitempty"`
	InteractionType string         `json:"interactionType,omitempty"`
	Extensions      map[string]any `json:"extensions,omitempty"`
}

type Result struct {
	Response   string `json:"response,omitempty"`
	Completion *bool  `json:"completion,omitempty"`
	Score      *Score `json:"score,omitempty"`
}

type Score struct {
	Raw    float64 `json:"raw"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Scaled float64 `json:"scaled"`
}

type Context struct {
	Platform          string            `json:"platform"`
	Language          string            `json:"language"`
	Extensions        map[string]any    `json:"extensions"`
	ContextActivities ContextActivities `json:"contextActivities"`
}

// ContextActivities.Grouping runs from the most general scope to the most specific.
type ContextActivities struct {
	Grouping []Activity `json:"grouping"`
	Category []Activity `json:"category"`
}
