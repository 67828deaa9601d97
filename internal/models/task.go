package models

// ContentType category of marketing content a task asks for.
type ContentType string

const (
	ContentBlogIntro    ContentType = "blog_intro"
	ContentLinkedIn     ContentType = "linkedin"
	ContentAnnouncement ContentType = "announcement"
)

// Prompting strategies. Structured prompts are self-contained;
// example-based prompts are conditioned on the experiment's style samples.
const (
	StrategyStructured   = "structured"
	StrategyExampleBased = "example_based"
)

// Strategies lists all known prompting strategies.
var Strategies = []string{StrategyStructured, StrategyExampleBased}

// KnownStrategy reports whether s is a defined prompting strategy.
func KnownStrategy(s string) bool {
	for _, known := range Strategies {
		if s == known {
			return true
		}
	}
	return false
}

// Task is one immutable content brief from the static catalog.
type Task struct {
	ID                    string      `gorm:"primarykey;size:8" json:"id"`
	ContentType           ContentType `gorm:"size:30" json:"content_type"`
	Title                 string      `gorm:"size:255" json:"title"`
	Description           string      `gorm:"type:text" json:"description"`
	StructuredPrompt      string      `gorm:"type:text" json:"structured_prompt"`
	ExamplePromptTemplate string      `gorm:"type:text" json:"example_prompt_template"`
}

// TableName sets the table name.
func (Task) TableName() string {
	return "tasks"
}
