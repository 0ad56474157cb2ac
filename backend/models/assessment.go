package models

// Assessment is a fixed chapter quiz shipped with the application.
// Assessments are read from the embedded catalog and never persisted.
type Assessment struct {
	ID        string     `yaml:"id" json:"id"`
	Title     string     `yaml:"title" json:"title"`
	Subtitle  string     `yaml:"subtitle" json:"subtitle"`
	LessonID  string     `yaml:"lesson_id" json:"lesson_id"`
	ChapterID string     `yaml:"chapter_id" json:"chapter_id"`
	Unlocks   string     `yaml:"unlocks" json:"unlocks"` // chapter opened by a passing attempt
	Questions []Question `yaml:"questions" json:"-"`
}

type Question struct {
	Prompt  string   `yaml:"prompt" json:"prompt"`
	Options []string `yaml:"options" json:"options"`
	Correct string   `yaml:"correct" json:"-"`
}

// HasOption reports whether option is one of the question's choices.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}
