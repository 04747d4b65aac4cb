package feedback

import "strings"

// FormSnapshot is the complete set of field values read once per submit.
// It is bound from either the HTML form or the JSON API and never mutated afterwards.
type FormSnapshot struct {
	Like    string `form:"like" json:"like"`
	Dislike string `form:"dislike" json:"dislike"`
	Rating  int    `form:"rating" json:"rating" validate:"min=1,max=10"`

	Modify            bool   `form:"modify" json:"modify"`
	// change_color and text_position only matter with modify set; NewModificationRequest checks them.
	ChangeColor       string `form:"change_color" json:"change_color"`
	NewText           string `form:"new_text" json:"new_text"`
	TextPosition      string `form:"text_position" json:"text_position"`
	ChangeDescription string `form:"change_description" json:"change_description"`

	UseAIEdit bool   `form:"use_openai" json:"use_openai"`
	AIAPIKey  string `form:"openai_api_key" json:"openai_api_key"`
	AIPrompt  string `form:"openai_prompt" json:"openai_prompt"`

	Like2    string `form:"like2" json:"like2"`
	Dislike2 string `form:"dislike2" json:"dislike2"`
	Rating2  int    `form:"rating2" json:"rating2" validate:"omitempty,min=1,max=10"`
}

// Normalized returns a copy whose free-text fields use LF line breaks only.
// Browsers submit textarea line breaks as CRLF.
func (s FormSnapshot) Normalized() FormSnapshot {
	s.Like = NormalizeLineEndings(s.Like)
	s.Dislike = NormalizeLineEndings(s.Dislike)
	s.NewText = NormalizeLineEndings(s.NewText)
	s.ChangeDescription = NormalizeLineEndings(s.ChangeDescription)
	s.AIPrompt = NormalizeLineEndings(s.AIPrompt)
	s.Like2 = NormalizeLineEndings(s.Like2)
	s.Dislike2 = NormalizeLineEndings(s.Dislike2)
	return s
}

// NormalizeLineEndings turns CRLF and lone CR into LF.
func NormalizeLineEndings(v string) string {
	if !strings.ContainsRune(v, '\r') {
		return v
	}
	return strings.ReplaceAll(strings.ReplaceAll(v, "\r\n", "\n"), "\r", "\n")
}
