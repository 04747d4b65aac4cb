package feedback

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	MinRating = 1
	MaxRating = 10
)

// Column names of the persisted store.
const (
	ColumnID                = "id"
	ColumnSubmittedAt       = "submitted_at"
	ColumnLike              = "like"
	ColumnDislike           = "dislike"
	ColumnRating            = "rating"
	ColumnModify            = "modify"
	ColumnChangeColor       = "change_color"
	ColumnNewText           = "new_text"
	ColumnTextPosition      = "text_position"
	ColumnChangeDescription = "change_description"
	ColumnUseAIEdit         = "use_openai"
	ColumnAIAPIKey          = "openai_api_key"
	ColumnAIPrompt          = "openai_prompt"
	ColumnLike2             = "like2"
	ColumnDislike2          = "dislike2"
	ColumnRating2           = "rating2"
)

var ErrRatingOutOfRange = errors.New("rating out of range")

// Field is one named scalar of a flattened record.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SecondRound is the feedback given on the modified image.
type SecondRound struct {
	Like    string
	Dislike string
	Rating  int
}

// Record is one submission, ready to be flattened into a store row.
type Record struct {
	ID           string
	SubmittedAt  time.Time
	Like         string
	Dislike      string
	Rating       int
	Modify       bool
	Modification ModificationRequest
	SecondRound  Optional[SecondRound]
	Variant      Variant
}

// BuildRecord assembles a record with a freshly generated id. It does not persist anything.
func BuildRecord(snapshot FormSnapshot, mod ModificationRequest, variant Variant, ids IDGenerator, now time.Time) (*Record, error) {
	if err := checkRating(ColumnRating, snapshot.Rating); err != nil {
		return nil, err
	}

	secondRound := None[SecondRound]()
	if variant.CollectSecondRound && snapshot.Modify && hasSecondRound(snapshot) {
		if err := checkRating(ColumnRating2, snapshot.Rating2); err != nil {
			return nil, err
		}
		secondRound = Some(SecondRound{
			Like:    snapshot.Like2,
			Dislike: snapshot.Dislike2,
			Rating:  snapshot.Rating2,
		})
	}

	// a request built for another snapshot must not leak modify fields into this record
	if !snapshot.Modify {
		mod = ModificationRequest{}
	}

	id, err := ids.NewID()
	if err != nil {
		return nil, err
	}

	return &Record{
		ID:           id,
		SubmittedAt:  now.UTC(),
		Like:         snapshot.Like,
		Dislike:      snapshot.Dislike,
		Rating:       snapshot.Rating,
		Modify:       snapshot.Modify,
		Modification: mod,
		SecondRound:  secondRound,
		Variant:      variant,
	}, nil
}

func checkRating(name string, rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: %s=%d (must be %d-%d)", ErrRatingOutOfRange, name, rating, MinRating, MaxRating)
	}
	return nil
}

func hasSecondRound(s FormSnapshot) bool {
	return s.Like2 != "" || s.Dislike2 != "" || s.Rating2 != 0
}

// Fields flattens the record. The returned column set depends only on the variant.
func (r *Record) Fields() []Field {
	mod := r.Modification

	submittedAt := ""
	if !r.SubmittedAt.IsZero() {
		submittedAt = r.SubmittedAt.Format(time.RFC3339)
	}
	background := ""
	if c, ok := mod.Background.Get(); ok {
		background = FormatHexColor(c)
	}

	fields := []Field{
		{ColumnID, r.ID},
		{ColumnSubmittedAt, submittedAt},
		{ColumnLike, r.Like},
		{ColumnDislike, r.Dislike},
		{ColumnRating, strconv.Itoa(r.Rating)},
		{ColumnModify, strconv.FormatBool(r.Modify)},
		{ColumnChangeColor, background},
		{ColumnNewText, mod.Text.OrElse("")},
		{ColumnTextPosition, mod.positionValue(r.Modify)},
	}

	if r.Variant.CollectDescription {
		fields = append(fields, Field{ColumnChangeDescription, mod.Description.OrElse("")})
	}

	if r.Variant.OfferAIEdit {
		ai, requested := mod.AIEdit.Get()
		fields = append(fields,
			Field{ColumnUseAIEdit, strconv.FormatBool(requested)},
			Field{ColumnAIAPIKey, PresenceIndicator(ai.Credential)},
			Field{ColumnAIPrompt, ai.Prompt.OrElse("")},
		)
	}

	if r.Variant.CollectSecondRound {
		like2, dislike2, rating2 := "", "", ""
		if round, ok := r.SecondRound.Get(); ok {
			like2, dislike2, rating2 = round.Like, round.Dislike, strconv.Itoa(round.Rating)
		}
		fields = append(fields,
			Field{ColumnLike2, like2},
			Field{ColumnDislike2, dislike2},
			Field{ColumnRating2, rating2},
		)
	}

	return fields
}

// Columns returns the column names a record of the given variant flattens to.
func Columns(variant Variant) []string {
	fields := (&Record{Variant: variant}).Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
