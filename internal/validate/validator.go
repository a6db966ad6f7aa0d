package validate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/teachload/internal/model"
	"github.com/ppiankov/teachload/internal/schema"
)

// Validator routes candidate rows to typed records or to review.
type Validator struct {
	schema *schema.Schema
	logger *slog.Logger
}

// NewValidator creates a validator bound to a schema.
func NewValidator(s *schema.Schema, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{schema: s, logger: logger}
}

// Outcome holds exactly one of Record or Problem.
type Outcome struct {
	Record  *model.Record
	Problem *model.ProblematicRow
}

// Check validates a single row. The shape gate runs before the index gate;
// numeric fields that fail to parse are coerced to zero and noted on the record.
func (v *Validator) Check(row model.CandidateRow) Outcome {
	if !row.ShapeOK || len(row.Tokens) != v.schema.Len() {
		return Outcome{Problem: &model.ProblematicRow{
			Reason: model.ReasonShape,
			Page:   row.Page,
			Raw:    row.Raw,
			Tokens: row.Tokens,
			Detail: fmt.Sprintf("got %d fields, want %d", row.Width, v.schema.Len()),
		}}
	}

	if idx := ParseIndex(row.Tokens[0]); !idx.OK {
		return Outcome{Problem: &model.ProblematicRow{
			Reason: model.ReasonIndex,
			Page:   row.Page,
			Raw:    row.Raw,
			Tokens: row.Tokens,
			Detail: fmt.Sprintf("%s is not an integer: %q", v.schema.IndexField(), strings.TrimSpace(row.Tokens[0])),
			Fields: v.mapping(row.Tokens),
		}}
	}

	values := make([]model.Value, len(row.Tokens))
	var coercions []model.Coercion
	for i, tok := range row.Tokens {
		if !v.schema.IsNumeric(i) {
			values[i] = model.String(strings.TrimSpace(tok))
			continue
		}
		n := ParseNumber(tok)
		if !n.OK && !n.Empty {
			coercions = append(coercions, model.Coercion{Field: v.schema.Field(i), Raw: tok})
			v.logger.Debug("numeric coercion", "field", v.schema.Field(i), "raw", tok, "page", row.Page)
		}
		values[i] = model.Number(n.Value)
	}

	rec, err := model.NewRecord(v.schema, values)
	if err != nil {
		// Unreachable after the shape gate.
		return Outcome{Problem: &model.ProblematicRow{
			Reason: model.ReasonShape,
			Page:   row.Page,
			Raw:    row.Raw,
			Tokens: row.Tokens,
			Detail: err.Error(),
		}}
	}
	rec.Page = row.Page
	rec.Coercions = coercions
	return Outcome{Record: &rec}
}

// Validate checks every row, preserving input order in both outputs.
func (v *Validator) Validate(rows []model.CandidateRow) ([]model.Record, []model.ProblematicRow) {
	records := make([]model.Record, 0, len(rows))
	var problems []model.ProblematicRow

	for _, row := range rows {
		out := v.Check(row)
		if out.Problem != nil {
			problems = append(problems, *out.Problem)
			continue
		}
		records = append(records, *out.Record)
	}

	return records, problems
}

func (v *Validator) mapping(tokens []string) map[string]string {
	m := make(map[string]string, len(tokens))
	for i, tok := range tokens {
		m[v.schema.Field(i)] = tok
	}
	return m
}
