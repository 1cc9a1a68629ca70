package student

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
)

// Draft is the editable, string typed mirror of a Student used by forms.
type Draft struct {
	Nome       string
	Frequencia string
	Notas      [TotalSubjects]string
}

// DraftFromStudent copies st into a Draft with numbers rendered for editing.
func DraftFromStudent(st Student) Draft {
	d := Draft{Nome: st.Nome, Frequencia: core.FormatNumber(st.Frequencia)}
	for i := 0; i < TotalSubjects && i < len(st.Notas); i++ {
		d.Notas[i] = core.FormatNumber(st.Notas[i])
	}
	return d
}

// IsEmpty reports whether nothing was typed into the draft.
func (d Draft) IsEmpty() bool {
	if strings.TrimSpace(d.Nome) != "" || strings.TrimSpace(d.Frequencia) != "" {
		return false
	}
	for _, n := range d.Notas {
		if strings.TrimSpace(n) != "" {
			return false
		}
	}
	return true
}

// ParseDraft turns a Draft into a validated Input.
// Numbers accept "," as the decimal separator. Empty, non numeric or out of range values
// yield a *core.ValidationError naming every offending field.
func ParseDraft(d Draft, validate *validator.Validate, translator ut.Translator) (Input, error) {
	in := Input{Nome: d.Nome, Notas: make([]float64, TotalSubjects)}
	var flds []core.FieldError

	freq, err := parseNumber(d.Frequencia)
	if err != nil {
		flds = append(flds, core.FieldError{Field: "frequencia", Error: "frequencia " + err.Error()})
	}
	in.Frequencia = freq

	for i, raw := range d.Notas {
		field := fmt.Sprintf("notas[%d]", i)
		nota, err := parseNumber(raw)
		if err != nil {
			flds = append(flds, core.FieldError{Field: field, Error: field + " " + err.Error()})
		}
		in.Notas[i] = nota
	}

	if len(flds) > 0 {
		return Input{}, core.NewValidationError(nil, flds...)
	}
	if err := in.Validate(validate, translator); err != nil {
		return Input{}, err
	}
	return in, nil
}

var (
	errEmptyNumber   = errors.New("é obrigatório")
	errInvalidNumber = errors.New("deve ser um número")
)

func parseNumber(raw string) (float64, error) {
	raw = strings.ReplaceAll(core.CleanString(raw), ",", ".")
	if raw == "" {
		return 0, errEmptyNumber
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errInvalidNumber
	}
	return f, nil
}
