package student

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/grading"
)

const (
	// TotalSubjects is the number of grades every student carries, one per subject.
	TotalSubjects = 5

	DefaultAttendanceLimit = grading.HighAttendanceMin
)

type Student struct {
	ID         string    `json:"id"`
	Nome       string    `json:"nome"`
	Notas      []float64 `json:"notas"`
	Frequencia float64   `json:"frequencia"`
	CreatedAt  time.Time `json:"-"` // UTC
	UpdatedAt  time.Time `json:"-"` // UTC
}

// Media is the mean of the student's grades (0 without grades).
func (s Student) Media() float64 {
	mean, _ := grading.Mean(s.Notas)
	return mean
}

// Input is what may be provided to create or replace a Student.
type Input struct {
	Nome       string    `json:"nome" validate:"required,notblank,max=100"`
	Notas      []float64 `json:"notas" validate:"required,len=5,dive,gte=0,lte=10"`
	Frequencia float64   `json:"frequencia" validate:"gte=0,lte=100"`
}

func (in *Input) Validate(validate *validator.Validate, translator ut.Translator) error {
	in.Nome = core.CleanString(in.Nome)
	if err := validate.Struct(in); err != nil {
		return core.TranslateValidationErrors(err, translator)
	}
	return nil
}

type (
	// StudentAverage is a student listed with their grade average.
	StudentAverage struct {
		ID    string  `json:"id"`
		Nome  string  `json:"nome"`
		Media float64 `json:"media"`
	}

	// StudentAttendance is a student listed with their attendance.
	StudentAttendance struct {
		ID         string  `json:"id"`
		Nome       string  `json:"nome"`
		Frequencia float64 `json:"frequencia"`
	}

	// ReportStudent is a full student record plus their grade average.
	ReportStudent struct {
		ID         string    `json:"id"`
		Nome       string    `json:"nome"`
		Notas      []float64 `json:"notas"`
		Frequencia float64   `json:"frequencia"`
		Media      float64   `json:"media"`
	}

	SubjectAverage struct {
		Disciplina string  `json:"disciplina"`
		Media      float64 `json:"media"`
	}

	// Report is the class wide aggregate.
	Report struct {
		TotalEstudantes              int                 `json:"total_estudantes"`
		Estudantes                   []ReportStudent     `json:"estudantes"`
		MediaTurma                   float64             `json:"media_turma"`
		MediasPorDisciplina          []SubjectAverage    `json:"medias_por_disciplina"`
		EstudantesAcimaDaMedia       []StudentAverage    `json:"estudantes_acima_da_media"`
		EstudantesComBaixaFrequencia []StudentAttendance `json:"estudantes_com_baixa_frequencia"`
	}
)
