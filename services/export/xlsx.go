package exportsvc

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/student"
)

const (
	SheetStudents = "Estudantes"
	SheetReport   = "Relatório"
	SheetSubjects = "Disciplinas"
)

var studentHeader = []interface{}{"Nome", "Frequência", "Nota 1", "Nota 2", "Nota 3", "Nota 4", "Nota 5", "Média", "Situação"}

// ImportRow is a spreadsheet line (1 based) read as a student draft.
type ImportRow struct {
	Line  int
	Draft student.Draft
}

// Export writes students, the report and the subject averages as an XLSX workbook.
func Export(w io.Writer, students []student.Student, rep student.Report, subjects []student.SubjectAverage) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetStudents); err != nil {
		return errors.Wrap(err, "naming students sheet")
	}
	for _, name := range []string{SheetReport, SheetSubjects} {
		if _, err := f.NewSheet(name); err != nil {
			return errors.Wrapf(err, "creating sheet %s", name)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	if err := writeStudents(f, bold, students); err != nil {
		return err
	}
	if err := writeReport(f, bold, rep); err != nil {
		return err
	}
	if err := writeSubjects(f, bold, subjects); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return errors.Wrapf(f.SetSheetRow(sheet, cell, &values), "writing %s row %d", sheet, row)
}

func writeHeader(f *excelize.File, sheet string, style int, values []interface{}) error {
	if err := writeRow(f, sheet, 1, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(values), 1)
	if err != nil {
		return err
	}
	return errors.Wrap(f.SetCellStyle(sheet, "A1", last, style), "styling header")
}

func writeStudents(f *excelize.File, style int, students []student.Student) error {
	if err := writeHeader(f, SheetStudents, style, studentHeader); err != nil {
		return err
	}
	for i, st := range students {
		values := make([]interface{}, 0, len(studentHeader))
		values = append(values, st.Nome, st.Frequencia)
		for j := 0; j < student.TotalSubjects; j++ {
			if j < len(st.Notas) {
				values = append(values, st.Notas[j])
			} else {
				values = append(values, "")
			}
		}
		values = append(values, grading.Average(st.Notas), grading.AttendanceTier(st.Frequencia).Label())
		if err := writeRow(f, SheetStudents, i+2, values); err != nil {
			return err
		}
	}
	return errors.Wrap(f.SetColWidth(SheetStudents, "A", "A", 30), "sizing name column")
}

func writeReport(f *excelize.File, style int, rep student.Report) error {
	if err := writeHeader(f, SheetReport, style, []interface{}{"Indicador", "Valor"}); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Total de estudantes", rep.TotalEstudantes},
		{"Média da turma", rep.MediaTurma},
		{"Desempenho da turma", grading.GradeTier(rep.MediaTurma).Label()},
		{"Estudantes acima da média", len(rep.EstudantesAcimaDaMedia)},
		{"Estudantes com baixa frequência", len(rep.EstudantesComBaixaFrequencia)},
	}
	for i, row := range rows {
		if err := writeRow(f, SheetReport, i+2, row); err != nil {
			return err
		}
	}
	return errors.Wrap(f.SetColWidth(SheetReport, "A", "A", 34), "sizing indicator column")
}

func writeSubjects(f *excelize.File, style int, subjects []student.SubjectAverage) error {
	if err := writeHeader(f, SheetSubjects, style, []interface{}{"Disciplina", "Média", "Desempenho"}); err != nil {
		return err
	}
	for i, subj := range subjects {
		row := []interface{}{subj.Disciplina, subj.Media, grading.GradeTier(subj.Media).Label()}
		if err := writeRow(f, SheetSubjects, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// ReadStudents reads the first sheet of an XLSX workbook: a header row, then
// nome, frequencia, nota1..nota5 per line. Blank lines are skipped.
func ReadStudents(r io.Reader) ([]ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", sheet)
	}

	imported := make([]ImportRow, 0, len(rows))
	for i, row := range rows {
		if i == 0 || isBlank(row) {
			continue // header
		}
		var d student.Draft
		d.Nome = cell(row, 0)
		d.Frequencia = cell(row, 1)
		for j := range d.Notas {
			d.Notas[j] = cell(row, 2+j)
		}
		imported = append(imported, ImportRow{Line: i + 1, Draft: d})
	}
	return imported, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Filename suggests an export file name for the given date (yyyy-mm-dd).
func Filename(date string) string {
	return fmt.Sprintf("estudantes-%s.xlsx", date)
}
