package student

import (
	"strconv"

	"github.com/trezcool/escola/core/grading"
)

// SubjectName is the display name of the subject at index i (0 based).
func SubjectName(i int) string {
	return "Disciplina " + strconv.Itoa(i+1)
}

// ClassAverage is the mean of every student's own mean, rounded to 2 decimals (0 without students).
func ClassAverage(students []Student) float64 {
	if len(students) == 0 {
		return 0
	}
	var total float64
	for _, st := range students {
		total += st.Media()
	}
	return grading.Round2(total / float64(len(students)))
}

// SubjectAverages returns one average per subject, rounded to 2 decimals.
// Every subject averages 0 when there are no students.
func SubjectAverages(students []Student) []SubjectAverage {
	avgs := make([]SubjectAverage, TotalSubjects)
	for i := range avgs {
		avgs[i].Disciplina = SubjectName(i)
		if len(students) == 0 {
			continue
		}
		var total float64
		for _, st := range students {
			if i < len(st.Notas) {
				total += st.Notas[i]
			}
		}
		avgs[i].Media = grading.Round2(total / float64(len(students)))
	}
	return avgs
}

// AboveAverage lists the students whose mean is strictly greater than the class average.
func AboveAverage(students []Student) []StudentAverage {
	classAvg := ClassAverage(students)
	above := make([]StudentAverage, 0)
	for _, st := range students {
		if media := st.Media(); media > classAvg {
			above = append(above, StudentAverage{ID: st.ID, Nome: st.Nome, Media: grading.Round2(media)})
		}
	}
	return above
}

// LowAttendance lists the students whose attendance is strictly below limit.
func LowAttendance(students []Student, limit float64) []StudentAttendance {
	low := make([]StudentAttendance, 0)
	for _, st := range students {
		if st.Frequencia < limit {
			low = append(low, StudentAttendance{ID: st.ID, Nome: st.Nome, Frequencia: st.Frequencia})
		}
	}
	return low
}

// BuildReport computes the class wide Report, low attendance at DefaultAttendanceLimit.
func BuildReport(students []Student) Report {
	withMedia := make([]ReportStudent, 0, len(students))
	for _, st := range students {
		withMedia = append(withMedia, ReportStudent{
			ID:         st.ID,
			Nome:       st.Nome,
			Notas:      st.Notas,
			Frequencia: st.Frequencia,
			Media:      grading.Round2(st.Media()),
		})
	}
	return Report{
		TotalEstudantes:              len(students),
		Estudantes:                   withMedia,
		MediaTurma:                   ClassAverage(students),
		MediasPorDisciplina:          SubjectAverages(students),
		EstudantesAcimaDaMedia:       AboveAverage(students),
		EstudantesComBaixaFrequencia: LowAttendance(students, DefaultAttendanceLimit),
	}
}
