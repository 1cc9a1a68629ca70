package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/tests"
)

func Test_reportApi_empty(t *testing.T) {
	srv, _ := setup(t)
	zeroes := make([]student.SubjectAverage, student.TotalSubjects)
	for i := range zeroes {
		zeroes[i].Disciplina = student.SubjectName(i)
	}

	runHTTPTests(t, srv, []httpTest{
		{name: "class average", path: "/api/relatorios/media-turma", wantData: []byte(`{"media_turma": 0}`)},
		{
			name:     "subject averages",
			path:     "/api/relatorios/medias-por-disciplina",
			wantData: marchallObj(t, map[string]interface{}{"medias_por_disciplina": zeroes}),
		},
		{name: "above average", path: "/api/relatorios/estudantes-acima-da-media", wantData: []byte(`{"estudantes": []}`)},
		{name: "low attendance", path: "/api/relatorios/estudantes-com-baixa-frequencia", wantData: []byte(`{"estudantes": []}`)},
		{
			name: "report",
			path: "/api/relatorios",
			wantData: marchallObj(t, student.Report{
				Estudantes:                   []student.ReportStudent{},
				MediasPorDisciplina:          zeroes,
				EstudantesAcimaDaMedia:       []student.StudentAverage{},
				EstudantesComBaixaFrequencia: []student.StudentAttendance{},
			}),
		},
	})
}

func Test_reportApi(t *testing.T) {
	srv, repo := setup(t)
	now := time.Now()
	ana := testutil.CreateStudent(t, repo, "Ana", 80, []float64{7, 8, 6, 9, 10}, now)
	bruno := testutil.CreateStudent(t, repo, "Bruno", 60, []float64{5, 5, 5, 5, 5}, now.Add(time.Second))
	carla := testutil.CreateStudent(t, repo, "Carla", 90, []float64{9, 9, 9, 9, 9}, now.Add(2*time.Second))

	subjects := []student.SubjectAverage{
		{Disciplina: "Disciplina 1", Media: 7},
		{Disciplina: "Disciplina 2", Media: 7.33},
		{Disciplina: "Disciplina 3", Media: 6.67},
		{Disciplina: "Disciplina 4", Media: 7.67},
		{Disciplina: "Disciplina 5", Media: 8},
	}
	above := []student.StudentAverage{
		{ID: ana.ID, Nome: "Ana", Media: 8},
		{ID: carla.ID, Nome: "Carla", Media: 9},
	}
	low := []student.StudentAttendance{{ID: bruno.ID, Nome: "Bruno", Frequencia: 60}}

	runHTTPTests(t, srv, []httpTest{
		{name: "class average", path: "/api/relatorios/media-turma", wantData: []byte(`{"media_turma": 7.33}`)},
		{
			name:     "subject averages",
			path:     "/api/relatorios/medias-por-disciplina",
			wantData: marchallObj(t, map[string]interface{}{"medias_por_disciplina": subjects}),
		},
		{
			name:     "above average",
			path:     "/api/relatorios/estudantes-acima-da-media",
			wantData: marchallObj(t, map[string]interface{}{"estudantes": above}),
		},
		{
			name:     "low attendance",
			path:     "/api/relatorios/estudantes-com-baixa-frequencia",
			wantData: marchallObj(t, map[string]interface{}{"estudantes": low}),
		},
		{
			name: "low attendance with limit",
			path: "/api/relatorios/estudantes-com-baixa-frequencia?limite=85",
			wantData: marchallObj(t, map[string]interface{}{"estudantes": []student.StudentAttendance{
				{ID: ana.ID, Nome: "Ana", Frequencia: 80},
				{ID: bruno.ID, Nome: "Bruno", Frequencia: 60},
			}}),
		},
		{
			name:     "invalid limit",
			path:     "/api/relatorios/estudantes-com-baixa-frequencia?limite=muito",
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name: "report",
			path: "/api/relatorios",
			wantData: marchallObj(t, student.Report{
				TotalEstudantes: 3,
				Estudantes: []student.ReportStudent{
					{ID: ana.ID, Nome: "Ana", Notas: ana.Notas, Frequencia: 80, Media: 8},
					{ID: bruno.ID, Nome: "Bruno", Notas: bruno.Notas, Frequencia: 60, Media: 5},
					{ID: carla.ID, Nome: "Carla", Notas: carla.Notas, Frequencia: 90, Media: 9},
				},
				MediaTurma:                   7.33,
				MediasPorDisciplina:          subjects,
				EstudantesAcimaDaMedia:       above,
				EstudantesComBaixaFrequencia: low,
			}),
		},
	})
}
