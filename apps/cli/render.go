package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/student"
)

func (cli *commandLine) table(write func(w *tabwriter.Writer)) {
	cli.outMu.Lock()
	defer cli.outMu.Unlock()
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	write(w)
	_ = w.Flush()
}

func (cli *commandLine) renderStudents(students []student.Student) {
	if len(students) == 0 {
		cli.printf("Nenhum estudante cadastrado.\n")
		return
	}
	cli.table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNOME\tFREQUÊNCIA\tNOTAS\tMÉDIA")
		for _, st := range students {
			fmt.Fprintf(w, "%s\t%s\t%s%% (%s)\t%s\t%s (%s)\n",
				st.ID,
				st.Nome,
				core.FormatNumber(st.Frequencia), grading.AttendanceTier(st.Frequencia).Label(),
				core.JoinNumbers(st.Notas),
				grading.Average(st.Notas), grading.AverageTier(st.Notas).Label(),
			)
		}
	})
}

func (cli *commandLine) renderReport(rep *student.Report) {
	if rep == nil {
		cli.printf("Relatório indisponível.\n")
		return
	}
	cli.table(func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Total de estudantes\t%d\n", rep.TotalEstudantes)
		fmt.Fprintf(w, "Média da turma\t%s (%s)\n", grading.FormatAverage(rep.MediaTurma), grading.GradeTier(rep.MediaTurma).Label())
		fmt.Fprintf(w, "Acima da média\t%d\n", len(rep.EstudantesAcimaDaMedia))
		fmt.Fprintf(w, "Frequência baixa\t%d\n", len(rep.EstudantesComBaixaFrequencia))
	})
	if len(rep.EstudantesComBaixaFrequencia) > 0 {
		names := make([]string, 0, len(rep.EstudantesComBaixaFrequencia))
		for _, st := range rep.EstudantesComBaixaFrequencia {
			names = append(names, st.Nome)
		}
		cli.printf("Atenção: %s\n", strings.Join(names, ", "))
	}
}

func (cli *commandLine) renderSubjects(subjects []student.SubjectAverage) {
	if len(subjects) == 0 {
		return
	}
	cli.printf("\n")
	cli.table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "DISCIPLINA\tMÉDIA")
		for _, s := range subjects {
			fmt.Fprintf(w, "%s\t%s (%s)\n", s.Disciplina, grading.FormatAverage(s.Media), grading.GradeTier(s.Media).Label())
		}
	})
}

func (cli *commandLine) renderDraft(d student.Draft, editingID string) {
	title := "Novo estudante"
	if editingID != "" {
		title = "Editando " + editingID
	}
	cli.printf("%s\n  nome: %s\n  frequencia: %s\n  notas: %s\n", title, d.Nome, d.Frequencia, strings.Join(d.Notas[:], " | "))
}
