package dashboard

import (
	"testing"

	"github.com/trezcool/escola/core/student"
)

func TestReduce_statusGeneration(t *testing.T) {
	s := reduce(State{}, statusSet{msg: "a"})
	staleGen := s.statusGen
	s = reduce(s, statusSet{msg: "b"})

	if got := reduce(s, statusCleared{gen: staleGen}); got.Status != "b" {
		t.Errorf("stale clear blanked the status: %q", got.Status)
	}
	if got := reduce(s, statusCleared{gen: s.statusGen}); got.Status != "" {
		t.Errorf("current clear kept the status: %q", got.Status)
	}
}

func TestReduce_doesNotMutate(t *testing.T) {
	orig := State{Draft: student.Draft{Nome: "Ana"}, EditingID: "1"}
	_ = reduce(orig, editCanceled{})
	_ = reduce(orig, gradeChanged{index: 2, value: "9"})
	if orig.EditingID != "1" || orig.Draft.Nome != "Ana" || orig.Draft.Notas[2] != "" {
		t.Errorf("reduce mutated its input: %+v", orig)
	}
}

func TestReduce_submitLifecycle(t *testing.T) {
	s := State{Draft: student.Draft{Nome: "Ana"}, EditingID: "1"}
	s = reduce(s, submitStarted{status: StatusUpdating})
	if !s.Submitting || s.Status != StatusUpdating {
		t.Fatalf("after start: %+v", s)
	}
	s = reduce(s, submitSucceeded{status: StatusUpdated})
	if s.Editing() || s.Draft != (student.Draft{}) || s.Status != StatusUpdated {
		t.Fatalf("after success: %+v", s)
	}
	gen := s.statusGen
	s = reduce(s, submitFinished{})
	if s.Submitting || s.statusGen == gen {
		t.Errorf("after finish: %+v", s)
	}
}

func TestReduce_loaded(t *testing.T) {
	students := []student.Student{{ID: "1", Nome: "Ana", Notas: []float64{6, 7, 8, 5, 9}, Frequencia: 42}}
	s := reduce(State{Status: "erro"}, loaded{
		students: students,
		report:   student.BuildReport(students),
		subjects: student.SubjectAverages(students),
	})
	if len(s.Students) != 1 || s.Report == nil || s.Report.TotalEstudantes != 1 || len(s.SubjectAverages) != 5 {
		t.Errorf("loaded state: %+v", s)
	}
	if s.Status != "erro" {
		t.Errorf("loading changed the status: %q", s.Status)
	}
}
