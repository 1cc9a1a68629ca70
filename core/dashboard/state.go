package dashboard

import (
	"github.com/trezcool/escola/core/student"
)

// Field names a text field of the student form.
type Field string

const (
	FieldNome       Field = "nome"
	FieldFrequencia Field = "frequencia"
)

// State is everything the dashboard shows. Values handed out by the Controller must not be modified.
type State struct {
	Students        []student.Student
	Report          *student.Report // nil until first loaded
	SubjectAverages []student.SubjectAverage

	Draft      student.Draft
	EditingID  string
	Status     string
	Submitting bool

	statusGen uint64 // bumped on every status change; guards the clear timer
}

// Editing reports whether a student is being edited.
func (s State) Editing() bool { return s.EditingID != "" }

// Student returns the loaded student with the given id.
func (s State) Student(id string) (student.Student, bool) {
	for _, st := range s.Students {
		if st.ID == id {
			return st, true
		}
	}
	return student.Student{}, false
}

type (
	action interface{ isAction() }

	loaded struct {
		students []student.Student
		report   student.Report
		subjects []student.SubjectAverage
	}
	statusSet     struct{ msg string }
	statusCleared struct{ gen uint64 }
	editBegan     struct{ st student.Student }
	editCanceled  struct{}
	fieldChanged  struct {
		field Field
		value string
	}
	gradeChanged struct {
		index int
		value string
	}
	submitStarted   struct{ status string }
	submitSucceeded struct{ status string }
	submitFinished  struct{}
)

func (loaded) isAction()          {}
func (statusSet) isAction()       {}
func (statusCleared) isAction()   {}
func (editBegan) isAction()       {}
func (editCanceled) isAction()    {}
func (fieldChanged) isAction()    {}
func (gradeChanged) isAction()    {}
func (submitStarted) isAction()   {}
func (submitSucceeded) isAction() {}
func (submitFinished) isAction()  {}

// reduce returns the state following a. It never mutates s.
func reduce(s State, a action) State {
	switch a := a.(type) {
	case loaded:
		s.Students = a.students
		rep := a.report
		s.Report = &rep
		s.SubjectAverages = a.subjects
	case statusSet:
		s = withStatus(s, a.msg)
	case statusCleared:
		if a.gen == s.statusGen && s.Status != "" {
			s = withStatus(s, "")
		}
	case editBegan:
		s.Draft = student.DraftFromStudent(a.st)
		s.EditingID = a.st.ID
		s = withStatus(s, "")
	case editCanceled:
		s.Draft = student.Draft{}
		s.EditingID = ""
		s = withStatus(s, "")
	case fieldChanged:
		switch a.field {
		case FieldNome:
			s.Draft.Nome = a.value
		case FieldFrequencia:
			s.Draft.Frequencia = a.value
		}
	case gradeChanged:
		if a.index >= 0 && a.index < len(s.Draft.Notas) {
			s.Draft.Notas[a.index] = a.value
		}
	case submitStarted:
		s.Submitting = true
		s = withStatus(s, a.status)
	case submitSucceeded:
		s.Draft = student.Draft{}
		s.EditingID = ""
		s = withStatus(s, a.status)
	case submitFinished:
		s.Submitting = false
		s.statusGen++ // the final status starts its clear countdown now
	}
	return s
}

func withStatus(s State, msg string) State {
	s.Status = msg
	s.statusGen++
	return s
}
