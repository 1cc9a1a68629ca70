package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		students = append(students, clone(*repo.db.table[id]))
	}
	return students
}

func (repo *studentRepository) CheckNameUniqueness(_ context.Context, nome string, excludedIDs ...string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	nome = core.CleanString(nome, true /* lower */)
	for _, st := range repo.db.table {
		if isExcluded(st.ID, excludedIDs) {
			continue
		}
		if strings.ToLower(strings.TrimSpace(st.Nome)) == nome {
			return student.ErrNameExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st = clone(st)
	repo.db.table[st.ID] = &st
	repo.db.order = append(repo.db.order, st.ID)
	return clone(st), nil
}

func (repo *studentRepository) QueryAllStudents(context.Context) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return clone(*st), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[st.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	orig.Nome = st.Nome
	orig.Notas = append([]float64(nil), st.Notas...)
	orig.Frequencia = st.Frequencia
	orig.UpdatedAt = st.UpdatedAt
	return clone(*orig), nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.table, id)
	for i, oid := range repo.db.order {
		if oid == id {
			repo.db.order = append(repo.db.order[:i], repo.db.order[i+1:]...)
			break
		}
	}
	return nil
}

// clone copies st so callers never share the stored grades slice.
func clone(st student.Student) student.Student {
	st.Notas = append([]float64(nil), st.Notas...)
	return st
}

func isExcluded(id string, excludedIDs []string) bool {
	for _, exclID := range excludedIDs {
		if exclID == id {
			return true
		}
	}
	return false
}
