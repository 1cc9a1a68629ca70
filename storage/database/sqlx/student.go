package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/student"
)

const uniqueViolation = "23505"

var defaultOrdering = core.DBOrdering{Field: "criado_em", Ascending: true}

type studentRow struct {
	ID           string          `db:"id"`
	Nome         string          `db:"nome"`
	Notas        pq.Float64Array `db:"notas"`
	Frequencia   float64         `db:"frequencia"`
	CriadoEm     time.Time       `db:"criado_em"`
	AtualizadoEm time.Time       `db:"atualizado_em"`
}

type studentRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) student.Repository {
	return &studentRepository{exec: exec}
}

func toRow(st student.Student) studentRow {
	return studentRow{
		ID:           st.ID,
		Nome:         st.Nome,
		Notas:        pq.Float64Array(st.Notas),
		Frequencia:   st.Frequencia,
		CriadoEm:     st.CreatedAt.UTC(),
		AtualizadoEm: st.UpdatedAt.UTC(),
	}
}

func (row studentRow) student() student.Student {
	return student.Student{
		ID:         row.ID,
		Nome:       row.Nome,
		Notas:      []float64(row.Notas),
		Frequencia: row.Frequencia,
		CreatedAt:  row.CriadoEm.UTC(),
		UpdatedAt:  row.AtualizadoEm.UTC(),
	}
}

// trapErr maps "no rows" to student.ErrNotFound and unique violations to student.ErrNameExists.
func trapErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return student.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return student.ErrNameExists
	}
	return errors.Wrap(err, msg)
}

func (repo *studentRepository) CheckNameUniqueness(ctx context.Context, nome string, excludedIDs ...string) error {
	q := `SELECT EXISTS (SELECT 1 FROM estudantes WHERE LOWER(TRIM(nome)) = LOWER(TRIM($1)) AND NOT (id::text = ANY($2)))`
	if excludedIDs == nil {
		excludedIDs = []string{}
	}
	var exists bool
	if err := repo.exec.GetContext(ctx, &exists, q, nome, pq.StringArray(excludedIDs)); err != nil {
		return errors.Wrap(err, "checking student name uniqueness")
	}
	if exists {
		return student.ErrNameExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	q := `INSERT INTO estudantes (id, nome, notas, frequencia, criado_em, atualizado_em)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, nome, notas, frequencia, criado_em, atualizado_em`
	row := toRow(st)
	var created studentRow
	err := repo.exec.GetContext(ctx, &created, q, row.ID, row.Nome, row.Notas, row.Frequencia, row.CriadoEm, row.AtualizadoEm)
	if err != nil {
		return student.Student{}, trapErr(err, "inserting student")
	}
	return created.student(), nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	q := `SELECT id, nome, notas, frequencia, criado_em, atualizado_em FROM estudantes ORDER BY ` + defaultOrdering.String() + `, id`
	var rows []studentRow
	if err := repo.exec.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	if !isUUID(id) {
		return student.Student{}, student.ErrNotFound
	}
	q := `SELECT id, nome, notas, frequencia, criado_em, atualizado_em FROM estudantes WHERE id = $1`
	var row studentRow
	if err := repo.exec.GetContext(ctx, &row, q, id); err != nil {
		return student.Student{}, trapErr(err, "selecting student")
	}
	return row.student(), nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	if !isUUID(st.ID) {
		return student.Student{}, student.ErrNotFound
	}
	q := `UPDATE estudantes SET nome = $2, notas = $3, frequencia = $4, atualizado_em = $5 WHERE id = $1
		RETURNING id, nome, notas, frequencia, criado_em, atualizado_em`
	row := toRow(st)
	var updated studentRow
	err := repo.exec.GetContext(ctx, &updated, q, row.ID, row.Nome, row.Notas, row.Frequencia, row.AtualizadoEm)
	if err != nil {
		return student.Student{}, trapErr(err, "updating student")
	}
	return updated.student(), nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	if !isUUID(id) {
		return student.ErrNotFound
	}
	res, err := repo.exec.ExecContext(ctx, `DELETE FROM estudantes WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n == 0 {
		return student.ErrNotFound
	}
	return nil
}

// WithTx runs fn inside a transaction, committing when it succeeds.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(repo student.Repository) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err := fn(NewStudentRepository(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
