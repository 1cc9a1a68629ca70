package student

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
)

var (
	// errors
	ErrNotFound    = errors.New("aluno não encontrado")
	ErrNameExists  = errors.New("já existe um estudante com esse nome")
	ErrCacheMiss   = errors.New("report not cached")
	ErrStaleReport = errors.New("report computed before the last invalidation")
)

type (
	Repository interface {
		// CheckNameUniqueness fails with ErrNameExists when another student (ignoring excludedIDs)
		// has the same trimmed, case-insensitive name.
		CheckNameUniqueness(ctx context.Context, nome string, excludedIDs ...string) error
		CreateStudent(ctx context.Context, st Student) (Student, error)
		// QueryAllStudents lists students in creation order.
		QueryAllStudents(ctx context.Context) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error
	}

	// ReportCache stores the last computed Report. Get fails with ErrCacheMiss when empty.
	// Every Invalidate bumps the generation; Set stores rep only while the generation is still gen,
	// failing with ErrStaleReport otherwise.
	ReportCache interface {
		Get(ctx context.Context) (Report, error)
		Generation(ctx context.Context) (uint64, error)
		Set(ctx context.Context, gen uint64, rep Report) error
		Invalidate(ctx context.Context) error
	}

	Service struct {
		repo  Repository
		cache ReportCache
		log   core.Logger
	}
)

// NewService returns a student Service. cache may be nil.
func NewService(repo Repository, cache ReportCache, logger core.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: logger}
}

func (svc *Service) Create(ctx context.Context, in Input) (Student, error) {
	if err := checkGrades(in.Notas); err != nil {
		return Student{}, err
	}
	if err := svc.repo.CheckNameUniqueness(ctx, in.Nome); err != nil {
		return Student{}, err
	}
	now := time.Now().UTC()
	st, err := svc.repo.CreateStudent(ctx, Student{
		ID:         uuid.NewString(),
		Nome:       in.Nome,
		Notas:      in.Notas,
		Frequencia: in.Frequencia,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return Student{}, err
	}
	svc.invalidateReport(ctx)
	return st, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, in Input) (Student, error) {
	if err := checkGrades(in.Notas); err != nil {
		return Student{}, err
	}
	orig, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err := svc.repo.CheckNameUniqueness(ctx, in.Nome, orig.ID); err != nil {
		return Student{}, err
	}
	st, err := svc.repo.UpdateStudent(ctx, Student{
		ID:         orig.ID,
		Nome:       in.Nome,
		Notas:      in.Notas,
		Frequencia: in.Frequencia,
		CreatedAt:  orig.CreatedAt,
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return Student{}, err
	}
	svc.invalidateReport(ctx)
	return st, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteStudent(ctx, id); err != nil {
		return err
	}
	svc.invalidateReport(ctx)
	return nil
}

func (svc *Service) ClassAverage(ctx context.Context) (float64, error) {
	students, err := svc.repo.QueryAllStudents(ctx)
	if err != nil {
		return 0, err
	}
	return ClassAverage(students), nil
}

func (svc *Service) SubjectAverages(ctx context.Context) ([]SubjectAverage, error) {
	students, err := svc.repo.QueryAllStudents(ctx)
	if err != nil {
		return nil, err
	}
	return SubjectAverages(students), nil
}

func (svc *Service) AboveAverage(ctx context.Context) ([]StudentAverage, error) {
	students, err := svc.repo.QueryAllStudents(ctx)
	if err != nil {
		return nil, err
	}
	return AboveAverage(students), nil
}

func (svc *Service) LowAttendance(ctx context.Context, limit float64) ([]StudentAttendance, error) {
	students, err := svc.repo.QueryAllStudents(ctx)
	if err != nil {
		return nil, err
	}
	return LowAttendance(students, limit), nil
}

// Report returns the cached report when available, computing and caching it otherwise.
// A report computed while a write invalidated the cache is returned but not cached.
// Cache failures are logged, never returned.
func (svc *Service) Report(ctx context.Context) (Report, error) {
	cacheable := svc.cache != nil
	var gen uint64
	if cacheable {
		rep, err := svc.cache.Get(ctx)
		if err == nil {
			return rep, nil
		}
		if errors.Cause(err) != ErrCacheMiss {
			svc.logError("reading cached report", err)
		}
		if gen, err = svc.cache.Generation(ctx); err != nil {
			svc.logError("reading report generation", err)
			cacheable = false
		}
	}

	students, err := svc.repo.QueryAllStudents(ctx)
	if err != nil {
		return Report{}, err
	}
	rep := BuildReport(students)

	if cacheable {
		if err := svc.cache.Set(ctx, gen, rep); err != nil && errors.Cause(err) != ErrStaleReport {
			svc.logError("caching report", err)
		}
	}
	return rep, nil
}

func (svc *Service) invalidateReport(ctx context.Context) {
	if svc.cache == nil {
		return
	}
	if err := svc.cache.Invalidate(ctx); err != nil {
		svc.logError("invalidating cached report", err)
	}
}

func checkGrades(notas []float64) error {
	if len(notas) != TotalSubjects {
		return core.NewValidationError(nil, core.FieldError{
			Field: "notas",
			Error: fmt.Sprintf("notas deve conter %d itens", TotalSubjects),
		})
	}
	return nil
}

func (svc *Service) logError(msg string, err error) {
	if svc.log != nil {
		svc.log.Error(msg, err)
	}
}
