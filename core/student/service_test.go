package student_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/storage/database/inmem"
	"github.com/trezcool/escola/tests"
)

type memCache struct {
	mu          sync.Mutex
	rep         *student.Report
	gen         uint64
	sets        int
	invalidates int
	failGet     bool
}

func (c *memCache) Get(context.Context) (student.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return student.Report{}, errors.New("cache down")
	}
	if c.rep == nil {
		return student.Report{}, student.ErrCacheMiss
	}
	return *c.rep, nil
}

func (c *memCache) Generation(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *memCache) Set(_ context.Context, gen uint64, rep student.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return student.ErrStaleReport
	}
	c.rep = &rep
	c.sets++
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rep = nil
	c.gen++
	c.invalidates++
	return nil
}

func newService(t *testing.T) (*student.Service, student.Repository, *memCache) {
	t.Helper()
	repo := inmemdb.NewStudentRepository(inmemdb.NewDB())
	cache := new(memCache)
	return student.NewService(repo, cache, testutil.NopLogger{}), repo, cache
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, _, cache := newService(t)

	st, err := svc.Create(ctx, student.Input{Nome: "Ana", Notas: []float64{6, 7, 8, 5, 9}, Frequencia: 42})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if st.ID == "" || st.Nome != "Ana" || st.Frequencia != 42 || len(st.Notas) != 5 {
		t.Errorf("Create() = %+v", st)
	}
	if cache.invalidates != 1 {
		t.Errorf("invalidates = %d, want 1", cache.invalidates)
	}

	for _, nome := range []string{"Ana", " ana ", "ANA"} {
		_, err = svc.Create(ctx, student.Input{Nome: nome, Notas: []float64{1, 1, 1, 1, 1}, Frequencia: 80})
		if errors.Cause(err) != student.ErrNameExists {
			t.Errorf("Create(%q) error = %v, want %v", nome, err, student.ErrNameExists)
		}
	}

	_, err = svc.Create(ctx, student.Input{Nome: "Bia", Notas: []float64{1, 1}, Frequencia: 80})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("Create() with 2 grades error = %v, want validation error", err)
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t)
	ana := testutil.CreateStudent(t, repo, "Ana", 42, []float64{6, 7, 8, 5, 9})
	testutil.CreateStudent(t, repo, "Bruno", 90, []float64{10, 9, 9, 10, 9})

	t.Run("keeps own name", func(t *testing.T) {
		st, err := svc.Update(ctx, ana.ID, student.Input{Nome: "ana", Notas: []float64{7, 7, 7, 7, 7}, Frequencia: 80})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if st.ID != ana.ID || st.Nome != "ana" || st.Frequencia != 80 || st.Notas[0] != 7 {
			t.Errorf("Update() = %+v", st)
		}
	})

	t.Run("name taken", func(t *testing.T) {
		_, err := svc.Update(ctx, ana.ID, student.Input{Nome: "Bruno", Notas: []float64{7, 7, 7, 7, 7}, Frequencia: 80})
		if errors.Cause(err) != student.ErrNameExists {
			t.Errorf("Update() error = %v, want %v", err, student.ErrNameExists)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Update(ctx, "nope", student.Input{Nome: "X", Notas: []float64{7, 7, 7, 7, 7}})
		if errors.Cause(err) != student.ErrNotFound {
			t.Errorf("Update() error = %v, want %v", err, student.ErrNotFound)
		}
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t)
	ana := testutil.CreateStudent(t, repo, "Ana", 42, []float64{6, 7, 8, 5, 9})

	if err := svc.Delete(ctx, ana.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := svc.GetByID(ctx, ana.ID); errors.Cause(err) != student.ErrNotFound {
		t.Errorf("GetByID() after delete error = %v", err)
	}
	if err := svc.Delete(ctx, ana.ID); errors.Cause(err) != student.ErrNotFound {
		t.Errorf("second Delete() error = %v, want %v", err, student.ErrNotFound)
	}
}

func TestService_QueryAll_keepsCreationOrder(t *testing.T) {
	svc, repo, _ := newService(t)
	names := []string{"Zeca", "Ana", "Maria"}
	for _, n := range names {
		testutil.CreateStudent(t, repo, n, 80, []float64{5, 5, 5, 5, 5})
	}
	students, err := svc.QueryAll(context.Background())
	if err != nil {
		t.Fatalf("QueryAll() failed: %v", err)
	}
	for i, st := range students {
		if st.Nome != names[i] {
			t.Errorf("QueryAll()[%d] = %s, want %s", i, st.Nome, names[i])
		}
	}
}

func TestService_Report_cached(t *testing.T) {
	ctx := context.Background()
	svc, _, cache := newService(t)
	if _, err := svc.Create(ctx, student.Input{Nome: "Ana", Notas: []float64{6, 7, 8, 5, 9}, Frequencia: 42}); err != nil {
		t.Fatal(err)
	}

	rep, err := svc.Report(ctx)
	if err != nil {
		t.Fatalf("Report() failed: %v", err)
	}
	if rep.TotalEstudantes != 1 || cache.sets != 1 {
		t.Errorf("Report() = %+v, sets = %d", rep, cache.sets)
	}
	if _, err = svc.Report(ctx); err != nil || cache.sets != 1 {
		t.Errorf("second Report() should come from cache: err=%v sets=%d", err, cache.sets)
	}

	if _, err = svc.Create(ctx, student.Input{Nome: "Bia", Notas: []float64{6, 7, 8, 5, 9}, Frequencia: 90}); err != nil {
		t.Fatal(err)
	}
	rep, _ = svc.Report(ctx)
	if rep.TotalEstudantes != 2 || cache.sets != 2 {
		t.Errorf("Report() after create = %d students, sets = %d", rep.TotalEstudantes, cache.sets)
	}
}

// stallingRepo holds the result of the first QueryAllStudents until release is closed.
type stallingRepo struct {
	student.Repository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *stallingRepo) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	students, err := r.Repository.QueryAllStudents(ctx)
	stall := false
	r.once.Do(func() { stall = true })
	if stall {
		close(r.entered)
		<-r.release
	}
	return students, err
}

func TestService_Report_writeDuringCompute(t *testing.T) {
	ctx := context.Background()
	repo := &stallingRepo{
		Repository: inmemdb.NewStudentRepository(inmemdb.NewDB()),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	cache := new(memCache)
	logger := new(testutil.RecordingLogger)
	svc := student.NewService(repo, cache, logger)

	type result struct {
		rep student.Report
		err error
	}
	done := make(chan result, 1)
	go func() {
		rep, err := svc.Report(ctx)
		done <- result{rep, err}
	}()

	<-repo.entered
	if _, err := svc.Create(ctx, student.Input{Nome: "Ana", Notas: []float64{6, 7, 8, 5, 9}, Frequencia: 42}); err != nil {
		t.Fatal(err)
	}
	close(repo.release)

	first := <-done
	if first.err != nil || first.rep.TotalEstudantes != 0 {
		t.Fatalf("stalled Report() = %+v, %v", first.rep, first.err)
	}
	if cache.sets != 0 {
		t.Errorf("stale report cached; sets = %d", cache.sets)
	}

	rep, err := svc.Report(ctx)
	if err != nil {
		t.Fatalf("Report() failed: %v", err)
	}
	if rep.TotalEstudantes != 1 {
		t.Errorf("Report() after create = %d students, want 1", rep.TotalEstudantes)
	}
	if errs := logger.Errors(); len(errs) != 0 {
		t.Errorf("logged errors = %v, want none", errs)
	}
}

func TestService_Report_cacheFailureIsLogged(t *testing.T) {
	repo := inmemdb.NewStudentRepository(inmemdb.NewDB())
	logger := new(testutil.RecordingLogger)
	svc := student.NewService(repo, &memCache{failGet: true}, logger)

	if _, err := svc.Report(context.Background()); err != nil {
		t.Fatalf("Report() failed: %v", err)
	}
	if errs := logger.Errors(); len(errs) != 1 {
		t.Errorf("logged errors = %v, want 1", errs)
	}
}

func TestService_Aggregates(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t)
	testutil.CreateStudent(t, repo, "Ana", 42, []float64{6, 7, 8, 5, 9})
	testutil.CreateStudent(t, repo, "Carla", 60, []float64{4, 5, 3, 6, 2})

	avg, err := svc.ClassAverage(ctx)
	if err != nil || avg != 5.5 {
		t.Errorf("ClassAverage() = %v, %v; want 5.5", avg, err)
	}
	subjects, err := svc.SubjectAverages(ctx)
	if err != nil || len(subjects) != student.TotalSubjects || subjects[0].Media != 5 {
		t.Errorf("SubjectAverages() = %+v, %v", subjects, err)
	}
	above, err := svc.AboveAverage(ctx)
	if err != nil || len(above) != 1 || above[0].Nome != "Ana" {
		t.Errorf("AboveAverage() = %+v, %v", above, err)
	}
	low, err := svc.LowAttendance(ctx, 50)
	if err != nil || len(low) != 1 || low[0].Nome != "Ana" {
		t.Errorf("LowAttendance(50) = %+v, %v", low, err)
	}
}
