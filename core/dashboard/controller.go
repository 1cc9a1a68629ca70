// Package dashboard holds the state controller behind the student records front ends.
// Every change goes through Controller.dispatch, which applies the pure reduce function.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/student"
)

const (
	StatusCreating = "Salvando estudante..."
	StatusUpdating = "Atualizando estudante..."
	StatusCreated  = "Estudante salvo com sucesso!"
	StatusUpdated  = "Estudante atualizado com sucesso!"

	DeletePrompt = "Deseja remover este estudante?"

	alertSent   = "E-mail de alerta enviado com sucesso!\n\nAluno: %s\nFrequência: %s%%\n\nUm e-mail foi enviado notificando sobre a frequência baixa deste estudante."
	alertFailed = "Erro ao enviar e-mail de alerta.\n\nO estudante foi cadastrado, mas não foi possível enviar a notificação por e-mail."
)

var (
	ErrEditInProgress   = errors.New("outro estudante já está sendo editado")
	ErrSubmitInProgress = errors.New("um envio já está em andamento")
	ErrDeleteDeclined   = errors.New("remoção cancelada")
	ErrClosed           = errors.New("dashboard fechado")
)

type (
	// Backend is the remote student records API.
	Backend interface {
		ListStudents(ctx context.Context) ([]student.Student, error)
		GetReport(ctx context.Context) (student.Report, error)
		GetSubjectAverages(ctx context.Context) ([]student.SubjectAverage, error)
		CreateStudent(ctx context.Context, in student.Input) (student.Student, error)
		UpdateStudent(ctx context.Context, id string, in student.Input) (student.Student, error)
		DeleteStudent(ctx context.Context, id string) error
	}

	// Alerter shows a message the operator has to acknowledge.
	Alerter interface {
		Alert(msg string)
	}

	// Confirmer asks the operator a yes/no question.
	Confirmer interface {
		Confirm(prompt string) bool
	}

	Options struct {
		Notifier  core.Notifier
		Alerter   Alerter
		Confirmer Confirmer // nil declines every deletion
		Logger    core.Logger

		StatusTTL           time.Duration // 0: statuses are never cleared automatically
		AttendanceThreshold float64       // 0: grading.HighAttendanceMin
		Now                 func() time.Time
	}
)

type Controller struct {
	backend    Backend
	opts       Options
	validate   *validator.Validate
	translator ut.Translator

	mu          sync.Mutex
	state       State
	subscribers map[int]func(State)
	nextSubID   int
	statusTimer *time.Timer
	closed      bool

	pending  []State    // states not yet delivered, in dispatch order; guarded by mu
	notifyMu sync.Mutex // held while delivering; never acquired while holding mu
}

func New(backend Backend, opts Options) *Controller {
	if opts.AttendanceThreshold <= 0 {
		opts.AttendanceThreshold = grading.HighAttendanceMin
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	validate, translator := core.NewValidator()
	return &Controller{
		backend:     backend,
		opts:        opts,
		validate:    validate,
		translator:  translator,
		subscribers: make(map[int]func(State)),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every new state, in dispatch order.
// fn may call State but must not call the Controller's mutating methods.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Close stops the status timer. Later calls fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.statusTimer != nil {
		c.statusTimer.Stop()
		c.statusTimer = nil
	}
}

func (c *Controller) dispatch(a action) {
	_ = c.update(func(State) (action, error) { return a, nil })
}

// update applies the action built from the current state. A build error leaves the state untouched.
func (c *Controller) update(build func(State) (action, error)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	a, err := build(c.state)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	prev := c.state
	c.state = reduce(prev, a)
	if c.state.statusGen != prev.statusGen {
		c.scheduleStatusClear(c.state)
	}
	c.pending = append(c.pending, c.state)
	c.mu.Unlock()

	c.deliver()
	return nil
}

// deliver drains the pending states. Whoever holds notifyMu delivers states queued by others too,
// so every state reaches the subscribers once and in order.
func (c *Controller) deliver() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.mu.Unlock()
			return
		}
		next := c.pending[0]
		c.pending = c.pending[1:]
		subs := make([]func(State), 0, len(c.subscribers))
		for _, fn := range c.subscribers {
			subs = append(subs, fn)
		}
		c.mu.Unlock()

		for _, fn := range subs {
			fn(next)
		}
	}
}

func guarded(guard func(State) error, a action) func(State) (action, error) {
	return func(s State) (action, error) {
		if err := guard(s); err != nil {
			return nil, err
		}
		return a, nil
	}
}

// scheduleStatusClear replaces the pending clear with one for s. Must hold c.mu.
func (c *Controller) scheduleStatusClear(s State) {
	if c.statusTimer != nil {
		c.statusTimer.Stop()
		c.statusTimer = nil
	}
	if c.opts.StatusTTL <= 0 || s.Status == "" || s.Submitting {
		return
	}
	gen := s.statusGen
	c.statusTimer = time.AfterFunc(c.opts.StatusTTL, func() {
		c.dispatch(statusCleared{gen: gen})
	})
}

// Refresh reloads students, report and subject averages together.
// State is replaced only when all three reads succeed; otherwise the error becomes the status.
func (c *Controller) Refresh(ctx context.Context) error {
	var (
		students []student.Student
		report   student.Report
		subjects []student.SubjectAverage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		students, err = c.backend.ListStudents(gctx)
		return err
	})
	g.Go(func() (err error) {
		report, err = c.backend.GetReport(gctx)
		return err
	})
	g.Go(func() (err error) {
		subjects, err = c.backend.GetSubjectAverages(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		c.dispatch(statusSet{msg: err.Error()})
		return err
	}
	c.dispatch(loaded{students: students, report: report, subjects: subjects})
	return nil
}

func notSubmitting(s State) error {
	if s.Submitting {
		return ErrSubmitInProgress
	}
	return nil
}

func notEditingOrSubmitting(s State) error {
	if s.Editing() {
		return ErrEditInProgress
	}
	return notSubmitting(s)
}

// BeginEdit loads the student into the draft. Only one student may be edited at a time.
func (c *Controller) BeginEdit(id string) error {
	return c.update(func(s State) (action, error) {
		if err := notEditingOrSubmitting(s); err != nil {
			return nil, err
		}
		st, ok := s.Student(id)
		if !ok {
			return nil, student.ErrNotFound
		}
		return editBegan{st: st}, nil
	})
}

// CancelEdit empties the draft, leaves edit mode and clears the status.
func (c *Controller) CancelEdit() error {
	return c.update(guarded(notSubmitting, editCanceled{}))
}

func (c *Controller) SetField(field Field, value string) error {
	if field != FieldNome && field != FieldFrequencia {
		return errors.Errorf("campo desconhecido: %s", field)
	}
	return c.update(guarded(notSubmitting, fieldChanged{field: field, value: value}))
}

// SetGrade sets the draft grade at index (0 based).
func (c *Controller) SetGrade(index int, value string) error {
	if index < 0 || index >= student.TotalSubjects {
		return errors.Errorf("nota %d inexistente", index+1)
	}
	return c.update(guarded(notSubmitting, gradeChanged{index: index, value: value}))
}

// Submit creates (or updates, when editing) the student in the draft, then reloads everything.
// A created student below the attendance threshold triggers one notification attempt after the reload.
// On failure the draft and edit target are kept and the error becomes the status.
func (c *Controller) Submit(ctx context.Context) error {
	var snapshot State
	err := c.update(func(s State) (action, error) {
		if err := notSubmitting(s); err != nil {
			return nil, err
		}
		snapshot = s
		if s.Editing() {
			return submitStarted{status: StatusUpdating}, nil
		}
		return submitStarted{status: StatusCreating}, nil
	})
	if err != nil {
		return err
	}
	defer c.dispatch(submitFinished{})

	editingID := snapshot.EditingID
	in, err := student.ParseDraft(snapshot.Draft, c.validate, c.translator)
	if err != nil {
		c.dispatch(statusSet{msg: err.Error()})
		return err
	}

	status := StatusCreated
	if editingID != "" {
		_, err = c.backend.UpdateStudent(ctx, editingID, in)
		status = StatusUpdated
	} else {
		_, err = c.backend.CreateStudent(ctx, in)
	}
	if err != nil {
		c.dispatch(statusSet{msg: err.Error()})
		return err
	}

	c.dispatch(submitSucceeded{status: status})
	_ = c.Refresh(ctx) // failure is shown as the status

	if editingID == "" && in.Frequencia < c.opts.AttendanceThreshold {
		c.notifyLowAttendance(ctx, in)
	}
	return nil
}

func (c *Controller) notifyLowAttendance(ctx context.Context, in student.Input) {
	if c.opts.Notifier == nil || !c.opts.Notifier.Enabled() {
		c.warn("EmailJS não configurado. Alerta não enviado.")
		return
	}
	n := core.NewLowAttendanceNotification(in.Nome, in.Frequencia, in.Notas, c.opts.AttendanceThreshold, c.opts.Now())
	if err := c.opts.Notifier.Notify(ctx, n); err != nil {
		if c.opts.Logger != nil {
			c.opts.Logger.Error("Falha ao enviar alerta de frequência baixa", err)
		}
		c.alert(alertFailed)
		return
	}
	c.alert(fmt.Sprintf(alertSent, in.Nome, core.FormatNumber(in.Frequencia)))
}

// Delete removes the student once the operator confirms, then reloads everything.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	err := notEditingOrSubmitting(c.state)
	if err == nil && c.closed {
		err = ErrClosed
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if c.opts.Confirmer == nil || !c.opts.Confirmer.Confirm(DeletePrompt) {
		return ErrDeleteDeclined
	}
	if err := c.backend.DeleteStudent(ctx, id); err != nil {
		c.dispatch(statusSet{msg: err.Error()})
		return err
	}
	return c.Refresh(ctx)
}

func (c *Controller) alert(msg string) {
	if c.opts.Alerter != nil {
		c.opts.Alerter.Alert(msg)
	}
}

func (c *Controller) warn(msg string) {
	if c.opts.Logger != nil {
		c.opts.Logger.Warn(msg)
	}
}
