package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/escola/core/student"
)

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	nome string,
	frequencia float64,
	notas []float64,
	createdAt ...time.Time,
) student.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	st, err := repo.CreateStudent(context.Background(), student.Student{
		ID:         uuid.NewString(),
		Nome:       nome,
		Notas:      notas,
		Frequencia: frequencia,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return st
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

// RecordingLogger keeps the messages logged at warn and error levels.
type RecordingLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *RecordingLogger) Debug(string, ...interface{}) {}
func (l *RecordingLogger) Info(string, ...interface{})  {}
func (l *RecordingLogger) Fatal(string, ...interface{}) {}

func (l *RecordingLogger) Warn(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *RecordingLogger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *RecordingLogger) Warns() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

func (l *RecordingLogger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}
