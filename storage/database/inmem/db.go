package inmemdb

import (
	"sync"

	"github.com/trezcool/escola/core/student"
)

type (
	studentTable struct {
		mutex sync.RWMutex
		order []string // ids in creation order
		table map[string]*student.Student
	}

	// DB is an in-memory database living as long as the process.
	DB struct {
		student *studentTable
	}
)

func NewDB() *DB {
	return &DB{
		student: &studentTable{table: make(map[string]*student.Student)},
	}
}
