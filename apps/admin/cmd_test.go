package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/services/export"
	"github.com/trezcool/escola/storage/database/inmem"
	"github.com/trezcool/escola/tests"
)

type fakeCache struct {
	invalidates int
}

func (c *fakeCache) Get(context.Context) (student.Report, error)       { return student.Report{}, student.ErrCacheMiss }
func (c *fakeCache) Generation(context.Context) (uint64, error)        { return 0, nil }
func (c *fakeCache) Set(context.Context, uint64, student.Report) error { return nil }
func (c *fakeCache) Invalidate(context.Context) error {
	c.invalidates++
	return nil
}

func setup(t *testing.T) (*commandLine, student.Repository, *fakeCache) {
	t.Helper()

	// set up DB & repos
	repo := inmemdb.NewStudentRepository(inmemdb.NewDB())
	cache := new(fakeCache)

	// start CLI
	return &commandLine{
		conf:   &core.Config{Database: core.DatabaseConfig{Engine: "postgres"}},
		logger: testutil.NopLogger{},
		out:    new(bytes.Buffer),
		cache:  cache,
		withRepo: func(_ context.Context, fn func(student.Repository) error) error {
			return fn(repo)
		},
	}, repo, cache
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			} else if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Errorf("cli.run() error = nil, want an error")
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, _ := setup(t)
	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "import: no file", args: []string{"import"}, wantErr: errHelp},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	orig := runMigrationsFunc
	t.Cleanup(func() { runMigrationsFunc = orig })
	runMigrationsFunc = func(db *sql.DB, engine, command string, args ...string) error {
		if engine != "postgres" {
			return fmt.Errorf("%q: unknown dialect", engine)
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "turmas", "sql"}},
	})
}

func writeWorkbook(t *testing.T, rows ...[]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []interface{}{"Nome", "Frequência", "Nota 1", "Nota 2", "Nota 3", "Nota 4", "Nota 5"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		row := row
		require.NoError(t, f.SetSheetRow(sheet, "A"+strconv.Itoa(i+2), &row))
	}
	path := filepath.Join(t.TempDir(), "estudantes.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func Test_commandLine_importStudents(t *testing.T) {
	cli, repo, cache := setup(t)
	testutil.CreateStudent(t, repo, "Ana", 90, []float64{7, 8, 6, 9, 10})

	path := writeWorkbook(t,
		[]interface{}{"Bruno", 60, 5, 5, 5, 5, 5},
		[]interface{}{"Carla", "72,5", "9,5", 9, 9, 9, 9},
		[]interface{}{"ANA", 80, 1, 2, 3, 4, 5},   // name taken
		[]interface{}{"Davi", "muita", 1, 2, 3, 4}, // bad attendance, missing grade
		[]interface{}{"Eva", 80, 1, 2, 3, 4, 11},   // grade out of range
	)

	missing := filepath.Join(t.TempDir(), "nope.xlsx")
	runCLITests(t, cli, []cliTest{
		{name: "missing file", args: []string{"import", "-file", missing}, wantErrStr: "open " + missing + ": no such file or directory"},
		{name: "import", args: []string{"import", "-file", path}},
	})

	students, err := repo.QueryAllStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, "Bruno", students[1].Nome)
	assert.Equal(t, "Carla", students[2].Nome)
	assert.Equal(t, 72.5, students[2].Frequencia)
	assert.Equal(t, []float64{9.5, 9, 9, 9, 9}, students[2].Notas)
	assert.Equal(t, 1, cache.invalidates)

	out := cli.out.(*bytes.Buffer).String()
	assert.Contains(t, out, "line 4 (ANA)")
	assert.Contains(t, out, "line 5 (Davi)")
	assert.Contains(t, out, "line 6 (Eva)")
	assert.Contains(t, out, "2 student(s) imported, 3 skipped")
}

func Test_commandLine_importStudents_export(t *testing.T) {
	cli, repo, _ := setup(t)
	students := []student.Student{
		{ID: "1", Nome: "Ana", Notas: []float64{7, 8, 6, 9, 10}, Frequencia: 90},
		{ID: "2", Nome: "Bruno", Notas: []float64{5, 5, 5, 5, 5}, Frequencia: 60},
	}

	path := filepath.Join(t.TempDir(), exportsvc.Filename("2024-01-01"))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, exportsvc.Export(f, students, student.BuildReport(students), student.SubjectAverages(students)))
	require.NoError(t, f.Close())

	require.NoError(t, cli.run([]string{"admin", "import", "-file", path}))

	imported, err := repo.QueryAllStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, imported, 2)
	for i, st := range imported {
		assert.Equal(t, students[i].Nome, st.Nome)
		assert.Equal(t, students[i].Notas, st.Notas)
		assert.Equal(t, students[i].Frequencia, st.Frequencia)
	}
}
