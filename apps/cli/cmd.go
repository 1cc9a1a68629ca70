package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/dashboard"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/services/export"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf     *core.Config
	backend  dashboard.Backend
	notifier core.Notifier
	logger   core.Logger
	in       io.Reader
	out      io.Writer
	stdinFd  int

	outMu sync.Mutex
	lines *bufio.Scanner
}

func (cli *commandLine) printUsage() {
	cli.printf("Uso:\n")
	cli.printf("  list                                             - lista os estudantes\n")
	cli.printf("  report                                           - mostra o relatório da turma\n")
	cli.printf("  add -nome NOME -frequencia F -notas \"N1 N2 N3 N4 N5\" - cadastra um estudante\n")
	cli.printf("  edit -id ID [-nome NOME] [-frequencia F] [-notas \"N1 ... N5\"] - atualiza um estudante\n")
	cli.printf("  delete -id ID [-yes]                             - remove um estudante\n")
	cli.printf("  export [-out arquivo.xlsx]                       - exporta estudantes e relatório\n")
	cli.printf("  shell                                            - modo interativo\n")
}

// printf serializes writes: status timers print from their own goroutine.
func (cli *commandLine) printf(format string, args ...interface{}) {
	cli.outMu.Lock()
	defer cli.outMu.Unlock()
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) scanner() *bufio.Scanner {
	if cli.lines == nil {
		cli.lines = bufio.NewScanner(cli.in)
	}
	return cli.lines
}

func (cli *commandLine) newController(autoConfirm bool) *dashboard.Controller {
	var statusTTL time.Duration
	var threshold float64
	if cli.conf != nil {
		statusTTL = cli.conf.Client.StatusTTL
		threshold = cli.conf.Notifications.AttendanceThreshold
	}
	return dashboard.New(cli.backend, dashboard.Options{
		Notifier:            cli.notifier,
		Alerter:             alerter{cli: cli},
		Confirmer:           &confirmer{cli: cli, auto: autoConfirm},
		Logger:              cli.logger,
		StatusTTL:           statusTTL,
		AttendanceThreshold: threshold,
	})
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	addCmd := flag.NewFlagSet("add", flag.ContinueOnError)
	addNome := addCmd.String("nome", "", "Nome do estudante.")
	addFreq := addCmd.String("frequencia", "", "Frequência (0 a 100).")
	addNotas := addCmd.String("notas", "", "As 5 notas (0 a 10) separadas por espaço ou ';'.")

	editCmd := flag.NewFlagSet("edit", flag.ContinueOnError)
	editID := editCmd.String("id", "", "Identificador do estudante.")
	editNome := editCmd.String("nome", "", "Novo nome.")
	editFreq := editCmd.String("frequencia", "", "Nova frequência.")
	editNotas := editCmd.String("notas", "", "Novas notas separadas por espaço ou ';'.")

	deleteCmd := flag.NewFlagSet("delete", flag.ContinueOnError)
	deleteID := deleteCmd.String("id", "", "Identificador do estudante.")
	deleteYes := deleteCmd.Bool("yes", false, "Remove sem pedir confirmação.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportOut := exportCmd.String("out", exportsvc.Filename(time.Now().Format("2006-01-02")), "Arquivo XLSX de saída.")

	for _, fs := range []*flag.FlagSet{addCmd, editCmd, deleteCmd, exportCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "list":
		ctrl := cli.newController(false)
		defer ctrl.Close()
		return cli.list(ctx, ctrl)

	case "report":
		ctrl := cli.newController(false)
		defer ctrl.Close()
		return cli.report(ctx, ctrl)

	case "add":
		if err := addCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addNome == "" {
			addCmd.Usage()
			return errHelp
		}
		ctrl := cli.newController(false)
		defer ctrl.Close()
		return cli.add(ctx, ctrl, *addNome, *addFreq, *addNotas)

	case "edit":
		if err := editCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *editID == "" {
			editCmd.Usage()
			return errHelp
		}
		ctrl := cli.newController(false)
		defer ctrl.Close()
		return cli.edit(ctx, ctrl, *editID, *editNome, *editFreq, *editNotas)

	case "delete":
		if err := deleteCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *deleteID == "" {
			deleteCmd.Usage()
			return errHelp
		}
		ctrl := cli.newController(*deleteYes)
		defer ctrl.Close()
		return cli.delete(ctx, ctrl, *deleteID)

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		ctrl := cli.newController(false)
		defer ctrl.Close()
		return cli.export(ctx, ctrl, *exportOut)

	case "shell":
		ctrl := cli.newController(false)
		defer ctrl.Close()
		return cli.shell(ctx, ctrl)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) list(ctx context.Context, ctrl *dashboard.Controller) error {
	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	cli.renderStudents(ctrl.State().Students)
	return nil
}

func (cli *commandLine) report(ctx context.Context, ctrl *dashboard.Controller) error {
	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	s := ctrl.State()
	cli.renderReport(s.Report)
	cli.renderSubjects(s.SubjectAverages)
	return nil
}

func (cli *commandLine) add(ctx context.Context, ctrl *dashboard.Controller, nome, freq, notas string) error {
	if err := fillDraft(ctrl, nome, freq, notas); err != nil {
		return err
	}
	return cli.submit(ctx, ctrl)
}

func (cli *commandLine) edit(ctx context.Context, ctrl *dashboard.Controller, id, nome, freq, notas string) error {
	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	if err := ctrl.BeginEdit(id); err != nil {
		return err
	}
	if err := fillDraft(ctrl, nome, freq, notas); err != nil {
		return err
	}
	return cli.submit(ctx, ctrl)
}

func (cli *commandLine) submit(ctx context.Context, ctrl *dashboard.Controller) error {
	err := ctrl.Submit(ctx)
	if status := ctrl.State().Status; status != "" && err == nil {
		cli.printf("%s\n", status)
	}
	return err
}

func (cli *commandLine) delete(ctx context.Context, ctrl *dashboard.Controller, id string) error {
	if err := ctrl.Delete(ctx, id); err != nil {
		return err
	}
	cli.printf("Estudante removido.\n")
	return nil
}

func (cli *commandLine) export(ctx context.Context, ctrl *dashboard.Controller, out string) (err error) {
	if err = ctrl.Refresh(ctx); err != nil {
		return err
	}
	s := ctrl.State()

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err = exportsvc.Export(f, s.Students, *s.Report, s.SubjectAverages); err != nil {
		return err
	}
	cli.printf("Exportado para %s\n", out)
	return nil
}

// fillDraft copies the non empty values into the controller draft.
func fillDraft(ctrl *dashboard.Controller, nome, freq, notas string) error {
	if nome != "" {
		if err := ctrl.SetField(dashboard.FieldNome, nome); err != nil {
			return err
		}
	}
	if freq != "" {
		if err := ctrl.SetField(dashboard.FieldFrequencia, freq); err != nil {
			return err
		}
	}
	if notas == "" {
		return nil
	}
	grades := splitGrades(notas)
	if len(grades) != student.TotalSubjects {
		return core.NewValidationError(nil, core.FieldError{
			Field: "notas",
			Error: fmt.Sprintf("informe %d notas (recebidas %d)", student.TotalSubjects, len(grades)),
		})
	}
	for i, g := range grades {
		if err := ctrl.SetGrade(i, g); err != nil {
			return err
		}
	}
	return nil
}

// splitGrades splits on spaces and ';' so "7,5" stays one grade.
func splitGrades(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ' ' || r == '\t'
	})
}
