package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/dashboard"
	"github.com/trezcool/escola/core/student"
)

const shellHelp = `Comandos:
  list | report | draft
  edit <id> | cancel
  set nome <valor> | set frequencia <valor> | set nota <1-5> <valor>
  submit
  delete <id>
  sair
`

var errQuit = errors.New("quit")

// shell runs the interactive loop until "sair" or the end of the input.
// Command errors are printed and the loop goes on.
func (cli *commandLine) shell(ctx context.Context, ctrl *dashboard.Controller) error {
	var lastStatus string
	unsubscribe := ctrl.Subscribe(func(s dashboard.State) {
		if s.Status != "" && s.Status != lastStatus {
			cli.printf("» %s\n", s.Status)
		}
		lastStatus = s.Status
	})
	defer unsubscribe()

	if err := ctrl.Refresh(ctx); err == nil {
		cli.renderStudents(ctrl.State().Students)
	}
	cli.printf("%s", shellHelp)

	lines := cli.scanner()
	for {
		cli.printf("> ")
		if !lines.Scan() {
			cli.printf("\n")
			return lines.Err()
		}
		err := cli.exec(ctx, ctrl, strings.Fields(lines.Text()))
		if err == errQuit {
			return nil
		}
		if err != nil && err.Error() != ctrl.State().Status {
			cli.printf("erro: %v\n", err)
		}
	}
}

func (cli *commandLine) exec(ctx context.Context, ctrl *dashboard.Controller, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	switch cmd, args := fields[0], fields[1:]; cmd {
	case "sair", "quit", "exit":
		return errQuit
	case "help", "ajuda":
		cli.printf("%s", shellHelp)
		return nil
	case "list":
		if err := ctrl.Refresh(ctx); err != nil {
			return err
		}
		cli.renderStudents(ctrl.State().Students)
		return nil
	case "report":
		if err := ctrl.Refresh(ctx); err != nil {
			return err
		}
		s := ctrl.State()
		cli.renderReport(s.Report)
		cli.renderSubjects(s.SubjectAverages)
		return nil
	case "draft":
		s := ctrl.State()
		cli.renderDraft(s.Draft, s.EditingID)
		return nil
	case "edit":
		if len(args) != 1 {
			return errors.New("uso: edit <id>")
		}
		if err := ctrl.BeginEdit(args[0]); err != nil {
			return err
		}
		s := ctrl.State()
		cli.renderDraft(s.Draft, s.EditingID)
		return nil
	case "cancel":
		return ctrl.CancelEdit()
	case "set":
		return cli.set(ctrl, args)
	case "submit":
		return ctrl.Submit(ctx)
	case "delete":
		if len(args) != 1 {
			return errors.New("uso: delete <id>")
		}
		if err := ctrl.Delete(ctx, args[0]); err != nil {
			return err
		}
		cli.printf("Estudante removido.\n")
		return nil
	default:
		return errors.Errorf("comando desconhecido: %s", cmd)
	}
}

func (cli *commandLine) set(ctrl *dashboard.Controller, args []string) error {
	if len(args) < 2 {
		return errors.New("uso: set nome|frequencia <valor> ou set nota <1-5> <valor>")
	}
	switch args[0] {
	case "nome":
		return ctrl.SetField(dashboard.FieldNome, strings.Join(args[1:], " "))
	case "frequencia":
		return ctrl.SetField(dashboard.FieldFrequencia, args[1])
	case "nota":
		if len(args) != 3 {
			return errors.New("uso: set nota <1-5> <valor>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 || n > student.TotalSubjects {
			return errors.Errorf("nota deve ser entre 1 e %d", student.TotalSubjects)
		}
		return ctrl.SetGrade(n-1, args[2])
	default:
		return errors.Errorf("campo desconhecido: %s", args[0])
	}
}
