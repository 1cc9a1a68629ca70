package main

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/services/export"
)

// importStudents creates every valid row of the spreadsheet in a single transaction.
// Invalid rows and names already taken are reported and skipped.
func (cli *commandLine) importStudents(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := exportsvc.ReadStudents(f)
	if err != nil {
		return err
	}

	validate, translator := core.NewValidator()
	var created, skipped int
	err = cli.withRepo(ctx, func(repo student.Repository) error {
		created, skipped = 0, 0
		svc := student.NewService(repo, nil, cli.logger)
		for _, row := range rows {
			in, err := student.ParseDraft(row.Draft, validate, translator)
			if err == nil {
				_, err = svc.Create(ctx, in)
			}
			var vErr *core.ValidationError
			switch {
			case err == nil:
				created++
			case errors.As(err, &vErr), errors.Cause(err) == student.ErrNameExists:
				skipped++
				cli.printf("line %d (%s): %v\n", row.Line, row.Draft.Nome, err)
			default:
				return errors.Wrapf(err, "importing line %d", row.Line)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if cli.cache != nil && created > 0 {
		if err := cli.cache.Invalidate(ctx); err != nil {
			cli.logger.Error("invalidating cached report", err)
		}
	}
	cli.printf("%d student(s) imported, %d skipped\n", created, skipped)
	return nil
}
