package echoapi

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/student"
)

const limitParam = "limite"

type studentApi struct {
	svc        *student.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerStudentAPI(g *echo.Group, svc *student.Service, validate *validator.Validate, translator ut.Translator) {
	api := studentApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	sg := g.Group("/estudantes")
	sg.POST("", api.create)
	sg.GET("", api.query)

	// detail endpoints
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
}

// studentPayload is the request body of create and update.
// Frequencia is a pointer so an absent value is told apart from 0.
type studentPayload struct {
	Nome       string    `json:"nome"`
	Notas      []float64 `json:"notas"`
	Frequencia *float64  `json:"frequencia"`
}

func (api *studentApi) bindInput(ctx echo.Context) (student.Input, error) {
	var body studentPayload
	if err := ctx.Bind(&body); err != nil {
		var herr *echo.HTTPError
		if errors.As(err, &herr) && herr.Code == http.StatusBadRequest {
			return student.Input{}, errHttpBadBody
		}
		return student.Input{}, errors.Wrap(err, "binding to studentPayload")
	}

	data := student.Input{Nome: body.Nome, Notas: body.Notas}
	if body.Frequencia != nil {
		data.Frequencia = *body.Frequencia
	}
	err := data.Validate(api.validate, api.translator)
	if body.Frequencia == nil {
		err = api.requireField(err, "frequencia")
	}
	if err != nil {
		return student.Input{}, err
	}
	return data, nil
}

// requireField adds a "required" error for fld to the validation errors in err.
func (api *studentApi) requireField(err error, fld string) error {
	msg, _ := api.translator.T("required", fld)
	var flds []core.FieldError
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		flds = append(flds, vErr.Fields...)
	} else if err != nil {
		return err
	}
	flds = append(flds, core.FieldError{Field: fld, Error: msg})
	return core.NewValidationError(nil, flds...)
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	data, err := api.bindInput(ctx)
	if err != nil {
		return err
	}
	st, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *studentApi) query(ctx echo.Context) error {
	students, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	data, err := api.bindInput(ctx)
	if err != nil {
		return err
	}
	st, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type reportApi struct {
	svc *student.Service
}

func registerReportAPI(g *echo.Group, svc *student.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/relatorios")
	rg.GET("", api.report)
	rg.GET("/media-turma", api.classAverage)
	rg.GET("/medias-por-disciplina", api.subjectAverages)
	rg.GET("/estudantes-acima-da-media", api.aboveAverage)
	rg.GET("/estudantes-com-baixa-frequencia", api.lowAttendance)
}

func (api *reportApi) report(ctx echo.Context) error {
	rep, err := api.svc.Report(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportApi) classAverage(ctx echo.Context) error {
	avg, err := api.svc.ClassAverage(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing class average")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"media_turma": avg})
}

func (api *reportApi) subjectAverages(ctx echo.Context) error {
	avgs, err := api.svc.SubjectAverages(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing subject averages")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"medias_por_disciplina": avgs})
}

func (api *reportApi) aboveAverage(ctx echo.Context) error {
	students, err := api.svc.AboveAverage(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing students above average")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"estudantes": students})
}

func (api *reportApi) lowAttendance(ctx echo.Context) error {
	limit := student.DefaultAttendanceLimit
	if raw := ctx.QueryParam(limitParam); raw != "" {
		l, err := strconv.ParseFloat(raw, 64)
		if err != nil || l < 0 || l > 100 {
			return core.NewValidationError(nil, core.FieldError{Field: limitParam, Error: "limite deve ser um número entre 0 e 100"})
		}
		limit = l
	}
	students, err := api.svc.LowAttendance(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "listing students with low attendance")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"estudantes": students})
}
