package apisvc

import (
	"context"

	"github.com/sendgrid/rest"

	"github.com/trezcool/escola/core/student"
)

func (c *Client) ListStudents(ctx context.Context) ([]student.Student, error) {
	students := make([]student.Student, 0)
	if err := c.Request(ctx, rest.Get, "/estudantes", nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

func (c *Client) GetStudent(ctx context.Context, id string) (student.Student, error) {
	var st student.Student
	if err := c.Request(ctx, rest.Get, studentPath(id), nil, &st); err != nil {
		return student.Student{}, err
	}
	return st, nil
}

func (c *Client) CreateStudent(ctx context.Context, in student.Input) (student.Student, error) {
	var st student.Student
	if err := c.Request(ctx, rest.Post, "/estudantes", in, &st); err != nil {
		return student.Student{}, err
	}
	return st, nil
}

func (c *Client) UpdateStudent(ctx context.Context, id string, in student.Input) (student.Student, error) {
	var st student.Student
	if err := c.Request(ctx, rest.Put, studentPath(id), in, &st); err != nil {
		return student.Student{}, err
	}
	return st, nil
}

func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	return c.Request(ctx, rest.Delete, studentPath(id), nil, nil)
}

func (c *Client) GetReport(ctx context.Context) (student.Report, error) {
	var rep student.Report
	if err := c.Request(ctx, rest.Get, "/relatorios", nil, &rep); err != nil {
		return student.Report{}, err
	}
	return rep, nil
}

func (c *Client) GetSubjectAverages(ctx context.Context) ([]student.SubjectAverage, error) {
	var res struct {
		MediasPorDisciplina []student.SubjectAverage `json:"medias_por_disciplina"`
	}
	if err := c.Request(ctx, rest.Get, "/relatorios/medias-por-disciplina", nil, &res); err != nil {
		return nil, err
	}
	if res.MediasPorDisciplina == nil {
		return []student.SubjectAverage{}, nil
	}
	return res.MediasPorDisciplina, nil
}
