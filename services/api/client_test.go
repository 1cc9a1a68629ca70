package apisvc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core/student"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *recorder) record(req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, recordedRequest{Method: req.Method, Path: req.URL.Path, Body: string(body)})
}

func newTestServer(t *testing.T, status int, body string) (*Client, *recorder) {
	t.Helper()
	rec := new(recorder)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", 0), rec
}

func TestClient_Request_errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "detail string", status: http.StatusNotFound, body: `{"detail":"Aluno não encontrado"}`, want: "Aluno não encontrado"},
		{name: "detail list", status: http.StatusUnprocessableEntity, body: `{"detail":[{"loc":["body","nome"]}]}`, want: `[{"loc":["body","nome"]}]`},
		{name: "no detail", status: http.StatusBadRequest, body: `{"erro":"x"}`, want: `{"erro":"x"}`},
		{name: "empty detail", status: http.StatusConflict, body: `{"detail":""}`, want: `{"detail":""}`},
		{name: "not json", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, want: "Bad Gateway"},
		{name: "empty body", status: http.StatusInternalServerError, body: "", want: "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, tt.status, tt.body)
			err := client.Request(context.Background(), rest.Get, "/estudantes", nil, nil)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestClient_Request_noContent(t *testing.T) {
	client, rec := newTestServer(t, http.StatusNoContent, "")
	out := map[string]string{"kept": "yes"}
	require.NoError(t, client.Request(context.Background(), rest.Delete, "/estudantes/1", nil, &out))
	assert.Equal(t, map[string]string{"kept": "yes"}, out)
	assert.Equal(t, []recordedRequest{{Method: http.MethodDelete, Path: "/api/estudantes/1"}}, rec.requests)
}

func TestClient_Request_transportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1/api", time.Second)
	err := client.Request(context.Background(), rest.Get, "/estudantes", nil, nil)
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
}

func TestClient_CreateStudent(t *testing.T) {
	client, rec := newTestServer(t, http.StatusCreated, `{"id":"abc","nome":"Ana","notas":[6,7,8,5,9],"frequencia":42}`)

	st, err := client.CreateStudent(context.Background(), student.Input{Nome: "Ana", Frequencia: 42, Notas: []float64{6, 7, 8, 5, 9}})
	require.NoError(t, err)
	assert.Equal(t, "abc", st.ID)

	require.Len(t, rec.requests, 1)
	req := rec.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/estudantes", req.Path)
	assert.JSONEq(t, `{"nome":"Ana","frequencia":42,"notas":[6,7,8,5,9]}`, req.Body)
}

func TestClient_UpdateStudent(t *testing.T) {
	client, rec := newTestServer(t, http.StatusOK, `{"id":"abc","nome":"Ana","notas":[6,7,8,5,9],"frequencia":80}`)

	st, err := client.UpdateStudent(context.Background(), "abc", student.Input{Nome: "Ana", Frequencia: 80, Notas: []float64{6, 7, 8, 5, 9}})
	require.NoError(t, err)
	assert.Equal(t, 80.0, st.Frequencia)
	assert.Equal(t, http.MethodPut, rec.requests[0].Method)
	assert.Equal(t, "/api/estudantes/abc", rec.requests[0].Path)
}

func TestClient_reads(t *testing.T) {
	rep := student.BuildReport([]student.Student{{ID: "1", Nome: "Ana", Notas: []float64{6, 7, 8, 5, 9}, Frequencia: 42}})
	mux := http.NewServeMux()
	mux.HandleFunc("/api/estudantes", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]student.Student{{ID: "1", Nome: "Ana", Notas: []float64{6, 7, 8, 5, 9}, Frequencia: 42}})
	})
	mux.HandleFunc("/api/estudantes/1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(student.Student{ID: "1", Nome: "Ana", Notas: []float64{6, 7, 8, 5, 9}, Frequencia: 42})
	})
	mux.HandleFunc("/api/relatorios", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(rep)
	})
	mux.HandleFunc("/api/relatorios/medias-por-disciplina", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	client := NewClient(srv.URL+"/api", 0)

	students, err := client.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)

	st, err := client.GetStudent(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", st.Nome)

	gotRep, err := client.GetReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, rep, gotRep)

	avgs, err := client.GetSubjectAverages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []student.SubjectAverage{}, avgs)
}
