package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quangvd/barem/core"
	"github.com/quangvd/barem/core/exam"
	"github.com/quangvd/barem/services/gradeapi"
)

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
}

func setup(t *testing.T, handler http.Handler) (*commandLine, *core.Session) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	session, err := core.NewSession(nil, nil)
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	conf := &core.Config{
		APIBaseURL:     srv.URL,
		RequestTimeout: 5 * time.Second,
		PollInterval:   10 * time.Millisecond,
	}
	client := gradeapi.NewClient(conf, session, core.NopLogger{})
	cli := &commandLine{
		session: session,
		authApi: client,
		examSvc: exam.NewService(client, core.NopLogger{}),
		watcher: exam.NewParseWatcher(client, conf.PollInterval),
	}
	return cli, session
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func writeTempFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writeTempFile() failed: %v", err)
	}
	return path
}

func Test_commandLine_usage(t *testing.T) {
	cli, _ := setup(t, http.NotFoundHandler())
	mockPassword(t, "pwd")

	tests := []cliTest{
		{name: "no args", args: []string{}, wantErr: errHelp},
		{name: "unknown command", args: []string{"frobnicate"}, wantErr: errHelp},
		{name: "login without username", args: []string{"login"}, wantErr: errHelp},
		{name: "createexam without flags", args: []string{"createexam"}, wantErr: errHelp},
		{name: "createexam without title", args: []string{"createexam", "-code", "PE1"}, wantErr: errHelp},
		{name: "upload without exam", args: []string{"upload", "-zip", "x.zip"}, wantErr: errHelp},
		{name: "upload without file", args: []string{"upload", "-exam", "1"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func Test_commandLine_login(t *testing.T) {
	cli, session := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var creds core.Credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "grader", creds.Username)
		assert.Equal(t, "pwd", creds.Password)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"token":"t0k3n"}}`)
	}))
	mockPassword(t, "pwd")

	err := cli.run([]string{"admin", "login", "-username", "grader"})
	assert.NoError(t, err)
	assert.Equal(t, "t0k3n", session.Token())
}

func Test_commandLine_loginEmptyPassword(t *testing.T) {
	cli, _ := setup(t, http.NotFoundHandler())
	mockPassword(t, "")

	err := cli.run([]string{"admin", "login", "-username", "grader"})
	assert.Equal(t, errHelp, err)
}

func Test_commandLine_logout(t *testing.T) {
	cli, session := setup(t, http.NotFoundHandler())
	assert.NoError(t, session.Set("t0k3n"))

	assert.NoError(t, cli.run([]string{"admin", "logout"}))
	assert.False(t, session.Authenticated())
}

func Test_commandLine_createExam(t *testing.T) {
	cli, _ := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/exams", r.URL.Path)
		var ne exam.NewExam
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&ne))
		assert.Equal(t, "PE_PRN231", ne.ExamCode)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"id":3,"examCode":"PE_PRN231","title":"Final"}}`)
	}))

	err := cli.run([]string{"admin", "createexam", "-code", "PE_PRN231", "-title", "Final"})
	assert.NoError(t, err)
}

func Test_commandLine_uploadZip(t *testing.T) {
	var statusPolls int32
	cli, _ := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/exams/3/upload-zip":
			_, _, err := r.FormFile("file")
			assert.NoError(t, err)
			_, _ = io.WriteString(w, `{"data":{"examZipId":42}}`)
		case "/api/exam-zips/42/check-status":
			if atomic.AddInt32(&statusPolls, 1) < 2 {
				_, _ = io.WriteString(w, `{"data":{"examZipId":42,"parseStatus":"PENDING","processedCount":1,"totalCount":2}}`)
				return
			}
			_, _ = io.WriteString(w, `{"data":{"examZipId":42,"parseStatus":"DONE","processedCount":2,"totalCount":2}}`)
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	path := writeTempFile(t, "submissions.zip", "zipzip")
	err := cli.run([]string{"admin", "upload", "-exam", "3", "-zip", path})
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&statusPolls), int32(2))
}

func Test_commandLine_uploadRoster(t *testing.T) {
	cli, _ := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/exams/3/details", r.URL.Path)
		file, header, err := r.FormFile("file")
		assert.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "students.xlsx", header.Filename)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{}`)
	}))

	path := writeTempFile(t, "students.xlsx", "rows")
	assert.NoError(t, cli.run([]string{"admin", "upload", "-exam", "3", "-roster", path}))
}
