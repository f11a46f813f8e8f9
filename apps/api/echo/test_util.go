package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/quangvd/barem/core"
	"github.com/quangvd/barem/core/exam"
	"github.com/quangvd/barem/core/grading"
	"github.com/quangvd/barem/core/similarity"
	"github.com/quangvd/barem/storage/inmem"
)

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	authed   bool
	wantCode int
	wantData []byte
	extra    interface{}
}

// fakeBackend is an in-memory stand-in for the remote grading backend,
// implementing every upstream interface the server consumes.
type fakeBackend struct {
	mu     sync.Mutex
	nextID int

	exams     map[int]exam.Exam
	students  map[int][]exam.ExamStudent // examID -> students
	questions map[int][]exam.Question    // examID -> rubric tree
	zips      map[int]exam.ZipStatus     // zipID -> status

	grades  []grading.Grade
	details map[int][]grading.GradeDetail // gradeID -> rows

	simResults map[int]similarity.Result // docFileID -> canned answer

	loginErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextID:     1000,
		exams:      make(map[int]exam.Exam),
		students:   make(map[int][]exam.ExamStudent),
		questions:  make(map[int][]exam.Question),
		zips:       make(map[int]exam.ZipStatus),
		details:    make(map[int][]grading.GradeDetail),
		simResults: make(map[int]similarity.Result),
	}
}

func (f *fakeBackend) id() int {
	f.nextID++
	return f.nextID
}

// core.AuthAPI

func (f *fakeBackend) Login(ctx context.Context, creds core.Credentials) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return "t0k3n-" + creds.Username, nil
}

func (f *fakeBackend) Register(ctx context.Context, acc core.NewAccount) error { return nil }

// exam.API

func (f *fakeBackend) Exams(ctx context.Context, filter exam.ListFilter) (exam.ExamPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := exam.ExamPage{Exams: []exam.Exam{}}
	for _, e := range f.exams {
		page.Exams = append(page.Exams, e)
	}
	page.TotalItems = len(page.Exams)
	page.TotalPages = 1
	page.CurrentItems = len(page.Exams)
	return page, nil
}

func (f *fakeBackend) MyExams(ctx context.Context, filter exam.ListFilter) (exam.ExamPage, error) {
	return f.Exams(ctx, filter)
}

func (f *fakeBackend) Exam(ctx context.Context, id int) (exam.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.exams[id]
	if !ok {
		return exam.Exam{}, exam.ErrNotFound
	}
	return e, nil
}

func (f *fakeBackend) CreateExam(ctx context.Context, ne exam.NewExam) (exam.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := exam.Exam{ID: f.id(), ExamCode: ne.ExamCode, Title: ne.Title, Description: ne.Description}
	f.exams[e.ID] = e
	return e, nil
}

func (f *fakeBackend) DeleteExam(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.exams[id]; !ok {
		return exam.ErrNotFound
	}
	delete(f.exams, id)
	return nil
}

func (f *fakeBackend) Students(ctx context.Context, examID int, filter exam.StudentFilter) (exam.StudentPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := exam.StudentPage{Students: []exam.ExamStudent{}}
	for _, s := range f.students[examID] {
		if filter.Status != exam.StudentStatusAll && filter.Status != "" && s.Status != filter.Status {
			continue
		}
		page.Students = append(page.Students, s)
	}
	page.TotalItems = len(page.Students)
	page.TotalPages = 1
	page.CurrentItems = len(page.Students)
	return page, nil
}

func (f *fakeBackend) Questions(ctx context.Context, examID int) ([]exam.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.questions[examID], nil
}

func (f *fakeBackend) ZipHistory(ctx context.Context, examID int, filter exam.ListFilter) ([]exam.ExamZip, error) {
	return nil, nil
}

func (f *fakeBackend) ZipStatus(ctx context.Context, zipID int) (exam.ZipStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.zips[zipID]
	if !ok {
		return exam.ZipStatus{}, exam.ErrNotFound
	}
	return status, nil
}

func (f *fakeBackend) UploadDescription(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress exam.ProgressFunc) error {
	_, err := io.Copy(io.Discard, file)
	return err
}

func (f *fakeBackend) UploadRoster(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress exam.ProgressFunc) error {
	_, err := io.Copy(io.Discard, file)
	return err
}

func (f *fakeBackend) UploadZip(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress exam.ProgressFunc) (int, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	zipID := f.id()
	f.zips[zipID] = exam.ZipStatus{ExamZipID: zipID, ParseStatus: exam.ParseStatusPending}
	return zipID, nil
}

// grading.API

func (f *fakeBackend) GradeHistory(ctx context.Context, examStudentID int) ([]grading.Grade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []grading.Grade
	for _, g := range f.grades {
		if g.ExamStudentID == examStudentID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeBackend) GradeWithDetails(ctx context.Context, gradeID int) (grading.Grade, []grading.GradeDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.grades {
		if g.ID == gradeID {
			return g, f.details[gradeID], nil
		}
	}
	return grading.Grade{}, nil, errors.New("grade not found")
}

func (f *fakeBackend) CreateGrade(ctx context.Context, g grading.Grade) (grading.Grade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g.ID = f.id()
	f.grades = append(f.grades, g)

	// the backend materializes one detail row per rubric criterion
	var rows []grading.GradeDetail
	for _, questions := range f.questions {
		for _, q := range questions {
			for _, r := range q.Rubrics {
				rows = append(rows, grading.GradeDetail{ID: f.id(), GradeID: g.ID, RubricID: r.ID})
			}
		}
	}
	f.details[g.ID] = rows
	return g, nil
}

func (f *fakeBackend) UpdateGrade(ctx context.Context, g grading.Grade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.grades {
		if f.grades[i].ID == g.ID {
			f.grades[i] = g
			return nil
		}
	}
	return errors.New("grade not found")
}

func (f *fakeBackend) UpdateGradeDetail(ctx context.Context, detailID int, d grading.GradeDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rows := range f.details {
		for i := range rows {
			if rows[i].ID == detailID {
				rows[i].Score = d.Score
				return nil
			}
		}
	}
	return errors.New("detail not found")
}

// similarity.API

func (f *fakeBackend) Check(ctx context.Context, docFileID int, threshold float64) (similarity.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := f.simResults[docFileID]; ok {
		return res, nil
	}
	return similarity.Result{SimilarityResultID: f.id()}, nil
}

func (f *fakeBackend) VerifyWithAI(ctx context.Context, similarityResultID int) (similarity.AIVerification, error) {
	return similarity.AIVerification{Verdict: "LIKELY_SIMILAR", Confidence: 0.9}, nil
}

func (f *fakeBackend) TeacherReverify(ctx context.Context, similarityResultID int, isSimilar bool, notes string) error {
	return nil
}

// server setup

func testConfig() *core.Config {
	conf := &core.Config{
		AppName:             "Barem",
		Env:                 "TEST",
		TestMode:            true,
		APIBaseURL:          "http://localhost:5064/api",
		RequestTimeout:      5 * time.Second,
		PollInterval:        10 * time.Millisecond,
		AutosaveDebounce:    10 * time.Millisecond,
		PageSize:            12,
		OfficeViewerBaseURL: "https://view.officeapps.live.com/op/embed.aspx?src=",
	}
	return conf
}

func newTestServer(t *testing.T, backend *fakeBackend) (Server, *core.Session) {
	conf := testConfig()
	logger := core.NopLogger{}

	session, err := core.NewSession(nil, nil)
	if err != nil {
		t.Fatalf("newTestServer() failed: %v", err)
	}

	examSvc := exam.NewService(backend, logger)
	srv := NewServer(&Options{
		Addr:           ":0",
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         logger,
		Session:        session,
		AuthAPI:        backend,
		ExamSvc:        examSvc,
		Watcher:        exam.NewParseWatcher(backend, conf.PollInterval),
		GradingMgr:     grading.NewManager(backend, examSvc, logger, conf.AutosaveDebounce),
		SimilaritySvc:  similarity.NewService(backend, inmem.NewResultStore(), conf, logger),
	})
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	return srv, session
}

func doRequest(srv Server, method, path string, data ...[]byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func doUpload(t *testing.T, srv Server, method, path, filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("doUpload() failed: %v", err)
	}
	if _, err = part.Write(content); err != nil {
		t.Fatalf("doUpload() failed: %v", err)
	}
	if err = mw.Close(); err != nil {
		t.Fatalf("doUpload() failed: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

// jsonDiff renders a unified diff of the two payloads for readable failures.
func jsonDiff(got, want []byte) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(prettyJSON(want)),
		B:        difflib.SplitLines(prettyJSON(got)),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		return fmt.Sprintf("diff failed: %v", err)
	}
	return diff
}

func prettyJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v; body = %s", err, rec.Body.String())
		return
	}
	if !ok {
		t.Errorf("body mismatch:\n%s", jsonDiff(rec.Body.Bytes(), tt.wantData))
	}
}
