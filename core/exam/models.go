package exam

import (
	"time"
)

// ParseStatus is the server-side archive processing state.
type ParseStatus string

const (
	ParseStatusPending ParseStatus = "PENDING"
	ParseStatusDone    ParseStatus = "DONE"
	ParseStatusError   ParseStatus = "ERROR"
)

// Terminal reports whether polling should stop at this status.
func (s ParseStatus) Terminal() bool {
	return s == ParseStatusDone || s == ParseStatusError
}

// StudentStatus is assigned by the server-side archive parser.
type StudentStatus string

const (
	StudentStatusAll      StudentStatus = "ALL" // filter-only, never stored
	StudentStatusParsed   StudentStatus = "PARSED"
	StudentStatusNotFound StudentStatus = "NOT_FOUND"
	StudentStatusGraded   StudentStatus = "GRADED"
)

var studentStatuses = map[StudentStatus]bool{
	StudentStatusAll:      true,
	StudentStatusParsed:   true,
	StudentStatusNotFound: true,
	StudentStatusGraded:   true,
}

func ValidStudentStatus(s StudentStatus) bool {
	return studentStatuses[s]
}

type Exam struct {
	ID          int    `json:"id"`
	ExamCode    string `json:"examCode"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type NewExam struct {
	ExamCode    string `json:"examCode" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type DocFile struct {
	DocFileID int    `json:"docFileId"`
	FileName  string `json:"fileName"`
	FilePath  string `json:"filePath"`
}

type ExamStudent struct {
	ExamStudentID int           `json:"examStudentId"`
	StudentName   string        `json:"studentName"`
	StudentCode   string        `json:"studentCode"`
	Status        StudentStatus `json:"status"`
	Note          string        `json:"note"`
	DocFiles      []DocFile     `json:"docFiles"`
}

// Gradable reports whether the student can be navigated into the grading
// view: parsed (or already graded) with at least one submitted document.
func (s ExamStudent) Gradable() bool {
	if s.Status != StudentStatusParsed && s.Status != StudentStatusGraded {
		return false
	}
	return len(s.DocFiles) > 0
}

// LatestDoc returns the most recent submitted document, the one the
// grading view previews.
func (s ExamStudent) LatestDoc() (DocFile, bool) {
	if len(s.DocFiles) == 0 {
		return DocFile{}, false
	}
	return s.DocFiles[len(s.DocFiles)-1], true
}

// ExamZip is the archive upload record; mutated server-side as parsing
// proceeds, the client only polls and re-reads it.
type ExamZip struct {
	ExamZipID   int         `json:"examZipId"`
	ZipName     string      `json:"zipName"`
	UploadedAt  time.Time   `json:"uploadedAt"`
	ParseStatus ParseStatus `json:"parseStatus"`
}

// ZipStatus is the answer of the check-status endpoint.
type ZipStatus struct {
	ExamZipID      int         `json:"examZipId"`
	ParseStatus    ParseStatus `json:"parseStatus"`
	ProcessedCount int         `json:"processedCount"`
	TotalCount     int         `json:"totalCount"`
	ParseSummary   string      `json:"parseSummary"`
	Errors         []string    `json:"errors"`
	FailedStudents []string    `json:"failedStudents"`
}

type Rubric struct {
	ID          int     `json:"id"`
	Description string  `json:"description"`
	MaxScore    float64 `json:"maxScore"`
	OrderIndex  int     `json:"orderIndex"`
}

type Question struct {
	ID             int      `json:"id"`
	QuestionNumber int      `json:"questionNumber"`
	Text           string   `json:"text"`
	MaxScore       float64  `json:"maxScore"`
	Rubrics        []Rubric `json:"rubrics"`
}

// Page carries the backend's pagination envelope fields.
type Page struct {
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
	CurrentItems int `json:"currentItems"`
}

type ExamPage struct {
	Exams []Exam `json:"result"`
	Page
}

type StudentPage struct {
	Students []ExamStudent `json:"result"`
	Page
}

type ListFilter struct {
	Page   int
	Size   int
	Search string
}

type StudentFilter struct {
	Page   int
	Size   int
	Status StudentStatus // StudentStatusAll sends no status param
	Search string
}
