package similarity

import "time"

// Pair is one candidate pair of submissions flagged above the threshold.
type Pair struct {
	Student1Code    string  `json:"student1Code"`
	Student2Code    string  `json:"student2Code"`
	DocFile1Name    string  `json:"docFile1Name"`
	DocFile1Path    string  `json:"docFile1Path"`
	DocFile2Name    string  `json:"docFile2Name"`
	DocFile2Path    string  `json:"docFile2Path"`
	SimilarityScore float64 `json:"similarityScore"`
}

// Result is one similarity computation against one document. It is never
// persisted beyond the session-scoped cache keyed by DocFileID.
type Result struct {
	SimilarityResultID  int     `json:"similarityResultId"`
	DocFileID           int     `json:"docFileId"`
	Threshold           float64 `json:"threshold"` // fraction, not percent
	PairsChecked        int     `json:"pairsChecked"`
	PairsAboveThreshold int     `json:"pairsAboveThreshold"`
	Pairs               []Pair  `json:"pairs"`
}

// AIVerification is the outcome of an AI re-check of a flagged result,
// optionally overridden by the teacher.
type AIVerification struct {
	Verdict                string     `json:"verdict"`
	Confidence             float64    `json:"confidence"`
	Explanation            string     `json:"explanation"`
	TeacherVerifiedSimilar *bool      `json:"teacherVerifiedSimilar"`
	TeacherNotes           string     `json:"teacherNotes"`
	TeacherVerifiedAt      *time.Time `json:"teacherVerifiedAt"`
}
