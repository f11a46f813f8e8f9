package similarity

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/quangvd/barem/core"
)

var (
	ErrNotCached = errors.New("no cached similarity result for this document")

	thresholdText = "threshold must be a percentage between 1 and 100"
)

type (
	// API is the slice of the remote backend computing similarity and
	// running verification.
	API interface {
		Check(ctx context.Context, docFileID int, threshold float64) (Result, error)
		VerifyWithAI(ctx context.Context, similarityResultID int) (AIVerification, error)
		TeacherReverify(ctx context.Context, similarityResultID int, isSimilar bool, notes string) error
	}

	// Store is the session-scoped result cache, keyed by document id, so
	// that returning from the comparison view restores the result instead
	// of re-querying.
	Store interface {
		Get(docFileID int) (Result, bool)
		Put(res Result)
		Delete(docFileID int)
	}

	Service struct {
		api    API
		store  Store
		viewer string // office viewer embed prefix
		logger core.Logger
	}
)

func NewService(api API, store Store, conf *core.Config, logger core.Logger) *Service {
	return &Service{api: api, store: store, viewer: conf.OfficeViewerBaseURL, logger: logger}
}

// Check runs a similarity computation for one document. The threshold is a
// whole percent in [1, 100]; it goes upstream as a fraction. The result
// replaces any cached one for the document.
func (svc *Service) Check(ctx context.Context, docFileID, thresholdPercent int) (Result, error) {
	if thresholdPercent < 1 || thresholdPercent > 100 {
		return Result{}, core.NewValidationError(
			errors.New("invalid similarity threshold"),
			core.FieldError{Field: "threshold", Error: thresholdText},
		)
	}
	threshold := float64(thresholdPercent) / 100

	res, err := svc.api.Check(ctx, docFileID, threshold)
	if err != nil {
		return Result{}, err
	}
	res.DocFileID = docFileID
	res.Threshold = threshold
	svc.store.Put(res)
	return res, nil
}

// Cached returns the session-scoped result for a document without any
// network call.
func (svc *Service) Cached(docFileID int) (Result, error) {
	res, ok := svc.store.Get(docFileID)
	if !ok {
		return Result{}, ErrNotCached
	}
	return res, nil
}

// Forget drops the cached result for a document.
func (svc *Service) Forget(docFileID int) {
	svc.store.Delete(docFileID)
}

func (svc *Service) VerifyWithAI(ctx context.Context, similarityResultID int) (AIVerification, error) {
	return svc.api.VerifyWithAI(ctx, similarityResultID)
}

func (svc *Service) TeacherReverify(ctx context.Context, similarityResultID int, isSimilar bool, notes string) error {
	return svc.api.TeacherReverify(ctx, similarityResultID, isSimilar, core.CleanString(notes))
}

// ViewerURL builds the embedded office viewer link for a stored document
// URL. Empty in, empty out.
func (svc *Service) ViewerURL(raw string) string {
	if raw == "" {
		return ""
	}
	return svc.viewer + url.QueryEscape(raw)
}
