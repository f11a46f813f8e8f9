package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quangvd/barem/core"
	"github.com/quangvd/barem/core/similarity"
)

type similarityApi struct {
	service *similarity.Service
}

func RegisterSimilarityAPI(g *echo.Group, authed echo.MiddlewareFunc, svc *similarity.Service) {
	api := similarityApi{service: svc}

	dg := g.Group("/docfiles/:id", authed)
	dg.POST("/similarity-check", api.check)
	dg.GET("/similarity", api.cached)
	dg.DELETE("/similarity", api.forget)
	dg.POST("/verify-with-ai", api.verifyWithAI)
	dg.POST("/teacher-reverify", api.teacherReverify)
}

// pairView adds the embedded-viewer links the comparison screen needs.
type pairView struct {
	similarity.Pair
	DocFile1ViewerURL string `json:"docFile1ViewerUrl"`
	DocFile2ViewerURL string `json:"docFile2ViewerUrl"`
}

type resultView struct {
	similarity.Result
	Pairs []pairView `json:"pairs"`
}

func (api *similarityApi) view(res similarity.Result) resultView {
	pairs := make([]pairView, 0, len(res.Pairs))
	for _, p := range res.Pairs {
		pairs = append(pairs, pairView{
			Pair:              p,
			DocFile1ViewerURL: api.service.ViewerURL(p.DocFile1Path),
			DocFile2ViewerURL: api.service.ViewerURL(p.DocFile2Path),
		})
	}
	return resultView{Result: res, Pairs: pairs}
}

func (api *similarityApi) check(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	data := new(checkRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	res, err := api.service.Check(ctx.Request().Context(), id, *data.Threshold)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.view(res))
}

// cached restores the session-scoped result; returning from the
// comparison view must not trigger a new upstream computation.
func (api *similarityApi) cached(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := api.service.Cached(id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.view(res))
}

func (api *similarityApi) forget(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	api.service.Forget(id)
	return ctx.NoContent(http.StatusNoContent)
}

// verification runs against the result, not the document, so both verify
// routes require a prior check in this session.
func (api *similarityApi) verifyWithAI(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := api.service.Cached(id)
	if err != nil {
		return err
	}
	v, err := api.service.VerifyWithAI(ctx.Request().Context(), res.SimilarityResultID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *similarityApi) teacherReverify(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	data := new(reverifyRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}
	res, err := api.service.Cached(id)
	if err != nil {
		return err
	}
	if err := api.service.TeacherReverify(ctx.Request().Context(), res.SimilarityResultID, *data.IsSimilar, data.Notes); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusOK)
}

// Bindings

type checkRequest struct {
	Threshold *int `json:"threshold" validate:"required"`
}

func (r *checkRequest) Validate() error {
	return core.Validate.Struct(r)
}

type reverifyRequest struct {
	IsSimilar *bool  `json:"isSimilar" validate:"required"`
	Notes     string `json:"notes"`
}

func (r *reverifyRequest) Validate() error {
	return core.Validate.Struct(r)
}
