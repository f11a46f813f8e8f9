package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quangvd/barem/core"
	"github.com/quangvd/barem/core/exam"
	"github.com/quangvd/barem/core/grading"
)

type gradingApi struct {
	manager *grading.Manager
}

func RegisterGradingAPI(g *echo.Group, authed echo.MiddlewareFunc, mgr *grading.Manager) {
	api := gradingApi{manager: mgr}

	sg := g.Group("/students/:id", authed)
	sg.GET("/grading", api.gradingView)
	sg.PUT("/scores/:rubricId", api.scoreUpdate)
	sg.PUT("/comment", api.commentUpdate)
	sg.POST("/grade", api.gradeSave)
	sg.GET("/grades", api.gradeHistory)
	sg.POST("/grades/:gradeId/load", api.gradeLoad)
}

// gradingView is what the grading screen renders: the rubric tree, the
// current inputs and the attempt history, all behind one concrete grade
// handle.
type gradingView struct {
	ExamStudentID int             `json:"examStudentId"`
	GradeID       int             `json:"gradeId"`
	Questions     []exam.Question `json:"questions"`
	Scores        map[int]float64 `json:"scores"`
	Comment       string          `json:"comment"`
	Total         float64         `json:"total"`
	History       []grading.Grade `json:"history"`
}

func (api *gradingApi) session(ctx echo.Context) (*grading.Session, error) {
	studentID, err := pathID(ctx, "id")
	if err != nil {
		return nil, err
	}
	examID := queryInt(ctx, "examId", 0)
	if examID == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "examId is required")
	}
	return api.manager.Session(ctx.Request().Context(), examID, studentID)
}

func (api *gradingApi) view(sess *grading.Session) gradingView {
	return gradingView{
		ExamStudentID: sess.ExamStudentID(),
		GradeID:       sess.GradeID(),
		Questions:     sess.Questions(),
		Scores:        sess.Scores(),
		Comment:       sess.Comment(),
		Total:         sess.Total(),
		History:       sess.History(),
	}
}

func (api *gradingApi) gradingView(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.view(sess))
}

func (api *gradingApi) scoreUpdate(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	rubricID, err := pathID(ctx, "rubricId")
	if err != nil {
		return err
	}

	data := new(scoreRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := sess.SetScore(ctx.Request().Context(), rubricID, *data.Score); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"total": sess.Total()})
}

func (api *gradingApi) commentUpdate(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	data := new(commentRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	sess.SetComment(data.Comment)
	return ctx.NoContent(http.StatusOK)
}

func (api *gradingApi) gradeSave(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	grade, err := sess.Save(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grade)
}

func (api *gradingApi) gradeHistory(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	history, err := sess.ReloadHistory(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, history)
}

func (api *gradingApi) gradeLoad(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	gradeID, err := pathID(ctx, "gradeId")
	if err != nil {
		return err
	}
	if err := sess.LoadAttempt(ctx.Request().Context(), gradeID); err != nil {
		if err == grading.ErrNoGrade {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return ctx.JSON(http.StatusOK, api.view(sess))
}

// Bindings

type scoreRequest struct {
	Score *float64 `json:"score" validate:"required"`
}

func (r *scoreRequest) Validate() error {
	return core.Validate.Struct(r)
}

type commentRequest struct {
	Comment string `json:"comment"`
}
