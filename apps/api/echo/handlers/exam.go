package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/quangvd/barem/core/exam"
)

type examApi struct {
	service *exam.Service
	watcher *exam.ParseWatcher
}

func RegisterExamAPI(g *echo.Group, authed echo.MiddlewareFunc, svc *exam.Service, watcher *exam.ParseWatcher) {
	api := examApi{service: svc, watcher: watcher}

	eg := g.Group("/exams", authed)
	eg.GET("", api.examQuery)
	eg.POST("", api.examCreate)
	eg.GET("/me", api.examQueryMine)
	eg.GET("/:id", api.examRetrieve)
	eg.DELETE("/:id", api.examDestroy)
	eg.GET("/:id/students", api.studentQuery)
	eg.GET("/:id/gradable", api.studentQueryGradable)
	eg.GET("/:id/questions", api.questionQuery)
	eg.PUT("/:id/description", api.uploadDescription)
	eg.POST("/:id/roster", api.uploadRoster)
	eg.POST("/:id/zip", api.uploadZip)

	zg := g.Group("/exam-zips", authed)
	zg.GET("", api.zipHistory)
	zg.GET("/:id/status", api.zipStatus)
}

// Handlers

func (api *examApi) examQuery(ctx echo.Context) error {
	page, err := api.service.Exams(ctx.Request().Context(), listFilter(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *examApi) examQueryMine(ctx echo.Context) error {
	page, err := api.service.MyExams(ctx.Request().Context(), listFilter(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *examApi) examCreate(ctx echo.Context) error {
	data := new(exam.NewExam)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	created, err := api.service.Create(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, created)
}

func (api *examApi) examRetrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	e, err := api.service.Exam(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *examApi) examDestroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.service.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *examApi) studentQuery(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	filter := exam.StudentFilter{
		Page:   queryInt(ctx, "page", 1),
		Size:   queryInt(ctx, "size", 12),
		Status: exam.StudentStatus(ctx.QueryParam("status")),
		Search: ctx.QueryParam("search"),
	}
	page, err := api.service.Students(ctx.Request().Context(), id, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *examApi) studentQueryGradable(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	students, err := api.service.Gradable(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *examApi) questionQuery(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	questions, err := api.service.Questions(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *examApi) uploadDescription(ctx echo.Context) error {
	return api.upload(ctx, api.service.UploadDescription)
}

func (api *examApi) uploadRoster(ctx echo.Context) error {
	return api.upload(ctx, api.service.UploadRoster)
}

func (api *examApi) uploadZip(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	file, src, err := formFile(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	zipID, err := api.service.UploadZip(ctx.Request().Context(), id, src, file.Filename, file.Size, nil)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"examZipId": zipID})
}

func (api *examApi) zipHistory(ctx echo.Context) error {
	examID := queryInt(ctx, "examId", 0)
	if examID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "examId is required")
	}
	filter := exam.ListFilter{Page: queryInt(ctx, "page", 1), Size: queryInt(ctx, "size", 12)}
	zips, err := api.service.ZipHistory(ctx.Request().Context(), examID, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, zips)
}

// zipStatus is the poll target for a frontend driving the upload workflow;
// it answers one status check, terminal or not.
func (api *examApi) zipStatus(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	status, err := api.service.ZipStatus(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, status)
}

// helpers

// uploadFunc is the shape shared by the description and roster uploads.
type uploadFunc func(ctx context.Context, examID int, file io.Reader, filename string, size int64, progress exam.ProgressFunc) error

func (api *examApi) upload(ctx echo.Context, up uploadFunc) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	file, src, err := formFile(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := up(ctx.Request().Context(), id, src, file.Filename, file.Size, nil); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusOK)
}

func formFile(ctx echo.Context) (*multipart.FileHeader, multipart.File, error) {
	file, err := ctx.FormFile("file")
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "a file is required")
	}
	src, err := file.Open()
	if err != nil {
		return nil, nil, err
	}
	return file, src, nil
}

func pathID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func queryInt(ctx echo.Context, name string, fallback int) int {
	v, err := strconv.Atoi(ctx.QueryParam(name))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func listFilter(ctx echo.Context) exam.ListFilter {
	return exam.ListFilter{
		Page:   queryInt(ctx, "page", 1),
		Size:   queryInt(ctx, "size", 12),
		Search: ctx.QueryParam("search"),
	}
}
