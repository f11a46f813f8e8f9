package gradeapi

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pkg/errors"
)

// progressReader counts bytes handed to the transport and reports them to
// the caller's callback.
type progressReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress func(sent, total int64)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.sent += int64(n)
		if pr.progress != nil {
			pr.progress(pr.sent, pr.total)
		}
	}
	return n, err
}

// doMultipart streams file as a single "file" form field. The body is
// piped; nothing is buffered in full.
func (c *Client) doMultipart(ctx context.Context, method, path string, file io.Reader, filename string, size int64, progress func(sent, total int64), out interface{}) error {
	src := &progressReader{r: file, total: size, progress: progress}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, src)
		}
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, nil), pr)
	if err != nil {
		return errors.Wrap(err, "gradeapi: building upload request")
	}
	// multipart carries its own content type with the boundary
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, out)
}
