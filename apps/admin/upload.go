package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quangvd/barem/core/exam"
)

func (cli *commandLine) uploadDescription(examID int, path string) error {
	return cli.uploadFile(path, "description", func(ctx context.Context, f *os.File, size int64) error {
		return cli.examSvc.UploadDescription(ctx, examID, f, filepath.Base(path), size, printProgress)
	})
}

func (cli *commandLine) uploadRoster(examID int, path string) error {
	return cli.uploadFile(path, "roster", func(ctx context.Context, f *os.File, size int64) error {
		return cli.examSvc.UploadRoster(ctx, examID, f, filepath.Base(path), size, printProgress)
	})
}

// uploadZip pushes the archive and then watches the parse until it reaches a
// terminal status, printing progress along the way.
func (cli *commandLine) uploadZip(examID int, path string) error {
	ctx := context.Background()

	var zipID int
	err := cli.uploadFile(path, "zip", func(ctx context.Context, f *os.File, size int64) error {
		var err error
		zipID, err = cli.examSvc.UploadZip(ctx, examID, f, filepath.Base(path), size, printProgress)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("Archive accepted (zip %d); waiting for parsing...\n", zipID)
	status, err := cli.watcher.Watch(ctx, zipID, func(s exam.ZipStatus) {
		fmt.Printf("  processed %d/%d students\n", s.ProcessedCount, s.TotalCount)
	})
	if err != nil {
		return err
	}
	if status.ParseSummary != "" {
		fmt.Println(status.ParseSummary)
	}
	fmt.Println("Parsing done.")
	return nil
}

func (cli *commandLine) uploadFile(path, kind string, send func(ctx context.Context, f *os.File, size int64) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	fmt.Printf("Uploading %s %s (%d bytes)...\n", kind, filepath.Base(path), info.Size())
	if err := send(context.Background(), f, info.Size()); err != nil {
		return err
	}
	fmt.Println("Upload complete.")
	return nil
}

func printProgress(sent, total int64) {
	if total > 0 {
		fmt.Printf("\r  %d/%d bytes", sent, total)
		if sent >= total {
			fmt.Println()
		}
		return
	}
	fmt.Printf("\r  %d bytes", sent)
}
