package main

import (
	"context"
	"fmt"

	"github.com/quangvd/barem/core/exam"
)

func (cli *commandLine) createExam(code, title, description string) error {
	created, err := cli.examSvc.Create(context.Background(), exam.NewExam{
		ExamCode:    code,
		Title:       title,
		Description: description,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created exam %d: %s (%s)\n", created.ID, created.Title, created.ExamCode)
	return nil
}
