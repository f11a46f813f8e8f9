package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/quangvd/barem/core"
	"github.com/quangvd/barem/core/exam"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	session *core.Session
	authApi core.AuthAPI
	examSvc *exam.Service
	watcher *exam.ParseWatcher
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  login -username USERNAME - log in to the grading backend")
	fmt.Println("  logout - drop the stored session token")
	fmt.Println("  createexam -code CODE -title TITLE [-description TEXT] - create an exam turn")
	fmt.Println("  upload -exam ID [-description FILE] [-roster FILE] [-zip FILE] - upload exam material in order")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	loginUname := loginCmd.String("username", "", "The operator's username. The password will be prompted next.")

	createExamCmd := flag.NewFlagSet("createexam", flag.ExitOnError)
	createExamCode := createExamCmd.String("code", "", "The exam code, e.g. PE_PRN231_SU23.")
	createExamTitle := createExamCmd.String("title", "", "The exam title.")
	createExamDesc := createExamCmd.String("description", "", "An optional free-text description.")

	uploadCmd := flag.NewFlagSet("upload", flag.ExitOnError)
	uploadExamID := uploadCmd.Int("exam", 0, "The exam id to upload to.")
	uploadDescription := uploadCmd.String("description", "", "Path to the exam description document.")
	uploadRoster := uploadCmd.String("roster", "", "Path to the student roster spreadsheet.")
	uploadZip := uploadCmd.String("zip", "", "Path to the submissions archive. Parsing is watched until it completes.")

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginUname == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(*loginUname, string(pwd))
	case "logout":
		cli.session.Expire()
		fmt.Println("Logged out.")
		return nil
	case "createexam":
		if err := createExamCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createExamCode == "" || *createExamTitle == "" {
			createExamCmd.Usage()
			return errHelp
		}
		return cli.createExam(*createExamCode, *createExamTitle, *createExamDesc)
	case "upload":
		if err := uploadCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *uploadExamID == 0 {
			uploadCmd.Usage()
			return errHelp
		}
		if *uploadDescription == "" && *uploadRoster == "" && *uploadZip == "" {
			uploadCmd.Usage()
			return errHelp
		}
		// the three steps run in upload order; each is optional
		if *uploadDescription != "" {
			if err := cli.uploadDescription(*uploadExamID, *uploadDescription); err != nil {
				return err
			}
		}
		if *uploadRoster != "" {
			if err := cli.uploadRoster(*uploadExamID, *uploadRoster); err != nil {
				return err
			}
		}
		if *uploadZip != "" {
			if err := cli.uploadZip(*uploadExamID, *uploadZip); err != nil {
				return err
			}
		}
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}
