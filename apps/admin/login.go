package main

import (
	"context"
	"fmt"

	"github.com/quangvd/barem/core"
)

func (cli *commandLine) login(uname, pwd string) error {
	creds := core.Credentials{Username: uname, Password: pwd}
	if err := creds.Validate(); err != nil {
		return err
	}

	token, err := cli.authApi.Login(context.Background(), creds)
	if err != nil {
		return err
	}
	if err := cli.session.Set(token); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s.\n", creds.Username)
	return nil
}
