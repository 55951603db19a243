package main

import (
	"fmt"
	"os"
	"strings"
)

type provider interface {
	Password() (string, error)
}

type flagProvider string

func (p flagProvider) Password() (string, error) {
	return string(p), nil
}

type fileProvider struct {
	pwdPath string
}

func newFileProvider(pwdPath string) (provider, error) {
	if pwdPath == "" {
		return nil, fmt.Errorf("invalid flag: %s must not be null", passwordFileFlag)
	}
	if !pathExists(pwdPath) {
		return nil, fmt.Errorf("invalid flag: %s must be an existing path", passwordFileFlag)
	}
	return &fileProvider{pwdPath}, nil
}

// Password returns the content of the file without the trailing newline.
func (fp *fileProvider) Password() (string, error) {
	buf, err := os.ReadFile(fp.pwdPath)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(buf), "\r\n"), nil
}

func getProvider() (provider, error) {
	if password != "" && passwordFile != "" {
		return nil, fmt.Errorf(
			"flags --%s and --%s are mutually exclusive", passwordFlag, passwordFileFlag,
		)
	}
	if passwordFile != "" {
		return newFileProvider(passwordFile)
	}
	if password == "" {
		return nil, fmt.Errorf("one of --%s or --%s is required", passwordFlag, passwordFileFlag)
	}
	return flagProvider(password), nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
