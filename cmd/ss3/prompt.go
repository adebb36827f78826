package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"example.com/ss3/pkg/errs"
)

// confirm prints msg and reads one line; only "y" or "yes" confirms.
func confirm(in io.Reader, out io.Writer, msg string) (bool, error) {
	fmt.Fprint(out, msg)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, errs.Wrap(errs.KindIO, "read confirmation", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
