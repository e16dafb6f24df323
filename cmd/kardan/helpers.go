package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
)

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerrors.New(fmt.Sprintf("invalid id %q", s), goerrors.CategoryBadInput).
			WithTextCode("INVALID_ID")
	}
	return id, nil
}

// formatError prints taxonomy errors as "TEXT_CODE: message".
func formatError(err error) string {
	var e *goerrors.Error
	if goerrors.As(err, &e) && e.TextCode != "" {
		msg := e.Message
		for _, v := range e.ValidationErrors {
			msg += fmt.Sprintf("\n  %s: %s", v.Field, v.Message)
		}
		return e.TextCode + ": " + msg
	}
	return "error: " + err.Error()
}

func exitCode(err error) int {
	var e *goerrors.Error
	if !goerrors.As(err, &e) {
		// cobra argument errors land here too
		return exitUserError
	}
	switch e.Category {
	case goerrors.CategoryInternal:
		return exitSysError
	default:
		return exitUserError
	}
}
