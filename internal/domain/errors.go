package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidQuery = errors.New("invalid ingestion query")

type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %s is required", e.Key)
}

type UnknownSourceError struct {
	Name  string
	Known []string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type NormalizationError struct {
	Source   string
	RecordID string
	Err      error
}

func (e *NormalizationError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("normalize %s record: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("normalize %s record %s: %v", e.Source, e.RecordID, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}
