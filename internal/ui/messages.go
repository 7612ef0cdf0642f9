package ui

import (
	"github.com/loopsmith/loopsmith/internal/pipeline"
)

// ProgressMsg reports that a pipeline stage finished for the current file
type ProgressMsg struct {
	FileIndex int
	Stage     string // "trim", "gate", "crossfade", ...
	Done      int
	Total     int
}

// FileStartMsg indicates a new file has started processing
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file has finished processing
type FileCompleteMsg struct {
	FileIndex  int
	OutputPath string
	Result     *pipeline.Result
	Error      error
}

// AllCompleteMsg indicates all files have been processed
type AllCompleteMsg struct{}
