package engine

import (
	"errors"
	"fmt"
)

var ErrEmptyDeck = errors.New("no slides to render")

type Stage string

const (
	StageEmpty   Stage = "empty"
	StageDisk    Stage = "disk"
	StageDecode  Stage = "decode"
	StageSegment Stage = "segment"
	StageConcat  Stage = "concat"
)

// RenderError сообщает, на каком этапе и на каком слайде сломался рендер.
// Slide равен -1, если ошибка не относится к конкретному слайду.
type RenderError struct {
	Stage Stage
	Slide int
	Err   error
}

func (e *RenderError) Error() string {
	if e.Slide >= 0 {
		return fmt.Sprintf("render %s failed on slide %d: %v", e.Stage, e.Slide+1, e.Err)
	}
	return fmt.Sprintf("render %s failed: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
