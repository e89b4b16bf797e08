package controller

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ubilab-escape/operator/internal/platform/operr"
)

// GameOptions is the payload published on the gameOptions topic, parsed
// once and consumed at the next start.
type GameOptions struct {
	Duration     int    `json:"duration" validate:"required,min=1"`
	Participants int    `json:"participants" validate:"min=1"`
	SkipTo       string `json:"skipTo" validate:"omitempty"`
}

// defaultParticipants mirrors the factory's own zero-value fallback
// (definition.factory.go's Create), applied here too so an options
// payload that omits participants entirely still validates and still
// carries its duration/skipTo through to the controller.
const defaultParticipants = 4

var validate = validator.New()

// ParseOptions decodes and validates an inbound gameOptions payload.
func ParseOptions(raw []byte) (GameOptions, error) {
	var opts GameOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return GameOptions{}, operr.New(operr.InvalidOptions, "", fmt.Errorf("decode game options: %w", err))
	}
	if opts.Participants == 0 {
		opts.Participants = defaultParticipants
	}
	if err := validate.Struct(opts); err != nil {
		return GameOptions{}, operr.New(operr.InvalidOptions, "", err)
	}
	return opts, nil
}
