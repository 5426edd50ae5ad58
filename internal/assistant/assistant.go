// Package assistant runs one correction end to end on the client side: it
// checks the stored key, builds the prompt, calls the gateway, cleans up the
// answer and records it in the history.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/bz888/gramfix/internal/logger"
	"github.com/bz888/gramfix/internal/prompt"
	"github.com/bz888/gramfix/internal/session"
)

var (
	ErrEmptyInput        = errors.New("Please enter some text to correct.")
	ErrMissingCredential = errors.New("API Key missing. Please enter it first.")
	ErrBusy              = errors.New("A correction is already in progress.")
)

// Gateway is the part of api.Client the assistant needs.
type Gateway interface {
	Correct(ctx context.Context, text, apiKey string) (string, error)
}

type Result struct {
	Corrected   string
	Explanation string
	Entry       session.HistoryEntry
	InputWords  int
	OutputWords int
}

type Assistant struct {
	gateway  Gateway
	store    *session.Store
	inFlight atomic.Bool
	log      *logger.Logger
}

func New(gateway Gateway, store *session.Store) *Assistant {
	return &Assistant{
		gateway: gateway,
		store:   store,
		log:     logger.NewLogger("assistant"),
	}
}

func (a *Assistant) Store() *session.Store {
	return a.store
}

// Fix corrects input under settings. Nothing is recorded unless the gateway
// answers successfully. Only one call runs at a time; overlapping calls fail
// with ErrBusy.
func (a *Assistant) Fix(ctx context.Context, input string, settings prompt.Settings) (Result, error) {
	if strings.TrimSpace(input) == "" {
		return Result{}, ErrEmptyInput
	}
	if err := settings.Validate(); err != nil {
		return Result{}, err
	}

	apiKey, ok, err := a.store.LoadCredential()
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, ErrMissingCredential
	}

	if !a.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer a.inFlight.Store(false)

	mode := prompt.ModeFor(settings)
	raw, err := a.gateway.Correct(ctx, prompt.Build(input, settings, mode), apiKey)
	if err != nil {
		a.log.Warn("Correction failed: ", err)
		return Result{}, err
	}

	corrected, explanation := interpret(raw, mode)
	entry, err := a.store.RecordEntry(input, corrected, explanation, settings)
	if err != nil {
		return Result{}, fmt.Errorf("correction succeeded but could not be saved: %w", err)
	}

	a.log.WithField("mode", mode).Infof("Corrected %d words into %d words", prompt.CountWords(input), prompt.CountWords(corrected))
	return Result{
		Corrected:   corrected,
		Explanation: explanation,
		Entry:       entry,
		InputWords:  prompt.CountWords(input),
		OutputWords: prompt.CountWords(corrected),
	}, nil
}

// Busy reports whether a correction is running.
func (a *Assistant) Busy() bool {
	return a.inFlight.Load()
}

func interpret(raw string, mode prompt.Mode) (string, string) {
	if mode == prompt.ModeStructured {
		if parsed, ok := prompt.ParseStructured(raw); ok {
			return prompt.Normalize(parsed.CorrectedText), strings.TrimSpace(parsed.Explanation)
		}
	}
	return prompt.Normalize(raw), ""
}
