// Package pipeline drives a cattle registration from image collection
// through nose-print validation, compression and submission. Stages run
// strictly in that order; no image ever reaches the backend without
// passing the validator first.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dengarop/herdbook/internal/api"
	"github.com/dengarop/herdbook/internal/classifier"
	"github.com/dengarop/herdbook/internal/imaging"
	"github.com/dengarop/herdbook/internal/model"
)

// State is the pipeline's current stage.
type State int

const (
	StateIdle State = iota
	StateCollecting
	StateValidating
	StateCompressing
	StateSubmitting
	StateDone
	StateValidationFailed
	StateSubmitFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateValidating:
		return "validating"
	case StateCompressing:
		return "compressing"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	case StateValidationFailed:
		return "validation failed"
	case StateSubmitFailed:
		return "submit failed"
	default:
		return "unknown"
	}
}

// Validator judges whether an image shows a cow nose.
type Validator interface {
	Validate(ctx context.Context, filename string, image []byte) (classifier.Result, error)
}

// Registrar submits a completed registration to the backend.
type Registrar interface {
	Register(ctx context.Context, reg api.Registration) (api.RegisterResult, error)
}

// OwnerLookup resolves a phone number to a cached owner, or nil when no
// match exists. Lookups are advisory; registration proceeds either way.
type OwnerLookup func(ctx context.Context, phone string) (*model.Owner, error)

// Details carries the operator-entered registration form fields.
type Details struct {
	OwnerFullName   string
	OwnerPhone      string
	OwnerEmail      string
	OwnerAddress    string
	OwnerNationalID string
	Breed           string
	Color           string
	Age             int
}

// Pipeline is a single registration attempt. It is not safe for
// concurrent use; one operator drives one pipeline.
type Pipeline struct {
	validator Validator
	registrar Registrar
	lookup    OwnerLookup
	threshold float64
	log       *slog.Logger

	state   State
	details Details
	nose    [][]byte
	facial  []byte
}

// New creates a pipeline. threshold is the minimum classifier confidence
// on the (0, 1] scale; lookup may be nil.
func New(v Validator, r Registrar, lookup OwnerLookup, threshold float64, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		validator: v,
		registrar: r,
		lookup:    lookup,
		threshold: threshold,
		log:       log,
		state:     StateIdle,
	}
}

// State returns the current stage.
func (p *Pipeline) State() State { return p.state }

// NoseCount returns how many nose images have been collected.
func (p *Pipeline) NoseCount() int { return len(p.nose) }

// SetDetails records the form fields. Allowed until submission starts.
func (p *Pipeline) SetDetails(d Details) error {
	if !p.editable() {
		return fmt.Errorf("cannot edit details while %s", p.state)
	}
	p.details = d
	p.state = StateCollecting
	return nil
}

// AddNoseImage screens and stores one nose image. The screen performs no
// network calls; an inadmissible image leaves the form editable.
func (p *Pipeline) AddNoseImage(data []byte) error {
	if !p.editable() {
		return fmt.Errorf("cannot add images while %s", p.state)
	}
	if len(p.nose) >= model.RequiredNoseImages {
		return fmt.Errorf("already have %d nose images", model.RequiredNoseImages)
	}
	if err := imaging.Screen(data); err != nil {
		return err
	}
	p.nose = append(p.nose, data)
	p.state = StateCollecting
	return nil
}

// SetFacialImage screens and stores the facial image, replacing any
// previous one.
func (p *Pipeline) SetFacialImage(data []byte) error {
	if !p.editable() {
		return fmt.Errorf("cannot add images while %s", p.state)
	}
	if err := imaging.Screen(data); err != nil {
		return err
	}
	p.facial = data
	p.state = StateCollecting
	return nil
}

// RemoveNoseImage discards the nose image at the given 0-based index so
// the operator can recapture it.
func (p *Pipeline) RemoveNoseImage(i int) error {
	if !p.editable() {
		return fmt.Errorf("cannot remove images while %s", p.state)
	}
	if i < 0 || i >= len(p.nose) {
		return fmt.Errorf("no nose image at position %d", i+1)
	}
	p.nose = append(p.nose[:i], p.nose[i+1:]...)
	return nil
}

// SuggestOwner looks up the entered phone number in the owner cache.
// Numbers shorter than 8 digits are not looked up. A nil return with nil
// error means no suggestion.
func (p *Pipeline) SuggestOwner(ctx context.Context) (*model.Owner, error) {
	phone := strings.TrimSpace(p.details.OwnerPhone)
	if p.lookup == nil || len(phone) < 8 {
		return nil, nil
	}
	return p.lookup(ctx, phone)
}

// editable reports whether the form can still be changed. Failed attempts
// stay editable so the operator can fix inputs and retry.
func (p *Pipeline) editable() bool {
	switch p.state {
	case StateIdle, StateCollecting, StateValidationFailed, StateSubmitFailed:
		return true
	default:
		return false
	}
}

// Submit runs validation, compression and submission. It returns a
// *ValidationError when the classifier rejects an image, and the
// backend's result otherwise. A duplicate detection is a success-shaped
// outcome carrying the existing tag, not an error.
func (p *Pipeline) Submit(ctx context.Context) (api.RegisterResult, error) {
	if !p.editable() {
		return api.RegisterResult{}, fmt.Errorf("cannot submit while %s", p.state)
	}
	if len(p.nose) != model.RequiredNoseImages {
		return api.RegisterResult{}, &IncompleteError{
			Collected: len(p.nose),
			Required:  model.RequiredNoseImages,
		}
	}
	if len(p.facial) == 0 {
		return api.RegisterResult{}, fmt.Errorf("facial image is required")
	}

	p.state = StateValidating
	if err := p.validate(ctx); err != nil {
		p.state = StateValidationFailed
		return api.RegisterResult{}, err
	}

	p.state = StateCompressing
	nose, facial, err := p.compress()
	if err != nil {
		p.state = StateSubmitFailed
		return api.RegisterResult{}, err
	}

	// Once submission starts there is no cancelling; the backend call
	// runs to completion even if the operator walks away.
	p.state = StateSubmitting
	result, err := p.registrar.Register(ctx, api.Registration{
		OwnerFullName:   p.details.OwnerFullName,
		OwnerPhone:      p.details.OwnerPhone,
		OwnerEmail:      p.details.OwnerEmail,
		OwnerAddress:    p.details.OwnerAddress,
		OwnerNationalID: p.details.OwnerNationalID,
		Breed:           p.details.Breed,
		Color:           p.details.Color,
		Age:             p.details.Age,
		NoseImages:      nose,
		FacialImage:     facial,
	})
	if err != nil {
		p.state = StateSubmitFailed
		return api.RegisterResult{}, fmt.Errorf("submitting registration: %w", err)
	}

	p.state = StateDone
	if result.Duplicate {
		p.log.Warn("duplicate registration detected", "existing_tag", result.ExistingTag)
	} else {
		p.log.Info("registration complete", "tag", result.Tag)
	}
	return result, nil
}

// validate runs all nose images through the classifier concurrently and
// waits for every call to settle. All images must pass; on failure the
// lowest-numbered failing image is reported.
func (p *Pipeline) validate(ctx context.Context) error {
	type outcome struct {
		result classifier.Result
		err    error
	}
	outcomes := make([]outcome, len(p.nose))

	var wg sync.WaitGroup
	for i, img := range p.nose {
		wg.Add(1)
		go func(i int, img []byte) {
			defer wg.Done()
			name := fmt.Sprintf("nose_%d.jpg", i+1)
			res, err := p.validator.Validate(ctx, name, img)
			outcomes[i] = outcome{result: res, err: err}
		}(i, img)
	}
	wg.Wait()

	for i, o := range outcomes {
		if o.err != nil {
			return &ValidationError{Image: i + 1, Kind: KindUnavailable, cause: o.err}
		}
		if !o.result.IsCowNose {
			return &ValidationError{
				Image:      i + 1,
				Kind:       KindNotANose,
				Confidence: o.result.Confidence,
				Threshold:  p.threshold,
			}
		}
		if o.result.Confidence < p.threshold {
			return &ValidationError{
				Image:      i + 1,
				Kind:       KindLowConfidence,
				Confidence: o.result.Confidence,
				Threshold:  p.threshold,
			}
		}
	}
	return nil
}

// compress processes each validated image. Compression never runs before
// validation has passed.
func (p *Pipeline) compress() ([][]byte, []byte, error) {
	nose := make([][]byte, 0, len(p.nose))
	for i, img := range p.nose {
		res, err := imaging.Process(bytes.NewReader(img))
		if err != nil {
			return nil, nil, fmt.Errorf("compressing nose image %d: %w", i+1, err)
		}
		nose = append(nose, res.Data)
	}
	res, err := imaging.Process(bytes.NewReader(p.facial))
	if err != nil {
		return nil, nil, fmt.Errorf("compressing facial image: %w", err)
	}
	return nose, res.Data, nil
}
