package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainimage "flickai-server-go/internal/domain/image"
	"flickai-server-go/internal/platform/logging"
)

// stage is one attempt in the fallback chain. ok=false means "try the
// next stage"; the final stage always resolves.
type stage struct {
	name string
	run  func(ctx context.Context, img *domainimage.Output) (Context, bool)
}

// Pipeline turns a captured screenshot into a Context through a strictly
// ordered, non-racing fallback chain: remote describer first (one attempt,
// hard timeout), then local OCR. Resolve never fails; every path ends in a
// context or a sentinel.
type Pipeline struct {
	images     *domainimage.Pipeline
	describer  Describer
	recognizer Recognizer
	timeout    time.Duration
	logger     *logging.Logger
}

// PipelineOptions configures the resolution pipeline. Describer may be nil
// when no vision credential is configured; the remote stage is then skipped
// without ever touching the network.
type PipelineOptions struct {
	Images     *domainimage.Pipeline
	Describer  Describer
	Recognizer Recognizer
	Timeout    time.Duration
	Logger     *logging.Logger
}

func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	if opts.Images == nil {
		return nil, fmt.Errorf("image pipeline is required")
	}
	if opts.Recognizer == nil {
		return nil, fmt.Errorf("recognizer is required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	return &Pipeline{
		images:     opts.Images,
		describer:  opts.Describer,
		recognizer: opts.Recognizer,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
	}, nil
}

// Resolve derives a vision context for one capture. The capture is consumed
// here and not retained afterwards.
func (p *Pipeline) Resolve(ctx context.Context, captured domainimage.CapturedImage) Context {
	if ctx == nil {
		ctx = context.Background()
	}

	img, err := p.images.ProcessCaptured(ctx, captured)
	if err != nil {
		p.logger.WarnTag("Vision", "capture rejected by image pipeline: %v", err)
		return FailedContext
	}

	for _, s := range p.stages() {
		if resolved, ok := s.run(ctx, img); ok {
			p.logger.DebugTag("Vision", "stage %s resolved context: provenance=%s chars=%d",
				s.name, resolved.Provenance, len(resolved.Text))
			return resolved
		}
	}

	return FailedContext
}

func (p *Pipeline) stages() []stage {
	stages := make([]stage, 0, 2)
	if p.describer != nil {
		stages = append(stages, stage{name: "remote", run: p.runRemote})
	}
	stages = append(stages, stage{name: "ocr", run: p.runOCR})
	return stages
}

// runRemote issues one call to the multimodal endpoint under the hard
// timeout. Every failure mode falls through; only a non-empty description
// short-circuits the chain.
func (p *Pipeline) runRemote(ctx context.Context, img *domainimage.Output) (Context, bool) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	description, err := p.describer.Describe(callCtx, img.Base64, img.Format)
	switch {
	case errors.Is(err, ErrRateLimited):
		p.logger.WarnTag("Vision", "remote describer rate-limited, falling back to OCR")
		return Context{}, false
	case err != nil:
		p.logger.WarnTag("Vision", "remote describer failed, falling back to OCR: %v", err)
		return Context{}, false
	case description == "":
		p.logger.WarnTag("Vision", "remote describer returned empty description")
		return Context{}, false
	}

	return Context{Text: description, Provenance: ProvenanceModel}, true
}

// runOCR is the terminal stage; it always resolves to a context or a
// sentinel, never to an error.
func (p *Pipeline) runOCR(ctx context.Context, img *domainimage.Output) (Context, bool) {
	text, err := p.recognizer.Recognize(ctx, img.Bytes)
	if err != nil {
		p.logger.ErrorTag("Vision", "OCR engine failed: %v", err)
		return FailedContext, true
	}
	if text == "" {
		return NoTextContext, true
	}

	return Context{
		Text:       fmt.Sprintf("Screen text extracted via OCR:\n\n%s", text),
		Provenance: ProvenanceOCR,
	}, true
}
