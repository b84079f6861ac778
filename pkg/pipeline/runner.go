package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"
	"github.com/google/uuid"

	"github.com/mhoffm/paperdash/pkg/canvas"
	"github.com/mhoffm/paperdash/pkg/errors"
	"github.com/mhoffm/paperdash/pkg/observability"
	"github.com/mhoffm/paperdash/pkg/render"
	"github.com/mhoffm/paperdash/pkg/section"
)

// Runner executes generation runs.
//
// The Runner is stateless except for the logger - it doesn't store run
// results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. If logger is nil, log.Default() is used.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// slot is one resolved rectangle's worth of work: a provider's fetched data
// (or the placeholder standing in for it) destined for one clip region.
type slot struct {
	sectionName string
	index       int
	data        section.Data
}

// Generate runs the complete fetch → compose → encode pipeline.
func (r *Runner) Generate(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	result := &Result{
		RunID:    uuid.NewString(),
		Degraded: make(map[string]string),
	}
	logger = logger.With("run", result.RunID)

	// Stage 1: Fetch
	fetchStart := time.Now()
	slots := r.fetchAll(ctx, opts, result, logger)
	result.Stats.FetchTime = time.Since(fetchStart)
	result.Stats.Sections = len(opts.Bindings)

	logger.Info("fetched section data",
		"sections", len(opts.Bindings),
		"degraded", len(result.Degraded),
		"duration", result.Stats.FetchTime)

	// Stage 2: Compose
	renderStart := time.Now()
	c, err := canvas.New(opts.Width, opts.Height, opts.Background)
	if err != nil {
		return nil, err
	}
	for _, s := range slots {
		if err := r.paintSlot(ctx, c, opts, s, result, logger); err != nil {
			return nil, err
		}
	}
	result.Image = c.Gray()
	result.Stats.RenderTime = time.Since(renderStart)

	logger.Info("composed image",
		"resolution", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"duration", result.Stats.RenderTime)

	// Stage 3: Encode
	encodeStart := time.Now()
	png, err := canvas.EncodePNG(result.Image)
	result.Stats.EncodeTime = time.Since(encodeStart)
	observability.Pipeline().OnEncodeComplete(ctx, len(png), result.Stats.EncodeTime, err)
	if err != nil {
		return nil, err
	}
	result.PNG = png

	logger.Info("encoded png",
		"bytes", len(png),
		"duration", result.Stats.EncodeTime)

	return result, nil
}

// fetchAll runs every bound provider in turn and returns one slot per
// resolved rectangle, in declaration order with columns left to right.
// Failed providers yield placeholder slots and a Degraded entry; fetchAll
// itself never fails.
func (r *Runner) fetchAll(ctx context.Context, opts Options, result *Result, logger *log.Logger) []slot {
	ctx, cancel := context.WithTimeout(ctx, opts.FetchTimeout)
	defer cancel()

	var slots []slot
	degrade := func(sectionName, reason string) {
		if prev, ok := result.Degraded[sectionName]; ok {
			result.Degraded[sectionName] = prev + "; " + reason
		} else {
			result.Degraded[sectionName] = reason
		}
	}

	for _, b := range opts.Bindings {
		rects, err := opts.Regions.Resolve(b.Section, opts.Width, opts.Height)
		if err != nil {
			// Unreachable after validation, but don't drop the section.
			degrade(b.Section, err.Error())
			continue
		}
		for i := range rects {
			if i >= len(b.Providers) {
				slots = append(slots, slot{
					sectionName: b.Section,
					index:       i,
					data:        &section.Placeholder{Message: placeholderMessage(b.Section)},
				})
				degrade(b.Section, fmt.Sprintf("no provider for column %d", i+1))
				continue
			}

			p := b.Providers[i]
			observability.Pipeline().OnFetchStart(ctx, p.Name(), b.Section)
			start := time.Now()
			data, err := p.Fetch(ctx)
			observability.Pipeline().OnFetchComplete(ctx, p.Name(), b.Section, time.Since(start), err)

			if err != nil {
				logger.Warn("provider failed, using placeholder",
					"provider", p.Name(),
					"section", b.Section,
					"code", errors.GetCode(err),
					"error", err)
				degrade(b.Section, fmt.Sprintf("%s: %s", p.Name(), errors.UserMessage(err)))
				data = &section.Placeholder{Message: placeholderMessage(b.Section)}
			}

			slots = append(slots, slot{sectionName: b.Section, index: i, data: data})
		}
	}
	return slots
}

// paintSlot renders one slot into its clipped rectangle. A renderer failure
// degrades the slot to a placeholder; only a failing placeholder paint,
// which indicates a broken canvas, aborts the run.
func (r *Runner) paintSlot(ctx context.Context, c *canvas.Canvas, opts Options, s slot, result *Result, logger *log.Logger) error {
	rects, err := opts.Regions.Resolve(s.sectionName, opts.Width, opts.Height)
	if err != nil {
		return err
	}
	rect := rects[s.index]

	observability.Pipeline().OnRenderStart(ctx, s.sectionName)
	start := time.Now()
	err = c.Paint(rect, func(dc *gg.Context) error {
		return render.Section(dc, rect, s.data)
	})
	observability.Pipeline().OnRenderComplete(ctx, s.sectionName, time.Since(start), err)
	if err == nil {
		return nil
	}

	logger.Warn("renderer failed, painting placeholder",
		"section", s.sectionName,
		"code", errors.GetCode(err),
		"error", err)
	if prev, ok := result.Degraded[s.sectionName]; ok {
		result.Degraded[s.sectionName] = prev + "; render: " + errors.UserMessage(err)
	} else {
		result.Degraded[s.sectionName] = "render: " + errors.UserMessage(err)
	}

	err = c.Paint(rect, func(dc *gg.Context) error {
		return render.Placeholder(dc, rect, placeholderMessage(s.sectionName))
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "placeholder render for %q failed", s.sectionName)
	}
	return nil
}

// placeholderMessage builds the fallback text for a failed section.
func placeholderMessage(sectionName string) string {
	name := strings.ReplaceAll(sectionName, "_", " ")
	if name == "" {
		return "Data unavailable"
	}
	return strings.ToUpper(name[:1]) + name[1:] + " unavailable"
}
