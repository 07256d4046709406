package section

import (
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/pkg/docx"
)

// Default section markers.
const (
	DefaultStartMarker = "Connaissances Métier"
	DefaultEndMarker   = "COMPETENCES Projet"
)

// Stage is a step of the rewrite. Stages only advance; a failure moves the
// rewrite to StageRejected.
type Stage int

const (
	StageLoaded Stage = iota
	StageBoundsFound
	StageInteriorCleared
	StageSeparatorInserted
	StageBulletsInserted
	StageFinalized
	StageRejected
)

func (s Stage) String() string {
	switch s {
	case StageLoaded:
		return "loaded"
	case StageBoundsFound:
		return "bounds found"
	case StageInteriorCleared:
		return "interior cleared"
	case StageSeparatorInserted:
		return "separator inserted"
	case StageBulletsInserted:
		return "bullets inserted"
	case StageFinalized:
		return "finalized"
	case StageRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Request describes one section rewrite. Empty markers and preset fall back
// to the Rewriter's defaults.
type Request struct {
	StartMarker string
	EndMarker   string
	Items       []string
	Preset      string
}

// Result describes a rewrite. On failure Stage is StageRejected and the
// other fields reflect how far the rewrite got.
type Result struct {
	Stage     Stage
	Preset    string
	Bounds    Bounds
	Removed   int
	Separator *docx.Paragraph
	Bullets   []*docx.Paragraph
}

// PresetSource resolves preset names.
type PresetSource interface {
	Lookup(name string) (Preset, error)
}

// Rewriter replaces the interior of an anchored section with a separator and
// a bullet list. A Rewriter holds no per-document state and may be shared;
// each document must be rewritten by one caller at a time.
type Rewriter struct {
	logger        zerolog.Logger
	presets       PresetSource
	defaultPreset string
	startMarker   string
	endMarker     string
	start, end    Matcher
	allowEmpty    bool
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Rewriter) {
		r.logger = logger
	}
}

// WithPresets sets the source used to resolve preset names.
func WithPresets(presets PresetSource) Option {
	return func(r *Rewriter) {
		r.presets = presets
	}
}

// WithPreset sets the preset used when a request names none.
func WithPreset(name string) Option {
	return func(r *Rewriter) {
		r.defaultPreset = name
	}
}

// WithMarkers sets the text markers used when a request carries none. An
// empty end marker runs every section to the end of the document.
func WithMarkers(start, end string) Option {
	return func(r *Rewriter) {
		r.startMarker = start
		r.endMarker = end
	}
}

// WithMatchers replaces text markers with arbitrary boundary predicates.
// Request markers are ignored when matchers are set. A nil end runs the
// section to the end of the document.
func WithMatchers(start, end Matcher) Option {
	return func(r *Rewriter) {
		r.start = start
		r.end = end
	}
}

// WithAllowEmpty accepts requests without items; the section is then
// cleared and only the separator is inserted.
func WithAllowEmpty(allow bool) Option {
	return func(r *Rewriter) {
		r.allowEmpty = allow
	}
}

// NewRewriter creates a Rewriter. Without options it uses the built-in
// presets, the classic preset and the default markers.
func NewRewriter(opts ...Option) *Rewriter {
	r := &Rewriter{
		logger:        zerolog.Nop(),
		defaultPreset: DefaultPresetName,
		startMarker:   DefaultStartMarker,
		endMarker:     DefaultEndMarker,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.presets == nil {
		r.presets = NewRegistry()
	}
	return r
}

// Rewrite locates the section in doc, deletes its interior, then inserts a
// separator and one bullet per item after the header, in item order.
//
// Input is validated before doc is touched. A failure after that leaves doc
// partially rewritten; callers must discard it.
func (r *Rewriter) Rewrite(doc *docx.Document, req Request) (*Result, error) {
	res := &Result{Stage: StageLoaded}
	log := r.logger.With().Str("start_marker", r.startFor(req)).Int("items", len(req.Items)).Logger()

	reject := func(stage Stage, err error) (*Result, error) {
		res.Stage = StageRejected
		log.Debug().Err(err).Stringer("stage", stage).Msg("Rewrite rejected")
		return res, errors.WithStack(&RewriteError{Stage: stage, Cause: err})
	}

	if doc == nil || doc.Body() == nil {
		return reject(StageLoaded, errors.WithStack(docx.ErrNoBody))
	}
	if len(req.Items) == 0 && !r.allowEmpty {
		return reject(StageLoaded, errors.WithStack(ErrEmptyItemList))
	}

	presetName := req.Preset
	if presetName == "" {
		presetName = r.defaultPreset
	}
	preset, err := r.presets.Lookup(presetName)
	if err != nil {
		return reject(StageLoaded, err)
	}
	res.Preset = preset.Name

	// One snapshot serves both locating and deleting; nothing mutates the
	// body until the bounds are known.
	paras := doc.Paragraphs()
	bounds, err := r.locate(paras, req)
	if err != nil {
		return reject(StageBoundsFound, err)
	}
	res.Bounds = bounds
	res.Stage = StageBoundsFound
	log.Debug().Int("start", bounds.Start).Int("end", bounds.End).Bool("runs_to_end", bounds.RunsToEnd()).Msg("Section located")

	removed, err := DeleteBounds(paras, bounds)
	res.Removed = removed
	if err != nil {
		return reject(StageInteriorCleared, err)
	}
	res.Stage = StageInteriorCleared

	if preset.TightenHeader {
		TightenHeader(bounds.Header)
	}
	separator, err := InsertAfter(bounds.Header)
	if err != nil {
		return reject(StageSeparatorInserted, err)
	}
	if err := BuildSeparator(separator, preset.Separator); err != nil {
		return reject(StageSeparatorInserted, err)
	}
	res.Separator = separator
	res.Stage = StageSeparatorInserted

	prev := separator
	for i, item := range req.Items {
		bullet, err := InsertAfter(prev)
		if err != nil {
			return reject(StageBulletsInserted, errors.Errorf("item %d: %w", i, err))
		}
		if err := BuildBullet(bullet, item, preset); err != nil {
			return reject(StageBulletsInserted, errors.Errorf("item %d: %w", i, err))
		}
		res.Bullets = append(res.Bullets, bullet)
		prev = bullet
	}
	res.Stage = StageBulletsInserted

	if n := len(res.Bullets); n > 0 {
		FinalizeLast(res.Bullets[n-1], preset)
	}
	res.Stage = StageFinalized

	log.Info().
		Str("preset", preset.Name).
		Int("removed", removed).
		Int("inserted", len(res.Bullets)).
		Msg("Section rewritten")
	return res, nil
}

// RewriteBytes loads a DOCX package, rewrites its main document and returns
// the saved package. Load failures are returned as *docx.DocumentError.
func (r *Rewriter) RewriteBytes(data []byte, req Request) ([]byte, *Result, error) {
	pkg, err := docx.OpenBytes(data)
	if err != nil {
		return nil, nil, err
	}
	return r.rewritePackage(pkg, req)
}

// rewritePackage rewrites the main document of pkg and returns the saved
// package.
func (r *Rewriter) rewritePackage(pkg *docx.Package, req Request) ([]byte, *Result, error) {
	doc, err := pkg.Document()
	if err != nil {
		return nil, nil, err
	}
	res, err := r.Rewrite(doc, req)
	if err != nil {
		return nil, res, err
	}
	out, err := pkg.Save(doc)
	if err != nil {
		return nil, res, err
	}
	return out, res, nil
}

// Presets returns the preset source of the rewriter.
func (r *Rewriter) Presets() PresetSource {
	return r.presets
}

func (r *Rewriter) startFor(req Request) string {
	if req.StartMarker != "" {
		return req.StartMarker
	}
	return r.startMarker
}

func (r *Rewriter) locate(paras []*docx.Paragraph, req Request) (Bounds, error) {
	if r.start != nil {
		return FindSectionBounds(paras, r.start, r.end)
	}

	startMarker := r.startFor(req)
	endMarker := req.EndMarker
	if endMarker == "" {
		endMarker = r.endMarker
	}
	return findByText(paras, startMarker, endMarker)
}
