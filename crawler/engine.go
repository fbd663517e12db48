// Package crawler walks a taxonomy depth-first, asking the oracle about each
// concept and growing an ontology graph from the answers.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/ontocrawl/llm"
	"github.com/c360studio/ontocrawl/ontology"
	"github.com/c360studio/ontocrawl/taxonomy"
)

// Completer is the memoized oracle the engine asks. validate runs before an
// answer is cached; an answer it rejects must not be persisted.
type Completer interface {
	Complete(ctx context.Context, category, concept, systemPrompt, userPrompt string,
		format *llm.ResponseFormat, validate func(answer string) error) (string, error)
}

// Engine runs one crawl. It is single-threaded: each question is answered
// before the next is asked.
type Engine struct {
	table    *taxonomy.Table
	oracle   Completer
	builder  *ontology.Builder
	logger   *slog.Logger
	failFast bool
	language string

	seen map[string]string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithFailFast makes malformed answers and illegal names abort the run
// instead of skipping the concept's branch.
func WithFailFast(failFast bool) Option {
	return func(e *Engine) {
		e.failFast = failFast
	}
}

// WithLanguage sets the language tag for labels and comments.
func WithLanguage(lang string) Option {
	return func(e *Engine) {
		e.language = lang
	}
}

// New creates an engine. The table must already be validated.
func New(table *taxonomy.Table, oracle Completer, builder *ontology.Builder, opts ...Option) *Engine {
	e := &Engine{
		table:    table,
		oracle:   oracle,
		builder:  builder,
		logger:   slog.Default(),
		language: ontology.DefaultLanguage,
		seen:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// frame is one pending work item: a single concept to ask about.
type frame struct {
	category taxonomy.Category
	concept  string
	depth    int
}

// Run crawls from the table's root concept until every branch terminates.
// Oracle transport failures and graph invariant violations abort the run;
// the partial graph stays in the builder.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.New().String()}
	defer func() { report.Duration = time.Since(start) }()

	root, ok := e.table.Category(e.table.Root)
	if !ok {
		return report, fmt.Errorf("root category %q not in table", e.table.Root)
	}

	e.logger.Info("Crawl started", "run_id", report.RunID, "root", root.Name, "namespace", e.builder.Namespace())

	// A LIFO stack holding siblings in reverse yields the same pre-order as
	// recursing over categories then concepts.
	stack := []frame{{category: root, concept: e.table.RootConcept}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := e.visit(ctx, f, report)
		if err != nil {
			return report, err
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	e.logger.Info("Crawl finished",
		"run_id", report.RunID,
		"concepts", report.Concepts,
		"classes", report.Classes,
		"properties", report.Properties,
		"skipped", len(report.Failures),
		"collisions", len(report.Collisions))
	return report, nil
}

// visit asks about one concept, applies its graph mutations and returns the
// child frames in visit order. A non-nil error aborts the run.
func (e *Engine) visit(ctx context.Context, f frame, report *Report) ([]frame, error) {
	log := e.logger.With("category", f.category.Name, "concept", f.concept, "depth", f.depth)

	question := f.category.Render(f.concept, e.table.CommonInstructions)
	validate := func(answer string) error {
		_, err := taxonomy.ParseAnswer(f.category, answer)
		return err
	}
	raw, err := e.oracle.Complete(ctx, f.category.Name, f.concept, e.table.SystemPrompt, question,
		f.category.ResponseFormat(), validate)
	if err != nil {
		if errors.Is(err, taxonomy.ErrMalformedAnswer) {
			report.Concepts++
			return nil, e.skip(log, report, f, err)
		}
		return nil, fmt.Errorf("%s/%s: %w", f.category.Name, f.concept, err)
	}
	report.Concepts++

	answer, err := taxonomy.ParseAnswer(f.category, raw)
	if err != nil {
		return nil, e.skip(log, report, f, err)
	}

	if f.category.Graph {
		if err := e.emit(f, answer, report); err != nil {
			if errors.Is(err, ontology.ErrInvalidIdentifier) {
				return nil, e.skip(log, report, f, err)
			}
			return nil, fmt.Errorf("%s/%s: %w", f.category.Name, f.concept, err)
		}
	}

	var children []frame
	for _, field := range answer.Fields {
		child, ok := e.table.Category(field.Category)
		if !ok {
			return nil, fmt.Errorf("category %q missing from table", field.Category)
		}
		for _, concept := range field.Concepts {
			children = append(children, frame{category: child, concept: concept, depth: f.depth + 1})
		}
	}
	if len(children) == 0 {
		log.Debug("Terminal concept")
	}
	return children, nil
}

// skip records a branch-level failure, or aborts when fail-fast is set.
func (e *Engine) skip(log *slog.Logger, report *Report, f frame, err error) error {
	if e.failFast {
		return fmt.Errorf("%s/%s: %w", f.category.Name, f.concept, err)
	}
	log.Warn("Skipping concept branch", "error", err)
	report.Failures = append(report.Failures, Failure{Category: f.category.Name, Concept: f.concept, Err: err})
	return nil
}

// emit validates every name the concept needs, then applies its mutations.
// Validation comes first so an illegal name leaves no partial class behind.
func (e *Engine) emit(f frame, a *taxonomy.Answer, report *Report) error {
	names := []string{a.Name, f.category.Name}
	for _, field := range a.Fields {
		names = append(names, propertyName(a.Name, field.Category))
		names = append(names, field.Concepts...)
	}
	for _, n := range names {
		if err := ontology.ValidateName(n); err != nil {
			return err
		}
	}

	class, err := e.builder.NewClass(a.Name)
	if err != nil {
		return err
	}
	e.noteIdentity(class, report)
	report.Classes++

	if err := e.builder.AppendSubClassOf(class, f.category.Name); err != nil {
		return err
	}
	if err := e.builder.AppendLabel(class, f.concept, e.language); err != nil {
		return err
	}
	for _, alias := range a.Aliases {
		if err := e.builder.AppendLabel(class, alias, e.language); err != nil {
			return err
		}
	}
	if a.Description != "" {
		if err := e.builder.AppendComment(class, a.Description, e.language); err != nil {
			return err
		}
	}

	for _, field := range a.Fields {
		prop, err := e.builder.NewObjectProperty(propertyName(a.Name, field.Category))
		if err != nil {
			return err
		}
		e.noteIdentity(prop, report)
		report.Properties++

		if err := e.builder.AppendDomain(prop, a.Name); err != nil {
			return err
		}
		for _, child := range field.Concepts {
			if err := e.builder.AppendRange(prop, child); err != nil {
				return err
			}
		}
	}
	return nil
}

// noteIdentity tracks which display name first produced each IRI. The same
// name minted again is a revisit; a different name with the same IRI is a
// collision. Either way the entities stay distinct.
func (e *Engine) noteIdentity(ent *ontology.Entity, report *Report) {
	first, ok := e.seen[ent.ID]
	switch {
	case !ok:
		e.seen[ent.ID] = ent.Name
	case first == ent.Name:
		report.Revisits++
	default:
		e.logger.Warn("Identifier collision", "iri", ent.ID, "first", first, "second", ent.Name)
		report.Collisions = append(report.Collisions, Collision{IRI: ent.ID, First: first, Second: ent.Name})
	}
}

// propertyName is the display name of the object property linking a concept
// to one of its child categories.
func propertyName(concept, category string) string {
	return concept + "_has_" + category
}
