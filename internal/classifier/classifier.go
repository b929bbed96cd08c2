// Package classifier routes complaint text to a department using the generative model.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/llm"
	"github.com/spec-kit/grievance-service/internal/observability"
)

// ErrClassification wraps model failures so callers can tell them apart from a casual verdict.
var ErrClassification = errors.New("classification failed")

const systemPrompt = `You are a complaint classifier for a municipal grievance portal.
Decide whether the citizen's message is a concrete complaint about government services or infrastructure.
If it is not a clear complaint, answer "casual".
Otherwise answer with exactly one department from this list:
%s

Weigh whether the message describes a specific problem, whether it has enough context to route,
and which department is best placed to handle it.
Answer with ONLY the word "casual" or the department name, nothing else.`

// Classifier implements the complaint routing decision.
type Classifier struct {
	gen         llm.Generator
	departments []string
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// New builds a Classifier offering departments to the model.
func New(gen llm.Generator, departments []string, logger *zap.Logger, metrics *observability.Metrics) *Classifier {
	if len(departments) == 0 {
		departments = domain.ClassifierDepartments
	}
	return &Classifier{gen: gen, departments: departments, logger: logger, metrics: metrics}
}

// Classify returns the department the model picked, or Casual=true when the text is not
// a complaint. A failed model call is returned as an error wrapping ErrClassification.
func (c *Classifier) Classify(ctx context.Context, text string) (domain.Classification, error) {
	ctx, span := observability.StartSpan(ctx, "classifier.Classify", attribute.Int("text.length", len(text)))
	defer span.End()

	start := time.Now()
	answer, err := c.gen.Generate(ctx, c.prompt(), "Message: "+text)
	c.metrics.ObserveModelCall("classifier", err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		return domain.Classification{}, fmt.Errorf("%w: %w", ErrClassification, err)
	}

	result := Interpret(answer)
	span.SetAttributes(attribute.Bool("casual", result.Casual), attribute.String("department", result.Department))
	c.logger.Debug("complaint classified", zap.Bool("casual", result.Casual), zap.String("department", result.Department))
	return result, nil
}

func (c *Classifier) prompt() string {
	return fmt.Sprintf(systemPrompt, strings.Join(c.departments, ", "))
}

// Interpret turns a raw model answer into a Classification.
func Interpret(answer string) domain.Classification {
	answer = strings.TrimSpace(answer)
	answer = strings.Trim(answer, "\"'`.")
	answer = strings.TrimSpace(answer)
	if answer == "" || strings.EqualFold(answer, domain.CasualSentinel) {
		return domain.Classification{Casual: true}
	}
	return domain.Classification{Department: answer}
}
