package runtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/dossier/pkg/domain"
)

// entityFields names the provider response array expected per target
// state. READY_FOR_HUMAN is absent on purpose: the handoff transition
// materializes nothing.
var entityFields = map[domain.State]string{
	domain.StateFactsExtracted:     "facts",
	domain.StateContextIdentified:  "contexts",
	domain.StateObligationsDeduced: "obligations",
	domain.StateMissingIdentified:  "missing",
	domain.StateRiskEvaluated:      "risks",
	domain.StateActionProposed:     "actions",
}

// envelope is the parsed, shape-checked provider response.
type envelope struct {
	fields      map[string]any
	uncertainty *float64
	traces      []tracePayload
}

type tracePayload struct {
	Step        string         `mapstructure:"step"`
	Explanation string         `mapstructure:"explanation"`
	Metadata    map[string]any `mapstructure:"metadata"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// parseEnvelope rejects anything that is not a single JSON object and
// validates the optional advisory fields. Missing or invalid shapes
// fail loudly instead of being coerced.
func parseEnvelope(raw json.RawMessage) (*envelope, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, malformed("not a JSON object: %v", err)
	}

	env := &envelope{fields: fields}

	if v, ok := fields["uncertainty_level"]; ok {
		level, isNumber := v.(float64)
		if !isNumber {
			return nil, malformed("uncertainty_level must be a number, got %T", v)
		}
		if level < 0 || level > 1 {
			return nil, malformed("uncertainty_level %v outside [0,1]", level)
		}
		env.uncertainty = &level
	}

	if v, ok := fields["traces"]; ok {
		items, isArray := v.([]any)
		if !isArray {
			return nil, malformed("traces must be an array, got %T", v)
		}
		traces, err := decodeItems[tracePayload]("traces", items)
		if err != nil {
			return nil, err
		}
		for i, tr := range traces {
			if tr.Step == "" || tr.Explanation == "" {
				return nil, malformed("traces[%d]: step and explanation are required", i)
			}
		}
		env.traces = traces
	}

	return env, nil
}

// entityItems extracts the target state's array field. The field must
// be present; an empty array is valid and materializes no rows.
func (e *envelope) entityItems(target domain.State) ([]any, error) {
	field, expectsEntities := entityFields[target]
	if !expectsEntities {
		return nil, nil
	}
	v, ok := e.fields[field]
	if !ok {
		return nil, malformed("missing %q array for state %s", field, target)
	}
	items, isArray := v.([]any)
	if !isArray {
		return nil, malformed("%q must be an array, got %T", field, v)
	}
	return items, nil
}

// decodeItems maps raw JSON array members onto a typed payload. The
// decoder is strict about types: a string where a bool belongs is a
// malformed response, not something to coerce.
func decodeItems[T any](field string, items []any) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, item := range items {
		obj, isObject := item.(map[string]any)
		if !isObject {
			return nil, malformed("%s[%d] must be an object, got %T", field, i, item)
		}
		var decoded T
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:  &decoded,
			TagName: "mapstructure",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build decoder for %s: %w", field, err)
		}
		if err := decoder.Decode(obj); err != nil {
			return nil, malformed("%s[%d]: %v", field, i, err)
		}
		out = append(out, decoded)
	}
	return out, nil
}

// --- Per-state payloads ---

type factPayload struct {
	Label      string   `mapstructure:"label"`
	Value      string   `mapstructure:"value"`
	Source     string   `mapstructure:"source"`
	SourceRef  string   `mapstructure:"source_ref"`
	Confidence *float64 `mapstructure:"confidence"`
}

type contextPayload struct {
	Type           string `mapstructure:"type"`
	Description    string `mapstructure:"description"`
	Reasoning      string `mapstructure:"reasoning"`
	CertaintyLevel string `mapstructure:"certainty_level"`
}

type obligationPayload struct {
	Description string `mapstructure:"description"`
	Mandatory   *bool  `mapstructure:"mandatory"`
	Deadline    string `mapstructure:"deadline"`
	Critical    *bool  `mapstructure:"critical"`
	LegalRef    string `mapstructure:"legal_ref"`
	ContextRef  string `mapstructure:"context_ref"`
}

type missingPayload struct {
	Type        string `mapstructure:"type"`
	Description string `mapstructure:"description"`
	Why         string `mapstructure:"why"`
	Blocking    *bool  `mapstructure:"blocking"`
}

type riskPayload struct {
	Description  string `mapstructure:"description"`
	Impact       string `mapstructure:"impact"`
	Probability  string `mapstructure:"probability"`
	Irreversible *bool  `mapstructure:"irreversible"`
}

type actionPayload struct {
	Type      string `mapstructure:"type"`
	Content   string `mapstructure:"content"`
	Reasoning string `mapstructure:"reasoning"`
	Target    string `mapstructure:"target"`
	Priority  string `mapstructure:"priority"`
}

// materializer turns a validated envelope into typed rows for the
// target state, applying the documented field defaults.
type materializer struct {
	newID func() string
	actor domain.Actor
}

func (m *materializer) materialize(ws *domain.Workspace, target domain.State, env *envelope) (domain.EntityDelta, error) {
	items, err := env.entityItems(target)
	if err != nil {
		return domain.EntityDelta{}, err
	}

	switch target {
	case domain.StateFactsExtracted:
		return m.facts(items)
	case domain.StateContextIdentified:
		return m.contexts(items)
	case domain.StateObligationsDeduced:
		return m.obligations(ws, items)
	case domain.StateMissingIdentified:
		return m.missing(items)
	case domain.StateRiskEvaluated:
		return m.risks(items)
	case domain.StateActionProposed:
		return m.actions(items)
	default:
		return domain.EntityDelta{}, nil
	}
}

func (m *materializer) facts(items []any) (domain.EntityDelta, error) {
	payloads, err := decodeItems[factPayload]("facts", items)
	if err != nil {
		return domain.EntityDelta{}, err
	}
	var delta domain.EntityDelta
	for i, p := range payloads {
		if p.Label == "" || p.Value == "" {
			return domain.EntityDelta{}, malformed("facts[%d]: label and value are required", i)
		}
		confidence := 1.0
		if p.Confidence != nil {
			if *p.Confidence < 0 || *p.Confidence > 1 {
				return domain.EntityDelta{}, malformed("facts[%d]: confidence %v outside [0,1]", i, *p.Confidence)
			}
			confidence = *p.Confidence
		}
		delta.Facts = append(delta.Facts, domain.Fact{
			ID:          m.newID(),
			Label:       p.Label,
			Value:       p.Value,
			Source:      p.Source,
			SourceRef:   p.SourceRef,
			Confidence:  confidence,
			ExtractedBy: m.actor,
		})
	}
	return delta, nil
}

func (m *materializer) contexts(items []any) (domain.EntityDelta, error) {
	payloads, err := decodeItems[contextPayload]("contexts", items)
	if err != nil {
		return domain.EntityDelta{}, err
	}
	var delta domain.EntityDelta
	for i, p := range payloads {
		if p.Type == "" || p.Description == "" {
			return domain.EntityDelta{}, malformed("contexts[%d]: type and description are required", i)
		}
		certainty, err := domain.ParseCertaintyLevel(p.CertaintyLevel)
		if err != nil {
			return domain.EntityDelta{}, malformed("contexts[%d]: %v", i, err)
		}
		delta.Contexts = append(delta.Contexts, domain.ContextHypothesis{
			ID:             m.newID(),
			Type:           p.Type,
			Description:    p.Description,
			Reasoning:      p.Reasoning,
			CertaintyLevel: certainty,
			IdentifiedBy:   m.actor,
		})
	}
	return delta, nil
}

// obligations resolves each context_ref against the workspace's
// hypotheses: by ID first, then by exact description or type. An
// unresolved reference is a malformed response, never an index guess.
func (m *materializer) obligations(ws *domain.Workspace, items []any) (domain.EntityDelta, error) {
	payloads, err := decodeItems[obligationPayload]("obligations", items)
	if err != nil {
		return domain.EntityDelta{}, err
	}
	var delta domain.EntityDelta
	for i, p := range payloads {
		if p.Description == "" {
			return domain.EntityDelta{}, malformed("obligations[%d]: description is required", i)
		}
		if p.ContextRef == "" {
			return domain.EntityDelta{}, malformed("obligations[%d]: context_ref is required", i)
		}
		contextID, ok := resolveContextRef(ws, p.ContextRef)
		if !ok {
			return domain.EntityDelta{}, malformed("obligations[%d]: context_ref %q matches no context hypothesis", i, p.ContextRef)
		}

		var deadline *time.Time
		if p.Deadline != "" {
			parsed, err := parseDeadline(p.Deadline)
			if err != nil {
				return domain.EntityDelta{}, malformed("obligations[%d]: %v", i, err)
			}
			deadline = &parsed
		}

		delta.Obligations = append(delta.Obligations, domain.Obligation{
			ID:          m.newID(),
			Description: p.Description,
			Mandatory:   boolOrDefault(p.Mandatory, true),
			Deadline:    deadline,
			Critical:    boolOrDefault(p.Critical, false),
			LegalRef:    p.LegalRef,
			ContextID:   contextID,
			DeducedBy:   m.actor,
		})
	}
	return delta, nil
}

func (m *materializer) missing(items []any) (domain.EntityDelta, error) {
	payloads, err := decodeItems[missingPayload]("missing", items)
	if err != nil {
		return domain.EntityDelta{}, err
	}
	var delta domain.EntityDelta
	for i, p := range payloads {
		if p.Type == "" || p.Description == "" {
			return domain.EntityDelta{}, malformed("missing[%d]: type and description are required", i)
		}
		delta.MissingElements = append(delta.MissingElements, domain.MissingElement{
			ID:           m.newID(),
			Type:         p.Type,
			Description:  p.Description,
			Why:          p.Why,
			Blocking:     boolOrDefault(p.Blocking, true),
			Resolved:     false,
			IdentifiedBy: m.actor,
		})
	}
	return delta, nil
}

func (m *materializer) risks(items []any) (domain.EntityDelta, error) {
	payloads, err := decodeItems[riskPayload]("risks", items)
	if err != nil {
		return domain.EntityDelta{}, err
	}
	var delta domain.EntityDelta
	for i, p := range payloads {
		if p.Description == "" {
			return domain.EntityDelta{}, malformed("risks[%d]: description is required", i)
		}
		impact, err := domain.ParseSeverity(p.Impact)
		if err != nil {
			return domain.EntityDelta{}, malformed("risks[%d]: impact: %v", i, err)
		}
		probability, err := domain.ParseSeverity(p.Probability)
		if err != nil {
			return domain.EntityDelta{}, malformed("risks[%d]: probability: %v", i, err)
		}
		delta.Risks = append(delta.Risks, domain.Risk{
			ID:           m.newID(),
			Description:  p.Description,
			Impact:       impact,
			Probability:  probability,
			Score:        domain.RiskScore(impact, probability),
			Irreversible: boolOrDefault(p.Irreversible, false),
			EvaluatedBy:  m.actor,
		})
	}
	return delta, nil
}

func (m *materializer) actions(items []any) (domain.EntityDelta, error) {
	payloads, err := decodeItems[actionPayload]("actions", items)
	if err != nil {
		return domain.EntityDelta{}, err
	}
	var delta domain.EntityDelta
	for i, p := range payloads {
		if p.Type == "" || p.Content == "" {
			return domain.EntityDelta{}, malformed("actions[%d]: type and content are required", i)
		}
		priority := domain.PriorityNormal
		if p.Priority != "" {
			parsed, err := domain.ParsePriority(p.Priority)
			if err != nil {
				return domain.EntityDelta{}, malformed("actions[%d]: %v", i, err)
			}
			priority = parsed
		}
		delta.Actions = append(delta.Actions, domain.ProposedAction{
			ID:         m.newID(),
			Type:       p.Type,
			Content:    p.Content,
			Reasoning:  p.Reasoning,
			Target:     p.Target,
			Priority:   priority,
			ProposedBy: m.actor,
		})
	}
	return delta, nil
}

func resolveContextRef(ws *domain.Workspace, ref string) (string, bool) {
	if _, ok := ws.ContextByID(ref); ok {
		return ref, true
	}
	needle := strings.TrimSpace(strings.ToLower(ref))
	for _, c := range ws.Contexts {
		if strings.TrimSpace(strings.ToLower(c.Description)) == needle ||
			strings.TrimSpace(strings.ToLower(c.Type)) == needle {
			return c.ID, true
		}
	}
	return "", false
}

func parseDeadline(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("deadline %q is not a date (want YYYY-MM-DD or RFC 3339)", raw)
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
