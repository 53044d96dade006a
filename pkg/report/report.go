// Package report renders a workspace's accumulated analysis as a
// markdown document for human review.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/dossier/pkg/domain"
)

// Markdown builds the review document from the workspace aggregate.
// Sections appear in pipeline order; empty sections are omitted.
func Markdown(ws *domain.Workspace) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Case %s\n\n", ws.ID)
	fmt.Fprintf(&b, "**State:** %s  \n", ws.CurrentState)
	fmt.Fprintf(&b, "**Uncertainty:** %.2f  \n", ws.UncertaintyLevel)
	fmt.Fprintf(&b, "**Locked:** %v  \n", ws.Locked)
	fmt.Fprintf(&b, "**Last change:** %s by %s\n", ws.StateChangedAt.Format("2006-01-02 15:04"), ws.StateChangedBy)

	if len(ws.Facts) > 0 {
		b.WriteString("\n## Facts\n\n")
		b.WriteString("| Label | Value | Source | Confidence |\n|---|---|---|---|\n")
		for _, f := range ws.Facts {
			fmt.Fprintf(&b, "| %s | %s | %s | %.2f |\n", f.Label, f.Value, f.Source, f.Confidence)
		}
	}

	if len(ws.Contexts) > 0 {
		b.WriteString("\n## Legal contexts\n\n")
		for _, c := range ws.Contexts {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", c.Type, c.CertaintyLevel, c.Description)
		}
	}

	if len(ws.Obligations) > 0 {
		b.WriteString("\n## Obligations\n\n")
		for _, o := range ws.Obligations {
			marker := ""
			if o.Critical {
				marker = " **[critical]**"
			}
			deadline := ""
			if o.Deadline != nil {
				deadline = fmt.Sprintf(" - deadline %s", o.Deadline.Format("2006-01-02"))
			}
			fmt.Fprintf(&b, "- %s (%s)%s%s\n", o.Description, o.LegalRef, deadline, marker)
		}
	}

	if len(ws.MissingElements) > 0 {
		b.WriteString("\n## Missing information\n\n")
		for _, m := range ws.MissingElements {
			status := "open"
			if m.Resolved {
				status = "resolved"
			} else if m.Blocking {
				status = "blocking"
			}
			fmt.Fprintf(&b, "- [%s] %s: %s\n", status, m.Type, m.Description)
		}
	}

	if len(ws.Risks) > 0 {
		b.WriteString("\n## Risks\n\n")
		b.WriteString("| Risk | Impact | Probability | Score |\n|---|---|---|---|\n")
		for _, r := range ws.Risks {
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", r.Description, r.Impact, r.Probability, r.Score)
		}
	}

	if len(ws.Actions) > 0 {
		b.WriteString("\n## Proposed actions\n\n")
		for _, a := range ws.Actions {
			fmt.Fprintf(&b, "- **%s** [%s] %s\n", a.Type, a.Priority, a.Content)
		}
	}

	if len(ws.Transitions) > 0 {
		b.WriteString("\n## Audit trail\n\n")
		for _, tr := range ws.Transitions {
			fmt.Fprintf(&b, "- %s: %s → %s (%s)\n",
				tr.Timestamp.Format("2006-01-02 15:04"), tr.FromState, tr.ToState, tr.Reason)
		}
	}

	return b.String()
}

// Render renders the markdown for a terminal, auto-detecting the
// style from the environment.
func Render(markdown string) (string, error) {
	out, err := glamour.Render(markdown, "auto")
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return out, nil
}
