package conflict

import (
	"context"
	"fmt"

	"github.com/minios-linux/arbkit/editor"
	"github.com/minios-linux/arbkit/i18n"
)

// PromptDecider asks the user through a Chooser.
type PromptDecider struct {
	Chooser editor.Chooser
}

// OnKeyCollision implements Decider.
func (p PromptDecider) OnKeyCollision(ctx context.Context, key, existing string) (Decision, error) {
	prompt := fmt.Sprintf(i18n.T("Key %q already exists with value %q"), key, existing)
	options := []string{
		i18n.T("Reuse the existing key"),
		i18n.T("Create a new key"),
	}
	idx, err := p.Chooser.Choose(ctx, prompt, options)
	if err != nil {
		return DecisionCancel, err
	}
	return []Decision{DecisionReuse, DecisionCreate}[idx], nil
}

// OnValueCollision implements Decider.
func (p PromptDecider) OnValueCollision(ctx context.Context, existingKey, value string) (Decision, error) {
	prompt := fmt.Sprintf(i18n.T("Value %q already exists under key %q"), value, existingKey)
	options := []string{
		i18n.T("Reuse that key"),
		i18n.T("Add anyway"),
	}
	idx, err := p.Chooser.Choose(ctx, prompt, options)
	if err != nil {
		return DecisionCancel, err
	}
	return []Decision{DecisionReuse, DecisionAdd}[idx], nil
}

// FixedDecider answers every collision the same way, for non-interactive
// runs. The zero value cancels on any collision.
type FixedDecider struct {
	OnKey   Decision
	OnValue Decision
}

// OnKeyCollision implements Decider.
func (f FixedDecider) OnKeyCollision(context.Context, string, string) (Decision, error) {
	return f.OnKey, nil
}

// OnValueCollision implements Decider.
func (f FixedDecider) OnValueCollision(context.Context, string, string) (Decision, error) {
	return f.OnValue, nil
}

// ParseKeyDecision maps a --on-key-conflict flag value to a Decision.
func ParseKeyDecision(s string) (Decision, error) {
	switch s {
	case "", "cancel":
		return DecisionCancel, nil
	case "reuse":
		return DecisionReuse, nil
	case "create":
		return DecisionCreate, nil
	}
	return DecisionCancel, fmt.Errorf("unknown key conflict strategy %q (want reuse, create or cancel)", s)
}

// ParseValueDecision maps a --on-value-conflict flag value to a Decision.
func ParseValueDecision(s string) (Decision, error) {
	switch s {
	case "", "cancel":
		return DecisionCancel, nil
	case "reuse":
		return DecisionReuse, nil
	case "add":
		return DecisionAdd, nil
	}
	return DecisionCancel, fmt.Errorf("unknown value conflict strategy %q (want reuse, add or cancel)", s)
}
