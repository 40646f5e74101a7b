// Package conflict decides what happens when an extracted string collides
// with an existing key or value in the source ARB file.
//
// Resolution runs two checks in order. A key collision is settled first
// because renaming the candidate changes which value collision matters;
// the value check then runs against the final candidate key.
package conflict

import (
	"context"
	"errors"
	"fmt"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/editor"
	"github.com/minios-linux/arbkit/extract"
)

// Kind is the outcome of a resolution.
type Kind int

const (
	// Proceed means the candidate should be written under Outcome.Key.
	Proceed Kind = iota
	// Reuse means an existing key should be referenced instead.
	Reuse
	// Cancelled means the user backed out; nothing is written.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case Proceed:
		return "proceed"
	case Reuse:
		return "reuse"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Outcome is the result of Resolve. Replacement is only set for Reuse.
type Outcome struct {
	Kind        Kind
	Key         string
	Replacement string
}

// Candidate is the key/value pair about to be added.
type Candidate struct {
	Key string
	// Value is the placeholder-converted text.
	Value string
	// Args are the original expressions passed to the generated accessor.
	Args []string
	// Prefix is the accessor prefix, e.g. "context.l10n".
	Prefix string
}

// Decision is a caller's answer to a collision.
type Decision int

const (
	DecisionCancel Decision = iota
	// DecisionReuse references the existing key.
	DecisionReuse
	// DecisionCreate picks a fresh key on key collision.
	DecisionCreate
	// DecisionAdd adds the value again under the candidate key.
	DecisionAdd
)

func (d Decision) String() string {
	switch d {
	case DecisionCancel:
		return "cancel"
	case DecisionReuse:
		return "reuse"
	case DecisionCreate:
		return "create"
	case DecisionAdd:
		return "add"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// Decider is asked how to settle each collision. Returning
// editor.ErrCancelled is the same as DecisionCancel.
type Decider interface {
	// OnKeyCollision answers DecisionReuse, DecisionCreate or DecisionCancel.
	OnKeyCollision(ctx context.Context, key, existing string) (Decision, error)
	// OnValueCollision answers DecisionReuse, DecisionAdd or DecisionCancel.
	OnValueCollision(ctx context.Context, existingKey, value string) (Decision, error)
}

// Resolve settles key and value collisions for c against the source
// document f. A Proceed outcome always names a key with no entry in f.
func Resolve(ctx context.Context, f *arbfile.File, c Candidate, d Decider) (Outcome, error) {
	key := c.Key

	if existing, ok := f.Get(key); ok {
		decision, err := ask(d.OnKeyCollision(ctx, key, existing))
		if err != nil {
			return Outcome{}, fmt.Errorf("key %q: %w", key, err)
		}
		switch decision {
		case DecisionCancel:
			return Outcome{Kind: Cancelled}, nil
		case DecisionReuse:
			return reuse(c, key), nil
		case DecisionCreate:
			key = NextFreeKey(f, key)
		default:
			return Outcome{}, fmt.Errorf("key %q: unexpected decision %v", key, decision)
		}
	} else if f.Has(key) {
		// Non-string entries cannot be referenced.
		key = NextFreeKey(f, key)
	}

	if found, ok := f.FindValue(c.Value, key); ok {
		decision, err := ask(d.OnValueCollision(ctx, found, c.Value))
		if err != nil {
			return Outcome{}, fmt.Errorf("value of %q: %w", found, err)
		}
		switch decision {
		case DecisionCancel:
			return Outcome{Kind: Cancelled}, nil
		case DecisionReuse:
			return reuse(c, found), nil
		case DecisionAdd:
		default:
			return Outcome{}, fmt.Errorf("value of %q: unexpected decision %v", found, decision)
		}
	}

	return Outcome{Kind: Proceed, Key: key}, nil
}

func ask(d Decision, err error) (Decision, error) {
	if errors.Is(err, editor.ErrCancelled) {
		return DecisionCancel, nil
	}
	return d, err
}

func reuse(c Candidate, key string) Outcome {
	return Outcome{
		Kind:        Reuse,
		Key:         key,
		Replacement: extract.Replacement(c.Prefix, key, c.Args),
	}
}

// NextFreeKey appends _1, _2, ... to key until neither the key nor its
// metadata entry exists in f.
func NextFreeKey(f *arbfile.File, key string) string {
	for i := 1; ; i++ {
		next := fmt.Sprintf("%s_%d", key, i)
		if !f.Has(next) && !f.Has(arbfile.MetadataKey(next)) {
			return next
		}
	}
}
