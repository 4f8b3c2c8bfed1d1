package scatter

import (
	"fmt"

	"github.com/gogpu/scatter/lambda"
)

// Update assigns a new encoding to the aesthetic.
//
// enc may be a Channel, a description accepted by ParseChannel, nil or
// "null" (reset to defaults), or Undefined (ignored). An empty map resets
// and a bare string binds a field with default scaling; both are
// deprecated and logged.
//
// On error the previous encoding stays in place.
func (a *Aesthetic) Update(enc any) error {
	switch v := enc.(type) {
	case undefined:
		Logger().Warn("scatter: update with undefined encoding ignored", "aesthetic", a.kind)
		return nil
	case nil:
		a.reset()
		return nil
	case string:
		if v == "null" {
			a.reset()
			return nil
		}
		Logger().Warn("scatter: bare field names are deprecated, use {field: name}",
			"aesthetic", a.kind, "field", v)
	case map[string]any:
		if len(v) == 0 {
			Logger().Warn("scatter: empty encoding is deprecated, use null to reset",
				"aesthetic", a.kind)
			a.reset()
			return nil
		}
	}

	ch, err := ParseChannel(enc)
	if err != nil {
		return fmt.Errorf("scatter: %s: %w", a.kind, err)
	}
	if ch == nil {
		a.reset()
		return nil
	}
	return a.resolve(ch)
}

// reset restores defaults but keeps the domain cache.
func (a *Aesthetic) reset() {
	a.commit(a.defaultBinding())
}

func (a *Aesthetic) resolve(ch Channel) error {
	next := a.defaultBinding()
	next.encoding = ch

	switch c := ch.(type) {
	case ConstantChannel:
		next.constant = c.Constant

	case OpChannel:
		if err := a.requireColumn(c.Field); err != nil {
			return err
		}
		next.field = c.Field

	case JitterChannel:
		if !a.kind.IsJitter() {
			return fmt.Errorf("scatter: %s: %w", a.kind,
				&ChannelError{Key: "method", Reason: "jitter methods apply only to jitter aesthetics"})
		}
		next.jitter = c.Method

	case BasicChannel:
		if err := a.requireColumn(c.Field); err != nil {
			return err
		}
		next.field = c.Field
		// An explicit domain only counts together with an explicit range.
		if c.Domain != nil && c.Range != nil {
			next.domain = *c.Domain
			next.rng = *c.Range
		} else {
			ext, err := a.InferDomain(c.Field)
			if err != nil {
				return err
			}
			next.domain = ext
			if c.Range != nil {
				next.rng = *c.Range
			}
		}
		if c.Transform != "" {
			next.transform = c.Transform
		}

	case LambdaChannel:
		if err := a.requireColumn(c.Field); err != nil {
			return err
		}
		next.field = c.Field
		ext, err := a.InferDomain(c.Field)
		if err != nil {
			return err
		}
		next.domain = ext
		next.fn = c.Func
		if next.fn == nil && c.Lambda != "" {
			if next.fn, err = lambda.Compile(c.Lambda); err != nil {
				return fmt.Errorf("scatter: %s: %w", a.kind, err)
			}
		}
		if next.fn != nil {
			return a.materialize(next)
		}

	default:
		return fmt.Errorf("scatter: %s: %w", a.kind, &ChannelError{Reason: fmt.Sprintf("unsupported channel %T", ch)})
	}

	a.commit(next)
	return nil
}

// requireColumn fails with ErrMissingColumn when data is loaded and has no
// column named field. Before data arrives any field binds.
func (a *Aesthetic) requireColumn(field string) error {
	root := a.root()
	if field == "" || root == nil {
		return nil
	}
	if _, err := root.Column(field); err != nil {
		return fmt.Errorf("scatter: %s: %w", a.kind, err)
	}
	return nil
}
