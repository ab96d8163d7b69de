package curve

import (
	"fmt"
	"sort"
	"time"
)

// Set groups one discount curve with forward curves keyed by reference rate
// and credit spread curves keyed by credit identifier. All member curves
// share one as-of date and currency.
type Set struct {
	discount *RateCurve
	forwards map[string]*RateCurve
	spreads  map[string]*RateCurve
}

// NewSet validates that every member shares the discount curve's as-of date
// and currency, and that the discount curve is discount-typed.
func NewSet(discount *RateCurve, forwards, spreads map[string]*RateCurve) (*Set, error) {
	if discount == nil {
		return nil, fmt.Errorf("curve set: discount curve is required")
	}
	if discount.Type() != TypeDiscount {
		return nil, fmt.Errorf("curve set: curve %s is %s, not discount", discount.Name(), discount.Type())
	}

	s := &Set{
		discount: discount,
		forwards: make(map[string]*RateCurve, len(forwards)),
		spreads:  make(map[string]*RateCurve, len(spreads)),
	}
	for key, c := range forwards {
		if err := s.checkMember(key, c); err != nil {
			return nil, err
		}
		s.forwards[key] = c
	}
	for key, c := range spreads {
		if err := s.checkMember(key, c); err != nil {
			return nil, err
		}
		s.spreads[key] = c
	}
	return s, nil
}

func (s *Set) checkMember(key string, c *RateCurve) error {
	if c == nil {
		return fmt.Errorf("curve set: nil curve for key %q", key)
	}
	if !c.AsOf().Equal(s.discount.AsOf()) {
		return fmt.Errorf("curve set: curve %s as-of %s differs from discount as-of %s",
			c.Name(), c.AsOf().Format("2006-01-02"), s.discount.AsOf().Format("2006-01-02"))
	}
	if c.Currency() != s.discount.Currency() {
		return fmt.Errorf("curve set: curve %s currency %s differs from discount currency %s",
			c.Name(), c.Currency(), s.discount.Currency())
	}
	return nil
}

// Discount returns the set's discount curve.
func (s *Set) Discount() *RateCurve { return s.discount }

// AsOf returns the shared base date.
func (s *Set) AsOf() time.Time { return s.discount.AsOf() }

// Currency returns the shared currency.
func (s *Set) Currency() string { return s.discount.Currency() }

// ForwardCurve resolves a forward curve by reference-rate key. A miss is an
// UnresolvedIndexError, never a fallback to another curve.
func (s *Set) ForwardCurve(index string) (*RateCurve, error) {
	if c, ok := s.forwards[index]; ok {
		return c, nil
	}
	return nil, &UnresolvedIndexError{Index: index, Available: s.ForwardKeys()}
}

// SpreadCurve resolves a credit spread curve by identifier.
func (s *Set) SpreadCurve(id string) (*RateCurve, error) {
	if c, ok := s.spreads[id]; ok {
		return c, nil
	}
	return nil, &UnresolvedIndexError{Index: id, Available: s.SpreadKeys()}
}

// ForwardKeys returns the forward curve keys in sorted order.
func (s *Set) ForwardKeys() []string {
	keys := make([]string, 0, len(s.forwards))
	for k := range s.forwards {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SpreadKeys returns the spread curve keys in sorted order.
func (s *Set) SpreadKeys() []string {
	keys := make([]string, 0, len(s.spreads))
	for k := range s.spreads {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WithDiscount returns a new set with the discount curve replaced. Used by
// bump-and-revalue; member validation is the caller's concern there, so the
// replacement keeps the existing forwards and spreads untouched.
func (s *Set) WithDiscount(d *RateCurve) *Set {
	out := s.clone()
	out.discount = d
	return out
}

// WithForward returns a new set with one forward curve replaced or added.
func (s *Set) WithForward(key string, c *RateCurve) *Set {
	out := s.clone()
	out.forwards[key] = c
	return out
}

func (s *Set) clone() *Set {
	out := &Set{
		discount: s.discount,
		forwards: make(map[string]*RateCurve, len(s.forwards)),
		spreads:  make(map[string]*RateCurve, len(s.spreads)),
	}
	for k, v := range s.forwards {
		out.forwards[k] = v
	}
	for k, v := range s.spreads {
		out.spreads[k] = v
	}
	return out
}
