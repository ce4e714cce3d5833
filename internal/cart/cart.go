// Package cart implements the in-memory cart store for an active sale.
// All cart mutation funnels through Store so two invariants can never be
// violated: at most one line per product id, and every line's quantity >= 1.
//
// Store is not safe for concurrent use. The session layer owns one store per
// terminal and serializes all triggers; the checkout coordinator is the only
// writer.
package cart

import "pos-sales/internal/model"

// Store holds the ordered line items of the active sale.
// Insertion order is preserved for display; lookups go through an index
// keyed by product id.
type Store struct {
	items []model.LineItem
	index map[int64]int // product id → position in items
}

// New creates an empty cart store.
func New() *Store {
	return &Store{index: make(map[int64]int)}
}

// AddOrMerge adds a product to the cart, merging with an existing line.
// If a line with productID exists its quantity accumulates; otherwise a new
// line is appended. Merging is the defined behavior for duplicate adds, not
// a conflict. A non-positive quantity defaults to 1.
func (s *Store) AddOrMerge(productID int64, name string, unitPrice int64, quantity int) model.LineItem {
	if quantity < 1 {
		quantity = 1
	}

	if i, ok := s.index[productID]; ok {
		s.items[i].Quantity += quantity
		return s.items[i]
	}

	line := model.LineItem{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	}
	s.index[productID] = len(s.items)
	s.items = append(s.items, line)
	return line
}

// SetQuantity replaces a line's quantity. A non-positive quantity removes
// the line entirely; removal-by-zero is intentional policy, not an error.
// Silently a no-op if productID is absent.
func (s *Store) SetQuantity(productID int64, quantity int) {
	i, ok := s.index[productID]
	if !ok {
		return
	}
	if quantity < 1 {
		s.Remove(productID)
		return
	}
	s.items[i].Quantity = quantity
}

// Remove deletes the matching line if present; no-op otherwise.
// Never signals an error for a missing id.
func (s *Store) Remove(productID int64) {
	i, ok := s.index[productID]
	if !ok {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, productID)
	// Reindex lines shifted left by the removal
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ProductID] = j
	}
}

// Total returns Σ(unitPrice × quantity) over all current lines, in cents.
// Recomputed from current state on every call, never cached.
func (s *Store) Total() int64 {
	var total int64
	for _, li := range s.items {
		total += li.LineTotal()
	}
	return total
}

// Clear empties the cart. Used after a successful checkout or on explicit
// cancellation.
func (s *Store) Clear() {
	s.items = nil
	s.index = make(map[int64]int)
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []model.LineItem {
	out := make([]model.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the line for productID, if present.
func (s *Store) Get(productID int64) (model.LineItem, bool) {
	if i, ok := s.index[productID]; ok {
		return s.items[i], true
	}
	return model.LineItem{}, false
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	return len(s.items)
}

// View builds the read model the rendering layer consumes: ordered lines
// plus the recomputed total.
func (s *Store) View() model.CartView {
	return model.CartView{Items: s.Items(), Total: s.Total()}
}
