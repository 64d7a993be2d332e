package inventory

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"sync"
)

// MaxQuantity bounds every stored quantity.
const MaxQuantity = 1_000_000_000

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidValue = errors.New("invalid value")
	ErrPersistence  = errors.New("persistence failure")
)

// Repository persists the whole inventory as one document.
type Repository interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// StockItem is one color of one article, as yielded by LowStock.
type StockItem struct {
	Article  string
	Color    string
	Quantity int
}

type article struct {
	id     string
	colors []*Variant
	byName map[string]*Variant
}

func (a *article) find(color string) (*Variant, bool) {
	v, ok := a.byName[color]
	return v, ok
}

// Store is the process-wide inventory shared by all users.
// Every mutation holds the write lock until the repository write returns,
// so the persisted document always reflects a serial order of mutations.
type Store struct {
	mu       sync.RWMutex
	articles []*article
	byID     map[string]*article
	repo     Repository
}

// NewStore creates an empty store. repo may be nil for a memory-only store.
func NewStore(repo Repository) *Store {
	return &Store{byID: make(map[string]*article), repo: repo}
}

// Load replaces the in-memory state with the repository contents.
// A repository error leaves the store empty; it is returned for logging only.
func (s *Store) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	snap, err := s.repo.Load(ctx)
	if err != nil {
		s.Replace(nil)
		return fmt.Errorf("load inventory: %w", err)
	}
	s.Replace(snap)
	return nil
}

// Replace swaps the whole mapping without persisting it.
// Quantities are clamped to [0, MaxQuantity].
func (s *Store) Replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles = nil
	s.byID = make(map[string]*article, len(snap))
	for _, a := range snap {
		art := s.addArticleLocked(a.ID)
		for _, v := range a.Colors {
			q := clampQuantity(v.Quantity)
			if cur, ok := art.find(v.Color); ok {
				cur.Quantity = q
				continue
			}
			addColor(art, v.Color, q)
		}
	}
}

// Snapshot returns a deep copy of the inventory in insertion order.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Article returns a copy of one article.
func (s *Store) Article(id string) (Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return Article{}, false
	}
	return copyArticle(a), true
}

// Len reports the number of articles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}

// LowStock yields every color whose quantity is at or below threshold.
// The sequence is computed from a fresh snapshot on each iteration.
func (s *Store) LowStock(threshold int) iter.Seq[StockItem] {
	return func(yield func(StockItem) bool) {
		for _, a := range s.Snapshot() {
			for _, v := range a.Colors {
				if v.Quantity > threshold {
					continue
				}
				if !yield(StockItem{Article: a.ID, Color: v.Color, Quantity: v.Quantity}) {
					return
				}
			}
		}
	}
}

// EnsureArticle creates an empty article if it does not exist yet.
func (s *Store) EnsureArticle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; ok {
		return false, nil
	}
	s.addArticleLocked(id)
	return true, s.persistLocked(ctx)
}

// EnsureColor creates a color with qty under an existing article.
func (s *Store) EnsureColor(ctx context.Context, articleID, color string, qty int) (bool, error) {
	if qty < 0 || qty > MaxQuantity {
		return false, fmt.Errorf("quantity %d: %w", qty, ErrInvalidValue)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[articleID]
	if !ok {
		return false, fmt.Errorf("article %q: %w", articleID, ErrNotFound)
	}
	if _, ok := a.find(color); ok {
		return false, nil
	}
	addColor(a, color, qty)
	return true, s.persistLocked(ctx)
}

// IncrementColor adds a positive delta and returns the new quantity.
// A sum above MaxQuantity is rejected and the quantity stays as it was.
func (s *Store) IncrementColor(ctx context.Context, articleID, color string, delta int) (int, error) {
	if delta <= 0 || delta > MaxQuantity {
		return 0, fmt.Errorf("delta %d: %w", delta, ErrInvalidValue)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.variantLocked(articleID, color)
	if err != nil {
		return 0, err
	}
	if v.Quantity > MaxQuantity-delta {
		return v.Quantity, fmt.Errorf("quantity %d + %d: %w", v.Quantity, delta, ErrInvalidValue)
	}
	v.Quantity += delta
	return v.Quantity, s.persistLocked(ctx)
}

// SetColorQuantity sets an absolute quantity. Values outside [0, MaxQuantity]
// are rejected and leave the previous quantity in place.
func (s *Store) SetColorQuantity(ctx context.Context, articleID, color string, value int) error {
	if value < 0 || value > MaxQuantity {
		return fmt.Errorf("quantity %d: %w", value, ErrInvalidValue)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.variantLocked(articleID, color)
	if err != nil {
		return err
	}
	v.Quantity = value
	return s.persistLocked(ctx)
}

// DeleteColor removes a color. Missing article or color is a no-op.
func (s *Store) DeleteColor(ctx context.Context, articleID, color string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[articleID]
	if !ok {
		return false, nil
	}
	if _, ok := a.find(color); !ok {
		return false, nil
	}
	delete(a.byName, color)
	for i, v := range a.colors {
		if v.Color == color {
			a.colors = append(a.colors[:i], a.colors[i+1:]...)
			break
		}
	}
	return true, s.persistLocked(ctx)
}

// DeleteArticle removes an article with all its colors. Missing article is a no-op.
func (s *Store) DeleteArticle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false, nil
	}
	delete(s.byID, id)
	for i, a := range s.articles {
		if a.id == id {
			s.articles = append(s.articles[:i], s.articles[i+1:]...)
			break
		}
	}
	return true, s.persistLocked(ctx)
}

// ResetArticle sets every color of the article to zero.
func (s *Store) ResetArticle(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("article %q: %w", id, ErrNotFound)
	}
	for _, v := range a.colors {
		v.Quantity = 0
	}
	return s.persistLocked(ctx)
}

// Clear drops the whole inventory.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles = nil
	s.byID = make(map[string]*article)
	return s.persistLocked(ctx)
}

// Merge adds the articles and colors of snap that are missing.
// Existing quantities are left untouched. It returns the number of colors created.
func (s *Store) Merge(ctx context.Context, snap Snapshot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := 0
	changed := false
	for _, in := range snap {
		a, ok := s.byID[in.ID]
		if !ok {
			a = s.addArticleLocked(in.ID)
			changed = true
		}
		for _, v := range in.Colors {
			if _, ok := a.find(v.Color); ok {
				continue
			}
			addColor(a, v.Color, clampQuantity(v.Quantity))
			created++
			changed = true
		}
	}
	if !changed {
		return 0, nil
	}
	return created, s.persistLocked(ctx)
}

func (s *Store) variantLocked(articleID, color string) (*Variant, error) {
	a, ok := s.byID[articleID]
	if !ok {
		return nil, fmt.Errorf("article %q: %w", articleID, ErrNotFound)
	}
	v, ok := a.find(color)
	if !ok {
		return nil, fmt.Errorf("color %q of %q: %w", color, articleID, ErrNotFound)
	}
	return v, nil
}

func (s *Store) addArticleLocked(id string) *article {
	if a, ok := s.byID[id]; ok {
		return a
	}
	a := &article{id: id, byName: make(map[string]*Variant)}
	s.articles = append(s.articles, a)
	s.byID[id] = a
	return a
}

func clampQuantity(q int) int {
	return min(max(q, 0), MaxQuantity)
}

func addColor(a *article, color string, qty int) {
	v := &Variant{Color: color, Quantity: qty}
	a.colors = append(a.colors, v)
	a.byName[color] = v
}

// persistLocked writes the current state, retrying once.
// The in-memory change is kept even when both attempts fail.
func (s *Store) persistLocked(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	snap := s.snapshotLocked()
	err := s.repo.Save(ctx, snap)
	if err == nil {
		return nil
	}
	log.Printf("⚠️ inventory save failed, retrying: %v", err)
	if err = s.repo.Save(ctx, snap); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	out := make(Snapshot, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, copyArticle(a))
	}
	return out
}

func copyArticle(a *article) Article {
	colors := make([]Variant, 0, len(a.colors))
	for _, v := range a.colors {
		colors = append(colors, *v)
	}
	return Article{ID: a.id, Colors: colors}
}
