package offline

import (
	"context"
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"
)

const (
	storeMarker = "store\x00"
	entryMarker = "entry\x00"
)

// MemoryStorage keeps stores in process memory. Nothing expires.
type MemoryStorage struct {
	items *cache.Cache
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStorage) Open(_ context.Context, name string) error {
	s.items.Set(storeMarker+name, struct{}{}, cache.NoExpiration)
	return nil
}

func (s *MemoryStorage) Put(ctx context.Context, name string, entry Entry) error {
	if err := s.Open(ctx, name); err != nil {
		return err
	}
	s.items.Set(entryKey(name, entry.URL), cloneEntry(entry), cache.NoExpiration)
	return nil
}

func (s *MemoryStorage) Match(_ context.Context, name, url string) (Entry, bool, error) {
	v, ok := s.items.Get(entryKey(name, url))
	if !ok {
		return Entry{}, false, nil
	}
	return cloneEntry(v.(Entry)), true, nil
}

func (s *MemoryStorage) Keys(context.Context) ([]string, error) {
	var names []string
	for key := range s.items.Items() {
		if name, ok := strings.CutPrefix(key, storeMarker); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	_, existed := s.items.Get(storeMarker + name)
	prefix := entryMarker + name + "\x00"
	for key := range s.items.Items() {
		if strings.HasPrefix(key, prefix) {
			s.items.Delete(key)
		}
	}
	s.items.Delete(storeMarker + name)
	return existed, nil
}

func entryKey(name, url string) string {
	return entryMarker + name + "\x00" + url
}

func cloneEntry(e Entry) Entry {
	e.Header = e.Header.Clone()
	e.Body = append([]byte(nil), e.Body...)
	return e
}
