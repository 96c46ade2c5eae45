package repofakes

import (
	"strings"
	"sync"

	"github.com/quantfold/tradekit/securestore"
)

var _ securestore.Repo = (*FakeRepo)(nil)

// FakeRepo is an in-memory securestore.Repo for tests.
type FakeRepo struct {
	values map[string]string
	lock   sync.RWMutex

	// FailWrites makes every Upsert fail when set, for storage-error paths.
	FailWrites bool
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{values: make(map[string]string)}
}

func (f *FakeRepo) Upsert(key, value string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.FailWrites {
		return errWriteFailed
	}
	f.values[key] = value
	return nil
}

func (f *FakeRepo) Get(key string) (string, bool, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	value, ok := f.values[key]
	return value, ok, nil
}

func (f *FakeRepo) Delete(key string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	delete(f.values, key)
	return nil
}

func (f *FakeRepo) DeleteNamespace(prefix string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	for key := range f.values {
		if strings.HasPrefix(key, prefix) {
			delete(f.values, key)
		}
	}
	return nil
}

// Len reports how many keys are stored, for untouched-store assertions.
func (f *FakeRepo) Len() int {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return len(f.values)
}

// Keys returns a snapshot of the stored keys.
func (f *FakeRepo) Keys() []string {
	f.lock.RLock()
	defer f.lock.RUnlock()

	keys := make([]string, 0, len(f.values))
	for key := range f.values {
		keys = append(keys, key)
	}
	return keys
}

type repoError string

func (e repoError) Error() string { return string(e) }

const errWriteFailed = repoError("write failed")
