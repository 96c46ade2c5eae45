package securestore

// Repo is the durable key/value layer beneath the store. Values arrive
// already sealed; the repo never sees plaintext secrets.
type Repo interface {
	Upsert(key, value string) error
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool, error)
	Delete(key string) error
	// DeleteNamespace removes every key that starts with prefix.
	DeleteNamespace(prefix string) error
}
