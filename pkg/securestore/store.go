package securestore

// Storage interface defines the methods for the at-rest key/value DB the
// vault persists its records into. Values are opaque to the storage, the
// SecureStore is in charge of encrypting them.
type Storage interface {
	// Get returns the values of the given keys. Keys without a value are
	// omitted from the returned map.
	Get(keys ...string) (valuesByKey map[string][]byte, err error)
	// Set writes all the given key/value pairs in a single transaction.
	Set(valuesByKey map[string][]byte) (err error)
	// Remove deletes the given keys in a single transaction. Missing keys are
	// ignored.
	Remove(keys ...string) (err error)
	// Keys returns all the keys with the given prefix.
	Keys(prefix string) (keys []string, err error)
	// Reset deletes every key/value pair.
	Reset() (err error)
	// Close closes the connection to the DB.
	Close() (err error)
}
