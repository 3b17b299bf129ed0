// Package nvs is the non-volatile key-value byte store the configuration
// core persists parameters to. Keys are short strings ("u0", "s1", ...);
// values are opaque blobs — nvs has no knowledge of configstore's typed
// metadata tables.
package nvs

// NVS is a single logical namespace of byte-blob values addressed by short
// string keys, with whole-namespace erase.
type NVS interface {
	// Get returns the stored value and true, or false if the key is absent.
	Get(key string) ([]byte, bool, error)
	// Set stores or overwrites a value.
	Set(key string, value []byte) error
	// Erase clears every key in the namespace.
	Erase() error
	// Close releases the backing store.
	Close() error
}
