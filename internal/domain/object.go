package domain

// StoredObject describes the result of a successful upload. Once returned,
// the object is committed: the backend owns the bytes and the gateway keeps
// no copy.
type StoredObject struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
}
