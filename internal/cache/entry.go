package cache

import "github.com/bytedance/sonic"

// Entry is a stored response. Body holds the exact bytes the handler wrote.
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

func encodeEntry(e Entry) ([]byte, error) {
	return sonic.Marshal(e)
}

func decodeEntry(b []byte) (Entry, error) {
	var e Entry
	err := sonic.Unmarshal(b, &e)
	return e, err
}
