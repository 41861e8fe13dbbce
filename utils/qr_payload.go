package utils

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
)

// TablePayload is the object embedded in a table QR link.
type TablePayload struct {
	TableName string      `json:"tableName"`
	TableID   interface{} `json:"tableId"`
}

// EncodeTablePayload returns base64(encodeURIComponent(json)). Spaces are
// written as %20 so browsers decode the link the same way.
func EncodeTablePayload(p TablePayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	escaped := strings.ReplaceAll(url.QueryEscape(string(raw)), "+", "%20")
	return base64.StdEncoding.EncodeToString([]byte(escaped)), nil
}

func DecodeTablePayload(encoded string) (*TablePayload, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	plain, err := url.PathUnescape(string(raw))
	if err != nil {
		return nil, err
	}
	var p TablePayload
	if err := json.Unmarshal([]byte(plain), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
