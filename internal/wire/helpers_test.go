package wire_test

import (
	"encoding/base64"
	"testing"
)

func mustBase64Decode(t *testing.T, s string) []byte {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("base64 decode: %v", err)
	}
	return raw
}

func mustBase64Encode(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}
