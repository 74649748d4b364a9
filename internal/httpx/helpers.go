package httpx

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

var errBadDataURL = errors.New("proof image must be a base64 data URL")

// saveDataURL decodes a "data:image/<ext>;base64,..." payload and stores it
// as the order's receipt proof.
func saveDataURL(store ProofSaver, orderID, dataURL string) (string, error) {
	meta, data, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(meta, "data:image/") || !strings.HasSuffix(meta, ";base64") {
		return "", errBadDataURL
	}
	ext := strings.TrimSuffix(strings.TrimPrefix(meta, "data:image/"), ";base64")
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", errBadDataURL
	}
	return store.SaveReceiptProof(orderID, "receipt."+ext, bytes.NewReader(raw))
}
