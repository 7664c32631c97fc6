package utils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

// maxBodySize bounds request bodies read by DecodeReq
const maxBodySize = 1 << 20

// DecodeReq decodes a json request body into an interface
func DecodeReq(r *http.Request, model interface{}) error {
	defer r.Body.Close()
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(b))
	return json.Unmarshal(b, model)
}

// QueryInt reads a non-negative integer query parameter, falling back to
// def when it is absent or malformed
func QueryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// QueryBool reads a boolean query parameter
func QueryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}
