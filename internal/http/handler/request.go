package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

const maxBodyBytes = 1 << 20

// fields is a decoded request body. JSON objects keep their value types
// (numbers as json.Number); form bodies hold strings.
type fields map[string]any

func readFields(w http.ResponseWriter, r *http.Request) (fields, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if ct == "multipart/form-data" {
			if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
				return nil, nonFieldError("Malformed form body.")
			}
		} else if err := r.ParseForm(); err != nil {
			return nil, nonFieldError("Malformed form body.")
		}
		out := fields{}
		for k, v := range r.PostForm {
			if len(v) > 0 {
				out[k] = v[0]
			}
		}
		return out, nil
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()

	out := fields{}
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return fields{}, nil
		}
		return nil, nonFieldError("JSON parse error.")
	}
	return out, nil
}

func (f fields) has(key string) bool {
	_, ok := f[key]
	return ok
}

func (f fields) str(key string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func (f fields) boolean(key string) (bool, error) {
	switch v := f[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "false", "0", "off", "no":
			return false, nil
		case "true", "1", "on", "yes":
			return true, nil
		}
	case json.Number:
		switch v.String() {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
	}
	return false, fieldError(key, "Must be a valid boolean.")
}

// quota reads a nullable non-negative integer. null, a missing key and ""
// all mean unlimited.
func (f fields) quota(key string) (*int64, error) {
	var raw string
	switch v := f[key].(type) {
	case nil:
		return nil, nil
	case json.Number:
		raw = v.String()
	case string:
		raw = strings.TrimSpace(v)
		if raw == "" {
			return nil, nil
		}
	default:
		return nil, fieldError(key, "A valid integer is required.")
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fieldError(key, "A valid integer is required.")
	}
	if n < 0 {
		return nil, fieldError(key, "Ensure this value is greater than or equal to 0.")
	}
	return &n, nil
}
