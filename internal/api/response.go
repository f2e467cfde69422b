package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/angristan/hue-classic/internal/models"
)

// decodeValue decodes a whole response body into a generic value.
// Numbers stay json.Number so error codes keep their exact value.
func decodeValue(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &DecodeError{Reason: "invalid JSON", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Reason: "invalid JSON: trailing data after value"}
	}
	return v, nil
}

// parseLights decodes the id -> light object answered by GET /lights.
// A single bad entry fails the whole response.
func parseLights(body []byte) ([]models.IdentifiedLight, error) {
	v, err := decodeValue(body)
	if err != nil {
		return nil, err
	}

	// An unauthorized username gets the write-result error array instead
	if arr, ok := v.([]any); ok {
		if err := firstItemError(arr); err != nil {
			return nil, err
		}
		return nil, &DecodeError{Reason: "expected object of lights, got array"}
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, &DecodeError{Reason: "expected object of lights"}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &DecodeError{Reason: "expected object of lights", Err: err}
	}

	lights := make([]models.IdentifiedLight, 0, len(raw))
	for key, data := range raw {
		id, err := strconv.ParseUint(key, 10, strconv.IntSize-1)
		if err != nil {
			return nil, &DecodeError{Reason: "light id " + strconv.Quote(key) + " is not an unsigned integer", Err: err}
		}

		var light models.Light
		if err := json.Unmarshal(data, &light); err != nil {
			return nil, &DecodeError{Reason: "light " + key, Err: err}
		}
		lights = append(lights, models.IdentifiedLight{ID: int(id), Light: light})
	}

	sort.Slice(lights, func(i, j int) bool {
		return lights[i].ID < lights[j].ID
	})
	return lights, nil
}

// parseWriteResult checks the [{"success":...}] / [{"error":...}] answer
// to POST and PUT requests. Only the first item decides the outcome; on
// success the decoded array is returned untouched.
func parseWriteResult(body []byte) ([]any, error) {
	v, err := decodeValue(body)
	if err != nil {
		return nil, err
	}

	arr, ok := v.([]any)
	if !ok {
		return nil, &DecodeError{Reason: "expected array"}
	}
	if err := firstItemError(arr); err != nil {
		return nil, err
	}
	return arr, nil
}

// firstItemError returns a DecodeError for a malformed result array, the
// BridgeError carried by its first item, or nil
func firstItemError(arr []any) error {
	if len(arr) == 0 {
		return &DecodeError{Reason: "expected non-empty array"}
	}
	item, ok := arr[0].(map[string]any)
	if !ok {
		return &DecodeError{Reason: "expected first item to be an object"}
	}
	if e, ok := item["error"].(map[string]any); ok {
		return bridgeErrorFrom(e)
	}
	return nil
}

func bridgeErrorFrom(e map[string]any) *BridgeError {
	address, _ := e["address"].(string)
	description, _ := e["description"].(string)

	code := 0
	if n, ok := e["type"].(json.Number); ok {
		if i, err := n.Int64(); err == nil && i >= math.MinInt32 && i <= math.MaxInt32 {
			code = int(i)
		}
	}

	return &BridgeError{Address: address, Description: description, Code: code}
}

// successItems returns the "success" objects of a result array, in order
func successItems(arr []any) []map[string]any {
	var items []map[string]any
	for _, v := range arr {
		item, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := item["success"].(map[string]any); ok {
			items = append(items, s)
		}
	}
	return items
}
