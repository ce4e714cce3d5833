// Package terminal identifies the register terminal behind each request.
// Terminals announce themselves with the POS-Terminal header, an RFC 8941
// Dictionary carrying the register id and the terminal software version.
package terminal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
)

// Header is the register identification header name.
const Header = "POS-Terminal"

// Info is a parsed POS-Terminal header.
type Info struct {
	// ID is the register identifier, e.g. "reg-7".
	ID string
	// Version is the terminal software version, e.g. "v1.2.0".
	// Empty when the terminal did not report one.
	Version string
}

// ParseHeader extracts register id and version from a POS-Terminal header.
// Format: id="reg-7";version="v1.2.0" (RFC 8941 Dictionary, version as an
// item parameter). The comma form id="reg-7", version="v1.2.0" is also
// accepted.
//
// The id key is required; version is optional. Returns an error if the
// header is empty, malformed, or missing the id key.
func ParseHeader(header string) (*Info, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, errors.New("empty POS-Terminal header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return nil, fmt.Errorf("invalid POS-Terminal header: %w", err)
	}

	member, ok := dict.Get("id")
	if !ok {
		return nil, errors.New("id key not found in POS-Terminal header")
	}

	item, ok := member.(httpsfv.Item)
	if !ok {
		return nil, errors.New("id value must be an item")
	}

	id, ok := item.Value.(string)
	if !ok {
		return nil, errors.New("id value must be a string")
	}

	version, err := versionFrom(dict, item)
	if err != nil {
		return nil, err
	}

	return &Info{ID: id, Version: version}, nil
}

// versionFrom looks for the version first as a parameter on the id item,
// then as its own dictionary member.
func versionFrom(dict *httpsfv.Dictionary, id httpsfv.Item) (string, error) {
	if v, ok := id.Params.Get("version"); ok {
		s, ok := v.(string)
		if !ok {
			return "", errors.New("version value must be a string")
		}
		return s, nil
	}

	member, ok := dict.Get("version")
	if !ok {
		return "", nil
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", errors.New("version value must be an item")
	}
	s, ok := item.Value.(string)
	if !ok {
		return "", errors.New("version value must be a string")
	}
	return s, nil
}
