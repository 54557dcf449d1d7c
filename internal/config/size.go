package config

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Size is a byte count. Its text form is an integer with an optional binary
// suffix: k, M, G, T or P (case-insensitive).
type Size uint64

var sizeUnits = map[byte]uint{
	'k': 10,
	'm': 20,
	'g': 30,
	't': 40,
	'p': 50,
}

// ParseSize parses a size such as "512", "4k" or "2G".
func ParseSize(s string) (Size, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidSize)
	}
	var shift uint
	if u, ok := sizeUnits[lower(s[len(s)-1])]; ok {
		shift = u
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	if shift > 0 && bits.LeadingZeros64(n) < int(shift) {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}
	return Size(n << shift), nil
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func (s Size) Bytes() uint64 { return uint64(s) }

func (s Size) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// Set implements pflag.Value.
func (s *Size) Set(v string) error {
	n, err := ParseSize(v)
	if err != nil {
		return err
	}
	*s = n
	return nil
}

// Type implements pflag.Value.
func (s *Size) Type() string { return "size" }

// UnmarshalYAML accepts plain integers as well as suffixed strings.
func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected a scalar", ErrInvalidSize, node.Line)
	}
	if node.Tag == "!!int" {
		var n uint64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrInvalidSize, node.Line, err)
		}
		*s = Size(n)
		return nil
	}
	return s.Set(node.Value)
}

// MarshalYAML writes the size as an integer.
func (s Size) MarshalYAML() (any, error) {
	return uint64(s), nil
}
