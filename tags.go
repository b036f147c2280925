package mold

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TagName is the struct tag read by the engine.
//
// A tag is a list of tokens separated by ";". Each token has the form
//
//	name[@order][:arg[,arg...]]
//
// Reserved names:
//
//	"-"             ignore the field
//	lazy            evaluate on first access (field must be Lazy[T])
//	cache[:ttl]     cache the resolved value per node, culture and field
//	converter:name  apply a registered Converter
//
// Any other name refers to a registered processor, e.g.
//
//	Title   string          `mold:"property:title,name"`
//	Greet   string          `mold:"dictionary:hello"`
//	Slug    string          `mold:"property@1:name;lower@2"`
//	Related Lazy[[]*Page]   `mold:"property:related;cache:5m"`
const TagName = "mold"

// tagToken is one processor reference parsed from a tag.
type tagToken struct {
	Name     string
	Args     []string
	Order    int
	HasOrder bool
}

// fieldTag is the parsed form of a mold tag.
type fieldTag struct {
	Ignore     bool
	Lazy       bool
	Cache      bool
	CacheTTL   time.Duration
	Processors []tagToken
	Converters []string
}

// parseTag parses a mold tag value.
func parseTag(raw string) (fieldTag, error) {
	var ft fieldTag
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ft, nil
	}
	if raw == "-" {
		ft.Ignore = true
		return ft, nil
	}

	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tok, err := parseToken(part)
		if err != nil {
			return fieldTag{}, err
		}

		switch tok.Name {
		case "-":
			ft.Ignore = true
		case "lazy":
			ft.Lazy = true
		case "cache":
			ft.Cache = true
			if len(tok.Args) > 0 {
				ttl, err := time.ParseDuration(tok.Args[0])
				if err != nil {
					return fieldTag{}, fmt.Errorf("%w: cache ttl %q: %v", ErrInvalidTag, tok.Args[0], err)
				}
				ft.CacheTTL = ttl
			}
		case "converter":
			if len(tok.Args) != 1 || tok.Args[0] == "" {
				return fieldTag{}, fmt.Errorf("%w: converter requires one name", ErrInvalidTag)
			}
			ft.Converters = append(ft.Converters, tok.Args[0])
		default:
			ft.Processors = append(ft.Processors, tok)
		}
	}

	return ft, nil
}

// parseToken parses name[@order][:args].
func parseToken(s string) (tagToken, error) {
	var tok tagToken

	head, args, hasArgs := strings.Cut(s, ":")
	name, order, hasOrder := strings.Cut(head, "@")
	tok.Name = strings.TrimSpace(name)
	if tok.Name == "" {
		return tagToken{}, fmt.Errorf("%w: empty processor name in %q", ErrInvalidTag, s)
	}

	if hasOrder {
		n, err := strconv.Atoi(strings.TrimSpace(order))
		if err != nil {
			return tagToken{}, fmt.Errorf("%w: order %q in %q", ErrInvalidTag, order, s)
		}
		tok.Order = n
		tok.HasOrder = true
	}

	if hasArgs {
		for _, a := range strings.Split(args, ",") {
			tok.Args = append(tok.Args, strings.TrimSpace(a))
		}
	}

	return tok, nil
}
