package command

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/netverify-go/internal/core/domain"
)

// parseParams merges a YAML/JSON document (inline or @file) with
// key=value pairs. Pair values stay strings, except that "[a, b]" becomes
// a list. Pairs win over the document.
func parseParams(doc string, pairs []string) (domain.Params, error) {
	params := domain.Params{}

	if doc != "" {
		data := []byte(doc)
		if path, ok := strings.CutPrefix(doc, "@"); ok {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, domain.ErrInvalidArgument.WithDetails("read params file " + path).WithCause(err)
			}
			data = b
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			return nil, domain.ErrInvalidParameter.WithDetails("params document").WithCause(err)
		}
		if params == nil {
			params = domain.Params{}
		}
	}

	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, domain.ErrInvalidParameter.WithDetails("want KEY=VALUE, got " + pair)
		}
		v, err := pairValue(raw)
		if err != nil {
			return nil, domain.ErrInvalidParameter.WithDetails(key).WithCause(err)
		}
		params[key] = v
	}
	return params, nil
}

func pairValue(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "[") {
		return raw, nil
	}
	var list []string
	if err := yaml.Unmarshal([]byte(trimmed), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// parseInterfaceRef parses "hostname[interface]".
func parseInterfaceRef(s string) (domain.InterfaceRef, error) {
	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") || open == len(s)-2 {
		return domain.InterfaceRef{}, domain.ErrInvalidArgument.WithDetails("want HOST[INTERFACE], got " + s)
	}
	return domain.InterfaceRef{
		Hostname:  s[:open],
		Interface: s[open+1 : len(s)-1],
	}, nil
}

func parseInterfaceRefs(values []string) ([]domain.InterfaceRef, error) {
	refs := make([]domain.InterfaceRef, 0, len(values))
	for _, v := range values {
		ref, err := parseInterfaceRef(v)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// requireArgs checks the positional argument count.
func requireArgs(c interface{ NArg() int }, n int, usage string) error {
	if c.NArg() < n {
		return domain.ErrMissingArgument.WithDetails(usage)
	}
	if c.NArg() > n {
		return domain.ErrInvalidArgument.WithDetails("too many arguments, want " + usage)
	}
	return nil
}
