package repositories

import (
	"fmt"
	"strings"

	"apiscaffold/internal/domain"
)

// ValidateMandatory fails when any of names is missing or blank in params.
func ValidateMandatory(params domain.Params, names ...string) error {
	missing := []string{}
	fields := map[string]string{}
	for _, n := range names {
		if params.Has(n) {
			continue
		}
		missing = append(missing, n)
		fields[n] = fmt.Sprintf("%s is a mandatory parameter.", n)
	}
	switch len(missing) {
	case 0:
		return nil
	case 1:
		return domain.ValidationError{Msg: missing[0] + " is mandatory parameter", Fields: fields}
	default:
		return domain.ValidationError{Msg: strings.Join(missing, ", ") + " are mandatory parameters", Fields: fields}
	}
}
