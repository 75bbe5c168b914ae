package nifi

import "github.com/stackoverflowed/nifimcp/internal/apperr"

const kindNotFound = apperr.KindNotFound

func asAppErr(err error) (*apperr.Error, bool) {
	return apperr.As(err)
}
