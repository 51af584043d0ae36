package service

import (
	"database/sql"
	"errors"

	"github.com/danielledeleo/seocms/cms"
)

// notFound maps a missing row to cms.ErrGenericNotFound and passes other
// errors through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return cms.ErrGenericNotFound
	}
	return err
}
