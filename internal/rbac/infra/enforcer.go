package infra

import (
	_ "embed"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var modelText string

// NewEnforcer builds an enforcer over the embedded RBAC model so the
// binaries do not depend on their working directory. Policy rows are
// loaded from the database by the rbac service, not from a file adapter.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	return casbin.NewEnforcer(m)
}
