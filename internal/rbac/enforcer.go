package rbac

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// The policy set is static: this service has a small, fixed permission
// surface, so the rules live in code instead of a database.

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var policies = [][]string{
	{"viewer", "payroll", "read"},
	{"hr", "payroll", "create"},
	{"hr", "payroll", "recalculate"},
	{"hr", "payroll", "delete"},
	{"finance", "payroll", "status"},
	{"hr", "scheduler", "manage"},
}

// Role inheritance: admin gets everything, hr and finance also read.
var groupings = [][]string{
	{"hr", "viewer"},
	{"finance", "viewer"},
	{"admin", "hr"},
	{"admin", "finance"},
}

type Service interface {
	Enforce(role, resource, action string) (bool, error)
}

type service struct {
	enforcer *casbin.Enforcer
}

func NewService() (Service, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, p := range policies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, err
		}
	}
	for _, g := range groupings {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, err
		}
	}

	return &service{enforcer: e}, nil
}

func (s *service) Enforce(role, resource, action string) (bool, error) {
	if role == "" {
		return false, nil
	}
	return s.enforcer.Enforce(role, resource, action)
}
