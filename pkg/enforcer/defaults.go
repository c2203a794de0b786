package enforcer

import (
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
)

// LoadDefaultPolicies installs the console's route policy table.
//
//	/login                  public
//	/                       any authenticated session
//	/register               any authenticated session
//	/attendance             any authenticated session
//	/logout                 any authenticated session
//	/admin                  admin only
//	/api/v1/login           public
//	/api/v1                 any authenticated session
//	GET /api/v1/students    admin only
//
// Paths without a policy are public and render the not-found view.
func (e *Enforcer) LoadDefaultPolicies() {
	e.SetPolicy("/login", "*", models.PolicyPublic)
	e.SetPolicy("/", "*", models.PolicyAuthenticated)
	e.SetPolicy("/register", "*", models.PolicyAuthenticated)
	e.SetPolicy("/attendance", "*", models.PolicyAuthenticated)
	e.SetPolicy("/logout", "*", models.PolicyAuthenticated)
	e.SetPolicy("/admin", "*", models.PolicyAdmin)

	e.SetPolicy("/api/v1/login", "*", models.PolicyPublic)
	e.SetPolicy("/api/v1", "*", models.PolicyAuthenticated)
	e.SetPolicy("/api/v1/students", "GET", models.PolicyAdmin)
}

// Allows reports whether a session may navigate to path with method.
// Navigation menus use it to hide entries the guard would refuse.
func (e *Enforcer) Allows(session *models.Session, method, path string) bool {
	policy, _ := e.FindMatchingPolicy(path, method)
	return policy.Permits(session)
}
