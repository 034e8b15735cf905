package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"

	"go-directory-app/internal/logger"
)

// Roles known to the directory.
const (
	RoleAnonymous = "anonymous"
	RoleAdmin     = "admin"
)

// SeedDefaultPolicies ensures the baseline authorization rules exist and
// grants the admin role to adminSubjects. It is idempotent.
func SeedDefaultPolicies(e casbin.IEnforcer, adminSubjects []string, log logger.Logger) {
	log.Info("Seeding default authorization policies...")

	policies := [][]string{
		// Public site, API and review submission.
		{RoleAnonymous, "/", "GET"},
		{RoleAnonymous, "/category/*", "GET"},
		{RoleAnonymous, "/search", "GET"},
		{RoleAnonymous, "/businesses/*", "GET"},
		{RoleAnonymous, "/sitemap.xml", "GET"},
		{RoleAnonymous, "/robots.txt", "GET"},
		{RoleAnonymous, "/api/*", "GET"},
		{RoleAnonymous, "/reviews", "GET"},
		{RoleAnonymous, "/reviews", "POST"},
		{RoleAnonymous, "/auth/login", "GET"},
		{RoleAnonymous, "/auth/callback", "GET"},
		{RoleAnonymous, "/auth/logout", "GET"},

		// Admins manage the page tree and imports.
		{RoleAdmin, "/admin/*", "*"},
	}
	for _, p := range policies {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add policy %v", p))
			}
		}
	}

	if has, _ := e.HasRoleForUser(RoleAdmin, RoleAnonymous); !has {
		if _, err := e.AddRoleForUser(RoleAdmin, RoleAnonymous); err != nil {
			log.Error(err, "Failed to add role 'admin' -> 'anonymous'")
		}
	}
	for _, sub := range adminSubjects {
		if sub == "" {
			continue
		}
		if has, _ := e.HasRoleForUser(sub, RoleAdmin); !has {
			if _, err := e.AddRoleForUser(sub, RoleAdmin); err != nil {
				log.Error(err, fmt.Sprintf("Failed to grant admin to %s", sub))
			}
		}
	}
	log.Info("Policy seeding complete.")
}
