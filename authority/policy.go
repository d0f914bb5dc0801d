package authority

import (
	"ieflow/common"
	"ieflow/domain"
	"ieflow/session"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	RoleAdmin              = "ADMIN"
	RoleMaintenanceManager = "MAINTENANCE_MANAGER"
	RoleMaintenanceChief   = "MAINTENANCE_CHIEF"
)

var DefaultManagerRoles = []string{RoleAdmin, RoleMaintenanceManager, RoleMaintenanceChief}

// Policy derives capabilities from the caller identity, nothing here is persisted.
type Policy struct {
	ManagerRoles []string
	// AssignmentPrincipals are the only principals allowed to assign work, roles never grant it.
	AssignmentPrincipals []string
}

var ActivePolicy = &Policy{ManagerRoles: DefaultManagerRoles}

func LoadPolicyFromEnv() *Policy {
	p := &Policy{ManagerRoles: DefaultManagerRoles}
	if roles := common.SplitAndTrim(os.Getenv("MANAGER_ROLES")); len(roles) > 0 {
		p.ManagerRoles = roles
	}
	p.AssignmentPrincipals = common.SplitAndTrim(os.Getenv("ASSIGNMENT_PRINCIPALS"))
	if len(p.AssignmentPrincipals) == 0 {
		logrus.Warn("ASSIGNMENT_PRINCIPALS is empty, nobody is able to assign work orders")
	}
	return p
}

func (p *Policy) IsManager(identity *session.Identity) bool {
	role := strings.TrimSpace(identity.Role)
	if role == "" {
		return false
	}
	for _, r := range p.ManagerRoles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

func (p *Policy) HasAssignmentCapability(identity *session.Identity) bool {
	candidates := []string{
		normalize(identity.Name),
		normalize(identity.Nickname),
		normalize(identity.EmployeeID),
	}
	if fields := strings.Fields(identity.Nickname); len(fields) > 0 {
		candidates = append(candidates, normalize(fields[0]))
	}
	if identity.ID != 0 {
		candidates = append(candidates, identity.ID.String())
	}
	email := normalize(identity.Email)

	for _, principal := range p.AssignmentPrincipals {
		principal = normalize(principal)
		if principal == "" {
			continue
		}
		for _, c := range candidates {
			if c != "" && c == principal {
				return true
			}
		}
		if email != "" && strings.Contains(email, principal) {
			return true
		}
	}
	return false
}

// HasWorkCapability reports whether the caller may drive the order through regular work steps.
func (p *Policy) HasWorkCapability(identity *session.Identity, order *domain.WorkOrder) bool {
	return p.IsManager(identity) || order.IsAssignee(identity.ID)
}

// CanManageCompleted guards reopening and deleting.
func (p *Policy) CanManageCompleted(identity *session.Identity) bool {
	return p.IsManager(identity) || p.HasAssignmentCapability(identity)
}

func (p *Policy) CanApprove(identity *session.Identity, order *domain.WorkOrder) bool {
	return p.IsManager(identity) || order.RequesterID == identity.ID
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
