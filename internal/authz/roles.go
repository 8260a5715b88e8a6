package authz

const (
	RoleResearcher = "researcher"
	RoleExpert     = "expert"
	RoleAdmin      = "admin"
)

const (
	ViewExpertDashboard     = "expert-dashboard"
	ViewResearcherDashboard = "researcher-dashboard"
)

// ViewForRole picks the landing view for a stored profile role. Only experts
// get the expert dashboard; every other role lands on the researcher one.
func ViewForRole(role string) string {
	if role == RoleExpert {
		return ViewExpertDashboard
	}
	return ViewResearcherDashboard
}
