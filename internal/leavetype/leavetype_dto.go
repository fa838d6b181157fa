package leavetype

type LeaveTypeResponse struct {
	ID               string `json:"id"`
	Code             string `json:"code"`
	Name             string `json:"name"`
	AffectsBalance   bool   `json:"affects_balance"`
	RequiresEvidence bool   `json:"requires_evidence"`
}
