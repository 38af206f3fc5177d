// internal/workers/preference/sync-group-member/models.go
package syncgroupmember

import "github.com/kanishkaditya/DinemateBackend/internal/models"

const (
	ActionJoin   = "join"
	ActionUpdate = "update"
	ActionLeave  = "leave"
)

type Input struct {
	GroupID    string                    `json:"groupId"`
	UserID     string                    `json:"userId"`
	Action     string                    `json:"action"` // join | update | leave
	Onboarding *models.OnboardingProfile `json:"onboarding,omitempty"`
}

type Output struct {
	GroupID     string `json:"groupId"`
	MemberCount int    `json:"memberCount"`
	Recomputed  bool   `json:"recomputed"`
}
