// internal/workers/maintenance/decay-stale-preferences/models.go
package decaystalepreferences

type Input struct {
	GroupID   string `json:"groupId,omitempty"` // empty means all groups
	BatchSize int    `json:"batchSize,omitempty"`
}

type Output struct {
	MembersDecayed   int `json:"membersDecayed"`
	GroupsRecomputed int `json:"groupsRecomputed"`
}
