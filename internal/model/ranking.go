package model

type UserRanking struct {
	UserID        int64  `json:"userId"`
	Username      string `json:"username"`
	TotalDuration int64  `json:"totalDuration"`
}

type MemberRanking struct {
	UserID             int64  `json:"userId"`
	Username           string `json:"username"`
	TotalStudyDuration int64  `json:"totalStudyDuration"`
}

type GroupRanking struct {
	GroupID       string `json:"groupId"`
	GroupName     string `json:"groupName"`
	TotalDuration int64  `json:"totalDuration"`
	MemberCount   int    `json:"memberCount"`
}
