package dto

// RecommendationQuery 推荐请求参数
type RecommendationQuery struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	SessionID string `form:"sessionId" validate:"omitempty,max=64"`
}

// RecommendationPage 推荐结果，HasMore 为 false 表示流结束
type RecommendationPage struct {
	Items   []string `json:"items"`
	HasMore bool     `json:"hasMore"`
}
