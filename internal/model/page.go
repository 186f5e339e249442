package model

// Page 分页结果，Total 为过滤后、分页前的总数
type Page[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

// Offset 返回 (page-1)*size
func Offset(page, size int) int { return (page - 1) * size }

// 排序 token；未识别的值回落到各操作的默认排序
const (
	SortRatingDesc   = "rating_desc"
	SortDateDesc     = "date_desc"
	SortCaloriesAsc  = "calories_asc"
	SortLikesDesc    = "likes_desc"
	SortModifiedDesc = "modified_desc"
)
