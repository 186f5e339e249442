package model

// CaloriePair 卡路里最接近的相邻菜谱对
type CaloriePair struct {
	RecipeA    int64   `json:"recipe_a"`
	RecipeB    int64   `json:"recipe_b"`
	CaloriesA  float64 `json:"calories_a"`
	CaloriesB  float64 `json:"calories_b"`
	Difference float64 `json:"difference"`
}

type ComplexRecipe struct {
	RecipeID        int64  `json:"recipe_id"`
	Name            string `json:"name"`
	IngredientCount int64  `json:"ingredient_count"`
}

type FollowRatio struct {
	UserID int64   `json:"user_id"`
	Name   string  `json:"name"`
	Ratio  float64 `json:"ratio"`
}
