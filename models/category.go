package models

// Category - категория поста форума
type Category string

const (
	CategoryPest    Category = "pest"
	CategoryHealth  Category = "health"
	CategoryGrowing Category = "growing"
	CategoryHarvest Category = "harvest"
	CategoryGeneral Category = "general"

	// CategoryAll используется только в фильтре ленты
	CategoryAll Category = "all"
)

// Categories - фиксированный набор категорий в порядке отображения
var Categories = []Category{CategoryPest, CategoryHealth, CategoryGrowing, CategoryHarvest, CategoryGeneral}

var categoryLabels = map[Category]string{
	CategoryPest:    "Pests & Diseases",
	CategoryHealth:  "Tree Health",
	CategoryGrowing: "Growing Tips",
	CategoryHarvest: "Harvest",
	CategoryGeneral: "General",
	CategoryAll:     "All",
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// ParseCategory разбирает категорию фильтра; пустая строка означает "all"
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	if s == "" || c == CategoryAll {
		return CategoryAll, true
	}
	return c, c.Valid()
}
