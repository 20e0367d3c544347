package domain

import "strings"

// Category is a closed enumeration of popup category codes.
type Category string

const (
	CategoryFashion       Category = "fashion"
	CategoryBeauty        Category = "beauty"
	CategoryFood          Category = "food"
	CategoryCharacter     Category = "character"
	CategoryExhibition    Category = "exhibition"
	CategoryEntertainment Category = "entertainment"
	CategoryLifestyle     Category = "lifestyle"
	CategoryThemePark     Category = "theme_park"
	CategoryAnimation     Category = "animation"
	CategoryTech          Category = "tech"
	CategoryCulture       Category = "culture"
	CategorySports        Category = "sports"
	CategoryEtc           Category = "etc"
)

var categoryLabels = map[Category]string{
	CategoryFashion:       "패션",
	CategoryBeauty:        "뷰티",
	CategoryFood:          "식품/디저트",
	CategoryCharacter:     "캐릭터/굿즈",
	CategoryExhibition:    "전시/아트",
	CategoryEntertainment: "엔터테인먼트",
	CategoryLifestyle:     "라이프스타일/리빙",
	CategoryThemePark:     "테마파크/체험",
	CategoryAnimation:     "애니메이션/만화",
	CategoryTech:          "IT/테크",
	CategoryCulture:       "문화/출판",
	CategorySports:        "스포츠/피트니스",
	CategoryEtc:           "기타",
}

// Label returns the display label; unknown codes render as themselves.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory normalizes s and reports whether it names a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}
