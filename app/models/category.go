package models

// CategoryKind selects the display motif of a category.
type CategoryKind string

const (
	KindAudio     CategoryKind = "audio"
	KindWatch     CategoryKind = "watch"
	KindAccessory CategoryKind = "accessory"
	KindOffer     CategoryKind = "offer"
	KindOther     CategoryKind = "other"
)

// UncategorizedLabel is shown for products without a resolvable category.
const UncategorizedLabel = "بدون تصنيف"

type Category struct {
	ID   string       `bson:"_id,omitempty" gorm:"primaryKey;size:64"      json:"id"`
	Name string       `bson:"name"          gorm:"size:255;not null"       json:"name"`
	Kind CategoryKind `bson:"kind,omitempty" gorm:"size:32;default:other" json:"kind"`
}

// Motif is the icon and gradient a storefront uses to render a category.
type Motif struct {
	Icon     string `json:"icon"`
	Gradient string `json:"gradient"`
}

var motifs = map[CategoryKind]Motif{
	KindAudio:     {Icon: "headphones", Gradient: "from-purple-500 to-indigo-600"},
	KindWatch:     {Icon: "watch", Gradient: "from-amber-500 to-orange-600"},
	KindAccessory: {Icon: "smartphone", Gradient: "from-blue-500 to-cyan-600"},
	KindOffer:     {Icon: "layout-grid", Gradient: "from-red-500 to-pink-600"},
	KindOther:     {Icon: "layout-grid", Gradient: "from-emerald-500 to-teal-600"},
}

// ParseCategoryKind maps free input to a known kind, defaulting to other.
func ParseCategoryKind(s string) CategoryKind {
	k := CategoryKind(s)
	if _, ok := motifs[k]; ok {
		return k
	}
	return KindOther
}

// Motif returns the display motif for the category's kind.
func (c Category) Motif() Motif {
	return motifs[ParseCategoryKind(string(c.Kind))]
}

// DefaultCategories is the seed set offered to a fresh store.
func DefaultCategories() []Category {
	return []Category{
		{Name: "سماعات", Kind: KindAudio},
		{Name: "ساعات ذكية", Kind: KindWatch},
		{Name: "إكسسوارات", Kind: KindAccessory},
		{Name: "عروض حصرية", Kind: KindOffer},
	}
}
