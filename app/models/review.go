package models

// Review is a short customer testimonial shown on the landing page.
type Review struct {
	Author string  `json:"author"`
	Rating float64 `json:"rating"`
	Text   string  `json:"text"`
}

// FallbackReviews are served whenever generation fails.
func FallbackReviews() []Review {
	return []Review{
		{Author: "أمين التازي", Rating: 5, Text: "الصوت واعر بزاف بالنسبة لهاد الثمن! الباس قوي."},
		{Author: "سارة ل.", Rating: 5, Text: "عجبني الكاش اللي جا معاها فابور. البطارية كتشد نهار كامل."},
		{Author: "كريم ب.", Rating: 4, Text: "ماكاينش فرق بينها وبين الأصلية. التوصيل كان سريع."},
	}
}
