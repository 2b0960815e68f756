package model

// Fixed taste vocabularies. Feedback tags outside these sets collapse to
// CategoryOther so the accumulator maps stay bounded.

const CategoryOther = "other"

var (
	KnownStyles = []string{
		"abstract", "realistic", "surreal", "impressionist",
		"expressionist", "minimalist", "baroque", "renaissance",
	}

	KnownColors = []string{
		"vibrant", "muted", "monochrome", "warm", "cool", "pastel", "neon",
	}

	KnownMoods = []string{
		"peaceful", "dramatic", "mysterious", "playful",
		"ethereal", "energetic", "melancholic",
	}
)

var (
	styleSet = toSet(KnownStyles)
	colorSet = toSet(KnownColors)
	moodSet  = toSet(KnownMoods)
)

func toSet(vs []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		m[v] = struct{}{}
	}
	return m
}

func canonical(tag string, set map[string]struct{}) string {
	if tag == "" {
		return ""
	}
	if _, ok := set[tag]; ok {
		return tag
	}
	return CategoryOther
}

// CanonicalStyle maps a style tag into the known vocabulary, "other" for
// anything unrecognized, "" stays "".
func CanonicalStyle(tag string) string { return canonical(tag, styleSet) }

func CanonicalColor(tag string) string { return canonical(tag, colorSet) }

func CanonicalMood(tag string) string { return canonical(tag, moodSet) }
