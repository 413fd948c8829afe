package cache

import "fmt"

// Key namespace. Derived query keys carry their distinguishing parameters so
// each parameter combination caches independently.
const (
	Namespace   = "news:"
	KeySnapshot = "news:all"
	KeyBreaking = "news:breaking"
)

func ListKey(category string, limit, offset int) string {
	return fmt.Sprintf("news:all:%s:%d:%d", category, limit, offset)
}

func BreakingKey(limit int) string {
	return fmt.Sprintf("news:breaking:%d", limit)
}

func TrendingKey(minScore float64, limit int) string {
	return fmt.Sprintf("news:trending:%g:%d", minScore, limit)
}

func SearchKey(q string, limit int) string {
	return fmt.Sprintf("news:search:%s:%d", q, limit)
}

func EnrichKey(contentHash string) string {
	return fmt.Sprintf("enrich:%s", contentHash)
}
